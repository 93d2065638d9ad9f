package feed

import "errors"

var (
	// ErrTimeout is a transient provider failure. The symbol should be
	// retried on the next cycle.
	ErrTimeout = errors.New("option chain request timed out")

	// ErrNoOptions means the symbol has no listed options. This is a
	// definitive answer, not a failure.
	ErrNoOptions = errors.New("no options listed for symbol")

	ErrRateLimited = errors.New("rate limited by provider")
	ErrAuthFailed  = errors.New("provider authentication failed")
)
