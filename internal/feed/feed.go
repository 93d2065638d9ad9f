// Package feed fetches option chain snapshots from the market data
// provider and narrows them to the contracts worth aggregating.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

// FilterWindow narrows a raw chain to near-dated, near-the-money
// contracts before aggregation.
type FilterWindow struct {
	// MaxDTE keeps expirations at most this many calendar days out.
	MaxDTE int
	// StrikeRangePct keeps strikes within this fraction of spot,
	// e.g. 0.15 keeps [0.85*spot, 1.15*spot].
	StrikeRangePct float64
}

func (w FilterWindow) Validate() error {
	if w.MaxDTE < 0 {
		return fmt.Errorf("max DTE must be non-negative, got %d", w.MaxDTE)
	}
	if w.StrikeRangePct <= 0 || w.StrikeRangePct > 1 {
		return fmt.Errorf("strike range pct must be in (0, 1], got %v", w.StrikeRangePct)
	}
	return nil
}

// DefaultWindow matches the intraday use case: this week's
// expirations, strikes within 15% of spot.
func DefaultWindow() FilterWindow {
	return FilterWindow{MaxDTE: 5, StrikeRangePct: 0.15}
}

// ChainSnapshot is one symbol's filtered option chain at a point in
// time.
type ChainSnapshot struct {
	Symbol    string         `json:"symbol"`
	Spot      float64        `json:"spot"`
	Contracts []gex.Contract `json:"contracts"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Provider returns option chain snapshots. Implementations report
// ErrNoOptions for symbols without listed options and ErrTimeout for
// transient provider failures.
type Provider interface {
	Snapshot(ctx context.Context, symbol string, window FilterWindow) (*ChainSnapshot, error)
}
