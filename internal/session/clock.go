// Package session answers market-session questions: trading days and
// exchange-local wall time.
package session

import (
	"time"

	"github.com/scmhub/calendar"
)

// DefaultTimezone is the exchange timezone used when none is
// configured.
const DefaultTimezone = "America/New_York"

// Clock resolves times against the NYSE trading calendar in a
// configured exchange timezone.
type Clock struct {
	location *time.Location
	nyse     *calendar.Calendar
}

// NewClock builds a clock for the given IANA timezone. An empty or
// unloadable timezone falls back to the default exchange zone, then
// UTC.
func NewClock(timezone string) *Clock {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Clock{
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// Now returns the current exchange-local time.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.location)
}

// In converts a time to the exchange timezone.
func (c *Clock) In(t time.Time) time.Time {
	return t.In(c.location)
}

// IsMarketDay reports whether t falls on a trading day. The instant is
// re-anchored to exchange-local noon so dates near midnight resolve to
// the right calendar day.
func (c *Clock) IsMarketDay(t time.Time) bool {
	local := t.In(c.location)
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, c.location)
	return c.nyse.IsBusinessDay(noon)
}

// Location returns the exchange timezone.
func (c *Clock) Location() *time.Location {
	return c.location
}
