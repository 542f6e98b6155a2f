// Package tradingcal answers "is the market open" for the reconnect
// supervisor.
package tradingcal

import (
	"fmt"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Calendar wraps a market calendar for business-day checks.
type Calendar struct {
	cal *calendar.Calendar
}

// New returns a Calendar for the given market name (e.g. "XNYS" for the
// NYSE/SPX session calendar).
func New(market string) (*Calendar, error) {
	cal := calendar.GetCalendar(strings.ToLower(market))
	if cal == nil {
		return nil, fmt.Errorf("tradingcal: unknown market calendar %q", market)
	}
	return &Calendar{cal: cal}, nil
}

// IsOpen reports whether t falls on a business day of the market
// calendar. Session hours are not checked, so any time of day on a
// business day counts as open.
func (c *Calendar) IsOpen(t time.Time) bool {
	if c == nil || c.cal == nil {
		return true
	}
	return c.cal.IsBusinessDay(t)
}
