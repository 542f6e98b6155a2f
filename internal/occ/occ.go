// Package occ parses and formats OCC option symbols
// (root + YYMMDD + C/P + strike*1000 as 8 digits), with or without the
// "O:" prefix Polygon-style feeds prepend.
package occ

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Right is the option side encoded in the symbol.
type Right byte

const (
	Call Right = 'C'
	Put  Right = 'P'
)

// Contract is a parsed OCC option symbol.
type Contract struct {
	Root   string
	Expiry time.Time // UTC midnight of the expiry date
	Right  Right
	Strike decimal.Decimal
}

const bodyLen = 15 // YYMMDD(6) + C/P(1) + strike(8)

// Parse decodes an OCC symbol, tolerating an optional "O:" prefix.
func Parse(symbol string) (Contract, error) {
	body := strings.TrimPrefix(symbol, "O:")
	if len(body) <= bodyLen {
		return Contract{}, fmt.Errorf("occ: symbol %q too short", symbol)
	}

	root := body[:len(body)-bodyLen]
	tail := body[len(body)-bodyLen:]

	yy, err := strconv.Atoi(tail[0:2])
	if err != nil {
		return Contract{}, fmt.Errorf("occ: bad year in %q: %w", symbol, err)
	}
	mm, err := strconv.Atoi(tail[2:4])
	if err != nil {
		return Contract{}, fmt.Errorf("occ: bad month in %q: %w", symbol, err)
	}
	dd, err := strconv.Atoi(tail[4:6])
	if err != nil {
		return Contract{}, fmt.Errorf("occ: bad day in %q: %w", symbol, err)
	}
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return Contract{}, fmt.Errorf("occ: implausible date in %q", symbol)
	}

	right := Right(tail[6])
	if right != Call && right != Put {
		return Contract{}, fmt.Errorf("occ: bad right byte %q in %q", tail[6:7], symbol)
	}

	strikeDigits := tail[7:15]
	strikeX1000, err := strconv.ParseInt(strikeDigits, 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("occ: bad strike in %q: %w", symbol, err)
	}
	strike := decimal.NewFromInt(strikeX1000).Div(decimal.NewFromInt(1000))

	if root == "" {
		return Contract{}, fmt.Errorf("occ: empty root in %q", symbol)
	}

	return Contract{
		Root:   root,
		Expiry: time.Date(2000+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC),
		Right:  right,
		Strike: strike,
	}, nil
}

// Format re-encodes a Contract as a bare (no "O:" prefix) OCC symbol.
func (c Contract) Format() string {
	strikeX1000 := c.Strike.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
	return fmt.Sprintf("%s%02d%02d%02d%c%08d",
		c.Root, c.Expiry.Year()%100, int(c.Expiry.Month()), c.Expiry.Day(),
		c.Right, strikeX1000)
}

// IsIndexQuote reports whether a wire symbol denotes an underlying index
// quote rather than an option contract (e.g. "I:SPX").
func IsIndexQuote(symbol string) bool {
	return strings.HasPrefix(symbol, "I:")
}

// TimeToExpiryYears returns ACT/365 time-to-expiry in years, floored to
// zero (never negative) as of asOf. Callers treat exactly zero as an
// expiring-now contract per the gamma edge case in the greeks package.
func TimeToExpiryYears(expiry time.Time, asOf time.Time) float64 {
	d := expiry.Sub(asOf)
	if d <= 0 {
		return 0
	}
	return d.Hours() / 24 / 365
}
