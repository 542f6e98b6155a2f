// Package pin identifies the strike a market is likely to pin toward at
// expiry from the concentration of dealer gamma exposure near spot.
package pin

import (
	"math"

	"github.com/dgnsrekt/dealer-gamma-engine/internal/book"
)

// RiskLevel is a coarse read of how strong a pin candidate is relative
// to the rest of the book.
type RiskLevel int

const (
	Low RiskLevel = iota
	Medium
	High
)

// Analysis is the result of one pin-detection pass.
type Analysis struct {
	Candidate   book.Key
	Strength    float64 // |gamma at candidate| / total |gamma|
	RiskLevel   RiskLevel
	TotalGamma  float64
}

const (
	mediumStrengthThreshold = 0.25
	highStrengthThreshold   = 0.5
)

// Detect scans a book snapshot for the strike whose combined call+put
// dealer gamma magnitude, near the given spot, dominates the book, and
// scores how dominant it is.
func Detect(rows []book.StrikeSnapshot, spot float64, nearWindow float64) (Analysis, bool) {
	type agg struct {
		key   book.Key
		gamma float64
	}
	byStrike := make(map[float64]*agg)
	var totalAbs float64

	for _, r := range rows {
		totalAbs += math.Abs(r.DealerGamma)
		if math.Abs(r.Key.Strike-spot) > nearWindow {
			continue
		}
		a, ok := byStrike[r.Key.Strike]
		if !ok {
			a = &agg{key: book.Key{Expiry: r.Key.Expiry, Strike: r.Key.Strike}}
			byStrike[r.Key.Strike] = a
		}
		a.gamma += r.DealerGamma
	}

	if totalAbs == 0 || len(byStrike) == 0 {
		return Analysis{}, false
	}

	var best *agg
	for _, a := range byStrike {
		if best == nil || math.Abs(a.gamma) > math.Abs(best.gamma) {
			best = a
		}
	}

	strength := math.Abs(best.gamma) / totalAbs
	level := Low
	switch {
	case strength >= highStrengthThreshold:
		level = High
	case strength >= mediumStrengthThreshold:
		level = Medium
	}

	return Analysis{
		Candidate:  best.key,
		Strength:   strength,
		RiskLevel:  level,
		TotalGamma: totalAbs,
	}, true
}
