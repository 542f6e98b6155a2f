// Package directional estimates the net directional force dealer gamma
// exposure exerts on the underlying: short-gamma dealers must chase
// price (reinforcing moves), long-gamma dealers fade it (dampening).
package directional

import "github.com/dgnsrekt/dealer-gamma-engine/internal/book"

// Force is the signed directional-force estimate for one strike band.
// Positive means dealer hedging reinforces upside moves; negative means
// it reinforces downside moves.
type Force struct {
	Strike float64
	Value  float64
}

// Estimate weights each strike's dealer gamma by its signed distance
// from spot: a short-gamma (negative) position above spot pushes price
// down as it's hedged, a short-gamma position below spot pushes it up,
// and long-gamma positions push the opposite way.
func Estimate(rows []book.StrikeSnapshot, spot float64) []Force {
	byStrike := make(map[float64]float64)
	for _, r := range rows {
		byStrike[r.Key.Strike] += r.DealerGamma
	}

	out := make([]Force, 0, len(byStrike))
	for strike, gamma := range byStrike {
		dist := spot - strike
		out = append(out, Force{Strike: strike, Value: -gamma * dist})
	}
	return out
}

// NetForce sums all per-strike forces into a single directional signal.
func NetForce(forces []Force) float64 {
	var total float64
	for _, f := range forces {
		total += f.Value
	}
	return total
}
