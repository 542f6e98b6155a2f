// Package greeks implements Black-Scholes-Merton pricing and the Greeks
// the dealer engine needs to revalue gamma exposure from a quoted mid.
package greeks

import (
	"errors"
	"math"
)

// ErrNoConvergence is returned by ImpliedVol when T<=0, when the target
// price is not bracketed by [ivLow, ivHigh], or when the bisection/Newton
// solver does not converge within ivMaxIter iterations.
var ErrNoConvergence = errors.New("greeks: implied vol solver did not converge")

// ErrInvalidInput is returned when S or K is non-positive, or when
// ImpliedVol is given a negative target price.
var ErrInvalidInput = errors.New("greeks: invalid input")

const (
	ivLow         = 1e-4
	ivHigh        = 5.0
	ivPriceTol    = 1e-4
	ivMaxIter     = 100
	minTimeFloor  = 0.0 // T<=0 is a valid, meaningful input: zero gamma.
)

// Right is the option type.
type Right int

const (
	Call Right = iota
	Put
)

// normCDF is the standard normal CDF via Abramowitz & Stegun 26.2.17,
// accurate to about 1.5e-7.
func normCDF(x float64) float64 {
	const (
		a1 = 0.319381530
		a2 = -0.356563782
		a3 = 1.781477937
		a4 = -1.821255978
		a5 = 1.330274429
		p  = 0.2316419
	)
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	k := 1.0 / (1.0 + p*x)
	poly := k * (a1 + k*(a2+k*(a3+k*(a4+k*a5))))
	cdf := 1.0 - (1.0/math.Sqrt(2*math.Pi))*math.Exp(-x*x/2)*poly
	if sign < 0 {
		return 1.0 - cdf
	}
	return cdf
}

// normPDF is the standard normal density function.
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func d1d2(s, k, t, sigma, r, q float64) (d1, d2 float64) {
	d1 = (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 = d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// Gamma returns the option gamma. Gamma is identical for calls and puts.
// T<=0 returns exactly zero: an expired or expiring-this-instant option
// carries no gamma exposure regardless of moneyness.
func Gamma(s, k, t, sigma, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor {
		return 0, nil
	}
	if sigma <= 0 {
		return 0, nil
	}
	d1, _ := d1d2(s, k, t, sigma, r, q)
	return math.Exp(-q*t) * normPDF(d1) / (s * sigma * math.Sqrt(t)), nil
}

// Delta returns the option delta for the given right.
func Delta(right Right, s, k, t, sigma, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor {
		if right == Call {
			if s > k {
				return 1, nil
			}
			return 0, nil
		}
		if s < k {
			return -1, nil
		}
		return 0, nil
	}
	if sigma <= 0 {
		sigma = 1e-6
	}
	d1, _ := d1d2(s, k, t, sigma, r, q)
	disc := math.Exp(-q * t)
	if right == Call {
		return disc * normCDF(d1), nil
	}
	return disc * (normCDF(d1) - 1), nil
}

// Vega returns the option vega (sensitivity to a 1.0 change in sigma).
func Vega(s, k, t, sigma, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor || sigma <= 0 {
		return 0, nil
	}
	d1, _ := d1d2(s, k, t, sigma, r, q)
	return s * math.Exp(-q*t) * normPDF(d1) * math.Sqrt(t), nil
}

// Theta returns the option theta (per year; callers divide by 365 for
// a daily figure).
func Theta(right Right, s, k, t, sigma, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor || sigma <= 0 {
		return 0, nil
	}
	d1, d2 := d1d2(s, k, t, sigma, r, q)
	term1 := -s * math.Exp(-q*t) * normPDF(d1) * sigma / (2 * math.Sqrt(t))
	if right == Call {
		term2 := r * k * math.Exp(-r*t) * normCDF(d2)
		term3 := q * s * math.Exp(-q*t) * normCDF(d1)
		return term1 - term2 + term3, nil
	}
	term2 := r * k * math.Exp(-r*t) * normCDF(-d2)
	term3 := q * s * math.Exp(-q*t) * normCDF(-d1)
	return term1 + term2 - term3, nil
}

// Price returns the Black-Scholes-Merton price for the given right.
func Price(right Right, s, k, t, sigma, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor {
		if right == Call {
			return math.Max(s-k, 0), nil
		}
		return math.Max(k-s, 0), nil
	}
	if sigma <= 0 {
		if right == Call {
			return math.Max(s*math.Exp(-q*t)-k*math.Exp(-r*t), 0), nil
		}
		return math.Max(k*math.Exp(-r*t)-s*math.Exp(-q*t), 0), nil
	}
	d1, d2 := d1d2(s, k, t, sigma, r, q)
	if right == Call {
		return s*math.Exp(-q*t)*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2), nil
	}
	return k*math.Exp(-r*t)*normCDF(-d2) - s*math.Exp(-q*t)*normCDF(-d1), nil
}

// ImpliedVol solves for the volatility that reprices the option to
// target using bracketed bisection over [1e-4, 5.0], taking a Newton
// step instead of the bisection midpoint whenever that step stays inside
// the current bracket, capped at 100 iterations.
func ImpliedVol(right Right, target, s, k, t, r, q float64) (float64, error) {
	if s <= 0 || k <= 0 || target < 0 {
		return 0, ErrInvalidInput
	}
	if t <= minTimeFloor {
		return 0, ErrNoConvergence
	}

	lo, hi := ivLow, ivHigh
	priceAt := func(sigma float64) (float64, error) { return Price(right, s, k, t, sigma, r, q) }

	plo, err := priceAt(lo)
	if err != nil {
		return 0, err
	}
	phi, err := priceAt(hi)
	if err != nil {
		return 0, err
	}
	if (target-plo)*(target-phi) > 0 {
		return 0, ErrNoConvergence
	}

	sigma := (lo + hi) / 2
	for i := 0; i < ivMaxIter; i++ {
		p, err := priceAt(sigma)
		if err != nil {
			return 0, err
		}
		diff := p - target
		if math.Abs(diff) < ivPriceTol {
			return sigma, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		vega, err := Vega(s, k, t, sigma, r, q)
		if err == nil && vega > 1e-8 {
			newton := sigma - diff/vega
			if newton > lo && newton < hi {
				sigma = newton
				continue
			}
		}
		sigma = (lo + hi) / 2
	}
	return 0, ErrNoConvergence
}

// ImpliedVolCall is a convenience wrapper around ImpliedVol for calls.
func ImpliedVolCall(target, s, k, t, r, q float64) (float64, error) {
	return ImpliedVol(Call, target, s, k, t, r, q)
}

// ImpliedVolPut is a convenience wrapper around ImpliedVol for puts.
func ImpliedVolPut(target, s, k, t, r, q float64) (float64, error) {
	return ImpliedVol(Put, target, s, k, t, r, q)
}
