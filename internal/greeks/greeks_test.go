package greeks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamma_PutCallSymmetry(t *testing.T) {
	s, k, tt, sigma := 5000.0, 5010.0, 0.01, 0.15
	gc, err := Gamma(s, k, tt, sigma, 0, 0)
	require.NoError(t, err)
	gp, err := Gamma(s, k, tt, sigma, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, gc, gp, "call and put gamma must be identical at the same strike")
}

func TestGamma_ZeroAtExpiry(t *testing.T) {
	g, err := Gamma(5000, 5010, 0, 0.15, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, g, "gamma at T=0")

	g, err = Gamma(5000, 5010, -1, 0.15, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, g, "gamma at T<0")
}

func TestGamma_InvalidInputs(t *testing.T) {
	_, err := Gamma(0, 100, 1, 0.2, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput, "S<=0")

	_, err = Gamma(100, 0, 1, 0.2, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput, "K<=0")
}

func TestImpliedVol_RoundTrip(t *testing.T) {
	s, k, tt, r, q := 5000.0, 5020.0, 0.05, 0.0, 0.0
	for _, sigma := range []float64{0.08, 0.15, 0.35, 0.9} {
		price, err := Price(Call, s, k, tt, sigma, r, q)
		require.NoError(t, err)

		iv, err := ImpliedVolCall(price, s, k, tt, r, q)
		require.NoErrorf(t, err, "sigma=%v", sigma)
		assert.InDeltaf(t, sigma, iv, 1e-3, "round-tripped iv for sigma=%v", sigma)
	}
}

func TestImpliedVol_NoConvergenceOnExpiry(t *testing.T) {
	_, err := ImpliedVolCall(10, 5000, 5010, 0, 0, 0)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestNormCDF_Bounds(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-7, "cdf(0)")
	assert.InDelta(t, 0.975, normCDF(1.959964), 1e-4, "cdf(1.96)")
	assert.GreaterOrEqual(t, normCDF(-10), 0.0)
	assert.LessOrEqual(t, normCDF(10), 1.0)
}
