package pdf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"
)

// familySample rejection-samples from the six-parameter density family, so
// the fitter can be checked against known generative parameters.
func familySample(n int, theta []float64, seed uint64) []float64 {
	x0, s0, f := theta[0], theta[1], theta[3]
	lo := x0 - s0*(10*math.Exp(-f)+2)
	hi := x0 + s0*(10*math.Exp(f)+2)

	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, 0, n)
	for len(out) < n {
		x := lo + (hi-lo)*rng.Float64()
		// the unnormalised density peaks at 1 when z = 0
		if rng.Float64() < math.Exp(logPdfModel(x, theta)) {
			out = append(out, x)
		}
	}
	return out
}

func TestUnimodalPdfInvalidInputs(t *testing.T) {
	_, err := NewUnimodalPdf(nil)
	require.Error(t, err)
	_, err = NewUnimodalPdf([]float64{0.3})
	require.Error(t, err)
	_, err = NewUnimodalPdf([]float64{5, 5, 5, 5})
	require.Error(t, err)
}

func TestUnimodalPdfRecoversGenerativeMode(t *testing.T) {
	theta := []float64{2, 1, 1, 0.3, 4, 2}
	sample := familySample(3000, theta, 77)

	p, err := NewUnimodalPdf(sample)
	require.NoError(t, err)
	require.InDelta(t, theta[0], p.Mode(), 0.5)
}

func TestUnimodalPdfDensityIntegratesToOne(t *testing.T) {
	sample := normalSample(2000, 0, 1, 83)
	p, err := NewUnimodalPdf(sample)
	require.NoError(t, err)

	lwr, upr := p.SupportBounds()
	integral := quad.Fixed(p.Density, lwr, upr, 500, nil, 0)
	require.InDelta(t, 1, integral, 0.05)
}

func TestUnimodalPdfMomentsOfNormalSample(t *testing.T) {
	sample := normalSample(3000, 4, 2, 89)
	p, err := NewUnimodalPdf(sample)
	require.NoError(t, err)

	m := p.Moments()
	require.InDelta(t, 4, m.Mean, 0.3)
	require.InDelta(t, 4, m.Variance, 0.8)
}

func TestUnimodalPdfIntervalViaThresholdSearch(t *testing.T) {
	sample := normalSample(3000, 0, 1, 97)
	p, err := NewUnimodalPdf(sample)
	require.NoError(t, err)

	ivs, err := p.Interval(0.95449)
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	require.InDelta(t, -2, ivs[0].Lower, 0.3)
	require.InDelta(t, 2, ivs[0].Upper, 0.3)

	// a wider fraction must produce a wider interval
	narrow, err := p.Interval(0.68268)
	require.NoError(t, err)
	require.Less(t, narrow[0].Width(), ivs[0].Width())

	_, err = p.Interval(0)
	require.Error(t, err)
}

func TestUnimodalPdfTwoPhaseFitOnLargeSample(t *testing.T) {
	sample := normalSample(6000, -1, 0.5, 103)
	p, err := NewUnimodalPdf(sample)
	require.NoError(t, err)
	require.InDelta(t, -1, p.Mode(), 0.2)

	params := p.Params()
	require.Len(t, params, 6)
	require.Greater(t, params[1], 0.0)
}
