package hdi_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferkit/pdftools/hdi"
	"github.com/inferkit/pdftools/model"
)

func normalSample(n int, mu, sigma float64, seed uint64) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: rand.NewSource(seed)}
	s := make([]float64, n)
	for i := range s {
		s[i] = dist.Rand()
	}
	return s
}

func countContained(s []float64, ivs []model.Interval) int {
	count := 0
	for _, x := range s {
		for _, iv := range ivs {
			if iv.Contains(x) {
				count++
				break
			}
		}
	}
	return count
}

func TestSampleHDIInvalidInputs(t *testing.T) {
	ctx := context.Background()
	sample := normalSample(100, 0, 1, 1)

	_, err := hdi.SampleHDI(ctx, sample, 0, false)
	require.Error(t, err)
	_, err = hdi.SampleHDI(ctx, sample, 1, false)
	require.Error(t, err)
	_, err = hdi.SampleHDI(ctx, sample, -0.2, false)
	require.Error(t, err)
	_, err = hdi.SampleHDI(ctx, []float64{1.5}, 0.5, false)
	require.Error(t, err)
	_, err = hdi.SampleHDI(ctx, nil, 0.5, false)
	require.Error(t, err)
}

func TestSampleHDISingleIntervalIsMinimalWidth(t *testing.T) {
	ctx := context.Background()
	sample := normalSample(1500, 2, 3, 7)

	for _, frac := range []float64{0.1, 0.5, 0.6827, 0.95} {
		ivs, err := hdi.SampleHDI(ctx, sample, frac, true)
		require.NoError(t, err)
		require.Len(t, ivs, 1)

		s := append([]float64(nil), sample...)
		sort.Float64s(s)
		n := len(s)
		l := int(frac * float64(n))

		// brute-force minimal window over all valid start indices
		bestWidth := s[l] - s[0]
		for i := 1; i < n-l; i++ {
			if w := s[i+l] - s[i]; w < bestWidth {
				bestWidth = w
			}
		}
		require.InDelta(t, bestWidth, ivs[0].Width(), 1e-12)
		require.GreaterOrEqual(t, countContained(sample, ivs), l)
	}
}

func TestSampleHDIKeepsSingleIntervalForUnimodalSample(t *testing.T) {
	ctx := context.Background()
	sample := normalSample(2000, 0, 1, 3)

	ivs, err := hdi.SampleHDIFromSource(ctx, sample, 0.6827, false, rand.NewSource(5))
	require.NoError(t, err)
	require.Len(t, ivs, 1)
}

func TestSampleHDIFindsDoubleIntervalForBimodalSample(t *testing.T) {
	ctx := context.Background()
	sample := append(normalSample(600, 0, 0.5, 21), normalSample(600, 20, 0.5, 22)...)

	ivs, err := hdi.SampleHDIFromSource(ctx, sample, 0.8, false, rand.NewSource(9))
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	require.Less(t, ivs[0].Upper, ivs[1].Lower)

	// the split must beat the single interval by at least 1%
	single, err := hdi.SampleHDI(ctx, sample, 0.8, true)
	require.NoError(t, err)
	total := ivs[0].Width() + ivs[1].Width()
	require.Less(t, total, 0.99*single[0].Width())

	l := int(0.8 * float64(len(sample)))
	require.GreaterOrEqual(t, countContained(sample, ivs), l)
}

func TestSampleHDIDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	sample := append(normalSample(400, 0, 1, 31), normalSample(400, 12, 1, 32)...)

	first, err := hdi.SampleHDIFromSource(ctx, sample, 0.75, false, rand.NewSource(17))
	require.NoError(t, err)
	second, err := hdi.SampleHDIFromSource(ctx, sample, 0.75, false, rand.NewSource(17))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSampleHDISmallTailWarnsButSucceeds(t *testing.T) {
	ctx := context.Background()
	sample := normalSample(25, 0, 1, 41)

	ivs, err := hdi.SampleHDI(ctx, sample, 0.5, true)
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	require.GreaterOrEqual(t, countContained(sample, ivs), 12)
}
