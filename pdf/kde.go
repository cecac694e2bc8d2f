package pdf

import (
	"context"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/inferkit/pdftools/common"
	"github.com/inferkit/pdftools/hdi"
	"github.com/inferkit/pdftools/model"
)

// cutoffBandwidths truncates each kernel sum to samples within this many
// bandwidths of the query point; the Gaussian tail mass beyond 4 sigma is
// below 1e-4.
const cutoffBandwidths = 4.0

// KDEConfig carries the optional knobs of a GaussianKDE fit. The zero value
// selects the rule-of-thumb bandwidth with no cross-validation.
type KDEConfig struct {
	// Bandwidth fixes the kernel width explicitly. When zero the width is
	// estimated from the sample.
	Bandwidth float64

	// CrossValidation selects the bandwidth by maximising a leave-one-out
	// cross-validation log-probability instead of the rule of thumb.
	CrossValidation bool

	// MaxCVSamples caps the sub-sample used during cross-validation, whose
	// cost is roughly quadratic in the sample count. Defaults to 5000.
	MaxCVSamples int

	// Source seeds the randomness used for cross-validation subsampling and
	// the double-interval search. A nil source selects a fixed default seed,
	// keeping fits reproducible.
	Source rand.Source
}

// GaussianKDE is a Gaussian kernel density estimate over a 1D sample. Kernel
// sums are truncated to a per-bucket slice of the sorted sample, located in
// O(log n) through a BinaryTree over the sample range. The estimator is
// immutable once constructed.
type GaussianKDE struct {
	s []float64 // sorted copy of the sample

	h        float64 // bandwidth
	norm     float64 // 1 / (n sqrt(2 pi) h)
	cutoff   float64 // truncation radius, 4h
	q        float64 // 1 / (sqrt(2) h)
	lwrLimit float64
	uprLimit float64

	tree    *BinaryTree
	sliceLo []int // per-bucket index ranges into s
	sliceHi []int

	mode float64

	// hdiSeed rebuilds a fresh random source for every interval search, so
	// queries on a fitted estimator stay reproducible without sharing any
	// mutable state between concurrent callers.
	hdiSeed uint64

	cdfGrid []float64
	cdfVals []float64
}

// NewGaussianKDE fits a kernel density estimate to the sample. The sample is
// copied and sorted; the caller's slice is not modified.
func NewGaussianKDE(sample []float64, cfg KDEConfig) (*GaussianKDE, error) {
	if len(sample) < 2 {
		return nil, common.ErrorSampleTooSmall
	}

	s := append([]float64(nil), sample...)
	sort.Float64s(s)
	n := len(s)
	if s[n-1] == s[0] {
		return nil, common.ErrorInvalidValue
	}

	maxCV := cfg.MaxCVSamples
	if maxCV <= 0 {
		maxCV = 5000
	}
	src := cfg.Source
	if src == nil {
		src = rand.NewSource(1)
	}

	h := cfg.Bandwidth
	if h == 0 {
		h = simpleBandwidth(s)
		if cfg.CrossValidation {
			h = crossValidationBandwidth(s, h, maxCV, src)
		}
	}
	if h <= 0 || math.IsNaN(h) {
		return nil, common.ErrorInvalidValue
	}

	k := &GaussianKDE{
		s:       s,
		h:       h,
		norm:    1 / (float64(n) * math.Sqrt(2*math.Pi) * h),
		cutoff:  cutoffBandwidths * h,
		q:       1 / (math.Sqrt2 * h),
		hdiSeed: rand.New(src).Uint64(),
	}
	k.lwrLimit = s[0] - k.cutoff*0.5
	k.uprLimit = s[n-1] + k.cutoff*0.5

	// pick the layer count so each bucket is comparable in width to the
	// bandwidth
	layers := int(math.Log2((s[n-1]-s[0])/h)) + 1
	if layers < 1 {
		layers = 1
	}
	if layers > 20 {
		layers = 20
	}
	k.tree = NewBinaryTree(layers, s[0], s[n-1])

	// for every bucket, precompute the index range of samples within the
	// cutoff of any point in the bucket: reach cutoff beyond both bucket
	// edges, i.e. half the bucket width past the midpoint on each side.
	// The extra half-width matters when the layer cap leaves buckets wider
	// than the bandwidth.
	buckets := k.tree.Buckets()
	k.sliceLo = make([]int, buckets)
	k.sliceHi = make([]int, buckets)
	for i := 0; i < buckets; i++ {
		lo, hi, mid := k.tree.Bucket(i)
		reach := k.cutoff + 0.5*(hi-lo)
		k.sliceLo[i] = sort.SearchFloat64s(s, mid-reach)
		k.sliceHi[i] = sort.SearchFloat64s(s, mid+reach)
	}

	k.mode = k.locateMode()
	k.fillCDFGrid()
	return k, nil
}

// Density evaluates the estimated PDF at x using the truncated kernel sum
// over the containing bucket's sample slice.
func (k *GaussianKDE) Density(x float64) float64 {
	b := k.tree.Lookup(x)
	sum := 0.0
	for _, si := range k.s[k.sliceLo[b]:k.sliceHi[b]] {
		z := (x - si) * k.q
		sum += math.Exp(-z * z)
	}
	return k.norm * sum
}

// DensityEach returns Density(xs[i]) for each i.
func (k *GaussianKDE) DensityEach(xs []float64) []float64 {
	res := make([]float64, len(xs))
	for i, x := range xs {
		res[i] = k.Density(x)
	}
	return res
}

// Bandwidth returns the kernel width used by the estimate.
func (k *GaussianKDE) Bandwidth() float64 {
	return k.h
}

// Mode returns the location of the density maximum.
func (k *GaussianKDE) Mode() float64 {
	return k.mode
}

// SupportBounds returns the limits sample_min/max -/+ cutoff/2 outside which
// the estimated density is negligible.
func (k *GaussianKDE) SupportBounds() (lower, upper float64) {
	return k.lwrLimit, k.uprLimit
}

// Moments returns the mean, variance, skewness and excess kurtosis of the
// estimated PDF, integrated numerically over the support bounds.
func (k *GaussianKDE) Moments() model.Moments {
	return momentsFromDensity(k.Density, k.lwrLimit, k.uprLimit)
}

// Interval returns the highest-density interval(s) containing the given
// fraction of total probability, estimated from the raw sample rather than
// the fitted density. Every call derives its own random source from the
// estimator's seed, so calls are reproducible and safe to issue
// concurrently.
func (k *GaussianKDE) Interval(frac float64) ([]model.Interval, error) {
	return hdi.SampleHDIFromSource(context.Background(), k.s, frac, false, rand.NewSource(k.hdiSeed))
}

// locateMode minimises the negative density inside the single-interval 10%
// HDI, which is a cheap, tight starting bracket around the mode.
func (k *GaussianKDE) locateMode() float64 {
	ivs, err := hdi.SampleHDIFromSource(context.Background(), k.s, 0.1, true, rand.NewSource(k.hdiSeed))
	if err != nil || len(ivs) == 0 {
		return k.s[len(k.s)/2]
	}
	iv := ivs[0]
	if iv.Width() == 0 {
		return iv.Lower
	}
	neg := func(x float64) float64 { return -k.Density(x) }
	return goldenMinimize(neg, iv.Lower, iv.Upper, 1e-7*iv.Width())
}

// fillCDFGrid integrates the density over a fixed grid so that CDF and
// Quantile stay read-only after construction.
func (k *GaussianKDE) fillCDFGrid() {
	const gridSize = 256
	grid := linspace(k.lwrLimit, k.uprLimit, gridSize)
	vals := make([]float64, gridSize)
	cum := 0.0
	for i := 1; i < gridSize; i++ {
		cum += quad.Fixed(k.Density, grid[i-1], grid[i], 10, nil, 0)
		vals[i] = cum
	}
	k.cdfGrid = grid
	k.cdfVals = vals
}

// CDF returns the cumulative probability of the estimated PDF at x,
// interpolated from a quadrature grid over the support.
func (k *GaussianKDE) CDF(x float64) float64 {
	grid, vals := k.cdfGrid, k.cdfVals
	if x <= grid[0] {
		return 0
	}
	if x >= grid[len(grid)-1] {
		return vals[len(vals)-1]
	}
	i := sort.SearchFloat64s(grid, x)
	x0, x1 := grid[i-1], grid[i]
	v0, v1 := vals[i-1], vals[i]
	return v0 + (v1-v0)*(x-x0)/(x1-x0)
}

// Quantile returns the x-position at which the CDF reaches p.
func (k *GaussianKDE) Quantile(p float64) (*model.QuantileValue, error) {
	if !(p > 0 && p < 1) {
		return nil, common.ErrorInvalidFraction
	}
	grid, vals := k.cdfGrid, k.cdfVals
	if p <= vals[0] {
		return &model.QuantileValue{Quantile: p, Value: grid[0]}, nil
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] > p {
			lowerX, lowerP := grid[i-1], vals[i-1]
			upperX, upperP := grid[i], vals[i]
			value := lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP)
			return &model.QuantileValue{Quantile: p, Value: value}, nil
		}
	}
	return &model.QuantileValue{Quantile: p, Value: grid[len(grid)-1]}, nil
}
