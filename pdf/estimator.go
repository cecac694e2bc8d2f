// Package pdf estimates probability density functions from sample sequences,
// typically the output of a Markov-chain sampler. It provides a nonparametric
// kernel estimator (GaussianKDE), a parametric unimodal estimator
// (UnimodalPdf) and a simple bivariate kernel estimator (KDE2D). Estimators
// are fitted eagerly at construction and are read-only afterwards, so they
// may be queried concurrently without synchronisation.
package pdf

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/inferkit/pdftools/common"
	"github.com/inferkit/pdftools/model"
)

// Estimator is the common contract of the 1D density estimators.
type Estimator interface {
	// Density evaluates the estimated PDF at x.
	Density(x float64) float64
	// DensityEach returns Density(xs[i]) for each i.
	DensityEach(xs []float64) []float64
	// Moments returns the mean, variance, skewness and excess kurtosis
	// of the estimated PDF.
	Moments() model.Moments
	// Interval returns the highest-density interval(s) containing the
	// given fraction of total probability.
	Interval(frac float64) ([]model.Interval, error)
	// Mode returns the location of the density maximum.
	Mode() float64
	// SupportBounds returns limits outside which the estimated density
	// is negligible.
	SupportBounds() (lower, upper float64)
}

var (
	_ Estimator = (*GaussianKDE)(nil)
	_ Estimator = (*UnimodalPdf)(nil)
)

const bracketTol = 1e-3

// binarySearch finds x in [lower, upper] such that f(x) is approximately
// target, assuming f is monotonic on the bracket. uphill indicates f is
// increasing. The bracket is shrunk until its relative width drops below
// bracketTol, then one linear-interpolation step polishes the result.
func binarySearch(f func(float64) float64, target, lower, upper float64, uphill bool) float64 {
	x := 0.5 * (lower + upper)
	for {
		if f(x) > target {
			if uphill {
				upper = x
			} else {
				lower = x
			}
		} else {
			if uphill {
				lower = x
			} else {
				upper = x
			}
		}
		x = 0.5 * (lower + upper)
		if x != 0 && math.Abs((upper-lower)/x) < bracketTol {
			break
		}
		if upper-lower < 1e-12*(math.Abs(upper)+1) {
			break
		}
	}

	fUpr := f(upper)
	fLwr := f(lower)
	df := fUpr - fLwr
	if df == 0 {
		return x
	}
	return lower*(fUpr-target)/df + upper*(target-fLwr)/df
}

// levelSearch implements the generic highest-density interval computation
// shared by estimators with no closed-form interval: an outer binary search
// over the density threshold whose super-level set carries the requested
// probability mass.
type levelSearch struct {
	density  func(float64) float64
	mode     float64
	lwrLimit float64
	uprLimit float64
}

func (s *levelSearch) interval(frac float64) (model.Interval, error) {
	if !(frac > 0 && frac < 1) {
		return model.Interval{}, common.ErrorInvalidFraction
	}
	pMax := s.density(s.mode)
	z := binarySearch(s.intervalProb, frac, 0, pMax, false)
	return s.levelBounds(z), nil
}

// levelBounds finds the x-bounds at density threshold z: the density rises
// monotonically from the lower limit to the mode and falls from the mode to
// the upper limit.
func (s *levelSearch) levelBounds(z float64) model.Interval {
	lwr := binarySearch(s.density, z, s.lwrLimit, s.mode, true)
	upr := binarySearch(s.density, z, s.mode, s.uprLimit, false)
	return model.Interval{Lower: lwr, Upper: upr}
}

func (s *levelSearch) intervalProb(z float64) float64 {
	iv := s.levelBounds(z)
	return quad.Fixed(s.density, iv.Lower, iv.Upper, 100, nil, 0)
}
