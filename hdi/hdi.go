// Package hdi estimates highest-density intervals directly from samples:
// the shortest single interval, or pair of disjoint intervals, containing a
// chosen fraction of the sample points.
package hdi

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"

	"github.com/inferkit/pdftools/common"
	"github.com/inferkit/pdftools/model"
	"github.com/inferkit/pdftools/utils"
)

// defaultSeed keeps interval estimates reproducible when the caller does not
// thread an explicit random source.
const defaultSeed = 1

// SampleHDI estimates the highest-density interval(s) for the given sample
// and probability fraction. The shortest single interval of floor(fraction*n)
// points is always computed; unless forceSingle is set, a two-interval
// solution is also searched for, and returned in place of the single interval
// only when its total width is at least 1% smaller. This guards against
// spurious bimodal-looking splits caused by sampling noise.
func SampleHDI(ctx context.Context, sample []float64, fraction float64, forceSingle bool) ([]model.Interval, error) {
	return SampleHDIFromSource(ctx, sample, fraction, forceSingle, nil)
}

// SampleHDIFromSource is SampleHDI with an explicit random source driving the
// double-interval search, for reproducibility. A nil src selects a fixed
// default seed.
func SampleHDIFromSource(ctx context.Context, sample []float64, fraction float64, forceSingle bool, src rand.Source) ([]model.Interval, error) {
	logger := utils.GetLogger(ctx)

	if !(fraction > 0 && fraction < 1) {
		return nil, common.ErrorInvalidFraction
	}
	if len(sample) < 2 {
		return nil, common.ErrorSampleTooSmall
	}

	s := append([]float64(nil), sample...)
	sort.Float64s(s)
	n := len(s)
	l := int(fraction * float64(n))

	if n <= l {
		logger.Warn("sample too small to estimate the interval for the given fraction",
			zap.Int("n", n), zap.Float64("fraction", fraction))
		return []model.Interval{{Lower: s[0], Upper: s[n-1]}}, nil
	}
	if n-l < 20 {
		logger.Warn("few samples outside the requested fraction, interval may be inaccurate",
			zap.Int("n", n), zap.Float64("fraction", fraction))
	}

	// optimal single interval: the minimal-width window of l+1 consecutive
	// order statistics
	best := 0
	for i := 1; i < n-l; i++ {
		if s[i+l]-s[i] < s[best+l]-s[best] {
			best = i
		}
	}
	single := model.Interval{Lower: s[best], Upper: s[best+l]}

	if forceSingle {
		return []model.Interval{single}, nil
	}

	obj := newDoubleIntervalLength(s, fraction)
	first, second, ok := obj.search(src)
	if ok && first.Width()+second.Width() < 0.99*single.Width() {
		return []model.Interval{first, second}, nil
	}
	return []model.Interval{single}, nil
}

// doubleIntervalLength is the objective for the two-interval search. The
// search variables are a continuous fraction f1 of the required count
// allocated to the first window, and integer start/gap offsets placing the
// two disjoint windows within the free space.
type doubleIntervalLength struct {
	sample    []float64 // sorted
	n, l      int
	space     int // n - l
	maxLength float64
}

func newDoubleIntervalLength(sorted []float64, fraction float64) *doubleIntervalLength {
	n := len(sorted)
	l := int(fraction * float64(n))
	return &doubleIntervalLength{
		sample:    sorted,
		n:         n,
		l:         l,
		space:     n - l,
		maxLength: sorted[n-1] - sorted[0],
	}
}

// length returns the summed width of the two windows, or the full sample span
// when the proposed placement is out of bounds or runs past the sample end.
// The penalty makes the surface discontinuous and non-convex, which the
// population-based optimizer tolerates; gradient methods would not.
func (d *doubleIntervalLength) length(params []float64) float64 {
	f1 := params[0]
	start := int(params[1])
	gap := int(params[2])

	if f1 < 0 || f1 > 1 || start < 0 || gap < 0 || start+gap > d.space-1 {
		return d.maxLength
	}

	w1 := int(f1 * float64(d.l))
	w2 := d.l - w1
	start2 := start + w1 + gap

	return (d.sample[start+w1] - d.sample[start]) + (d.sample[start2+w2] - d.sample[start2])
}

func (d *doubleIntervalLength) intervals(params []float64) (model.Interval, model.Interval) {
	f1 := params[0]
	start := int(params[1])
	gap := int(params[2])

	w1 := int(f1 * float64(d.l))
	w2 := d.l - w1
	start2 := start + w1 + gap

	first := model.Interval{Lower: d.sample[start], Upper: d.sample[start+w1]}
	second := model.Interval{Lower: d.sample[start2], Upper: d.sample[start2+w2]}
	return first, second
}

// search runs a CMA-ES global optimization over the discontinuous objective.
func (d *doubleIntervalLength) search(src rand.Source) (model.Interval, model.Interval, bool) {
	if d.space < 2 || d.l < 1 {
		return model.Interval{}, model.Interval{}, false
	}
	if src == nil {
		src = rand.NewSource(defaultSeed)
	}

	space := float64(d.space - 1)
	initX := []float64{0.5, 0.5 * space, 0.25 * space}
	method := &optimize.CmaEsChol{
		InitStepSize: math.Max(1, space/3),
		Population:   40,
		Src:          src,
	}
	problem := optimize.Problem{Func: d.length}

	// convergence failures are not fatal: the best point the optimizer
	// reached is still a candidate, and is only used when it beats the
	// single interval
	settings := &optimize.Settings{MajorIterations: 400}
	result, _ := optimize.Minimize(problem, initX, settings, method)
	if result == nil || len(result.X) != 3 {
		return model.Interval{}, model.Interval{}, false
	}

	if d.length(result.X) >= d.maxLength {
		return model.Interval{}, model.Interval{}, false
	}
	first, second := d.intervals(result.X)
	if second.Lower < first.Lower {
		first, second = second, first
	}
	return first, second, true
}
