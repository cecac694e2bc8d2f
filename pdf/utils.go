package pdf

import (
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/inferkit/pdftools/model"
)

func linspace(start, stop float64, num int) []float64 {
	if num < 2 {
		return []float64{start}
	}
	step := (stop - start) / float64(num-1)
	grid := make([]float64, num)
	for i := 0; i < num; i++ {
		grid[i] = start + float64(i)*step
	}
	return grid
}

// logAddExp returns log(exp(a) + exp(b)) without overflow or underflow.
func logAddExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}

func insertAt(s []float64, i int, v float64) []float64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// goldenMinimize locates the minimum of f on [lower, upper] by
// golden-section search.
func goldenMinimize(f func(float64) float64, lower, upper, tol float64) float64 {
	const invPhi = 0.6180339887498949
	a, b := lower, upper
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for b-a > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return 0.5 * (a + b)
}

// momentsFromDensity integrates x·p(x), (x-mu)²p(x), etc. with Simpson's
// rule over [lower, upper] sampled at 1000 points.
func momentsFromDensity(density func(float64) float64, lower, upper float64) model.Moments {
	const points = 1000
	xs := linspace(lower, upper, points)
	p := make([]float64, points)
	for i, x := range xs {
		p[i] = density(x)
	}

	f := make([]float64, points)
	for i := range xs {
		f[i] = p[i] * xs[i]
	}
	mu := integrate.Simpsons(xs, f)

	for i := range xs {
		d := xs[i] - mu
		f[i] = p[i] * d * d
	}
	variance := integrate.Simpsons(xs, f)

	for i := range xs {
		d := xs[i] - mu
		f[i] = p[i] * d * d * d
	}
	skew := integrate.Simpsons(xs, f) / math.Pow(variance, 1.5)

	for i := range xs {
		d := xs[i] - mu
		d2 := d * d
		f[i] = p[i] * d2 * d2
	}
	kurtosis := integrate.Simpsons(xs, f)/(variance*variance) - 3

	return model.Moments{Mean: mu, Variance: variance, Skewness: skew, ExKurtosis: kurtosis}
}
