package pdf

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/inferkit/pdftools/common"
	"github.com/inferkit/pdftools/model"
)

const (
	// chebNodes is the fixed size of the quadrature rule used for
	// normalisation integrals; it is independent of the sample size.
	chebNodes = 128
	chebSD    = 0.2

	// fitSampleCutoff triggers the two-phase fit: samples larger than this
	// are fitted first on an evenly-strided slice, then refitted on the
	// full sample starting from that solution.
	fitSampleCutoff = 2000

	// invalidLogPosterior is returned for parameter vectors violating the
	// prior constraints, steering the optimizer away without failing.
	invalidLogPosterior = -1e50
)

// UnimodalPdf fits a flexible six-parameter density family to a sample by
// MAP optimization. The family is a generalised Student-t with an asymmetric
// tail-stretching term: with parameters (x0, s0, v, f, k, q) and
// v' = exp(v)+1, z0 = (x-x0)/s0, z = z0/exp(f*tanh(z0/k)), the unnormalised
// log-density is -0.5*(1+v')*log(1 + |z|^q / v').
type UnimodalPdf struct {
	sample []float64
	x      []float64 // sample slice used for fitting
	n      int

	u, w []float64 // Chebyshev quadrature nodes and weights

	theta      []float64 // fitted MAP parameter vector
	mapLogNorm float64
	mode       float64
	lwrLimit   float64
	uprLimit   float64
}

// NewUnimodalPdf fits the density family to the sample and returns the
// resulting estimator. The sample is copied; fitting is eager and the
// returned estimator is immutable.
func NewUnimodalPdf(sample []float64) (*UnimodalPdf, error) {
	if len(sample) < 2 {
		return nil, common.ErrorSampleTooSmall
	}

	p := &UnimodalPdf{sample: append([]float64(nil), sample...)}

	// Chebyshev nodes mapped onto the real line through u = t/(1-t^2), with
	// weights absorbing the substitution's Jacobian
	p.u = make([]float64, chebNodes)
	p.w = make([]float64, chebNodes)
	for i := 0; i < chebNodes; i++ {
		kk := float64(i + 1)
		t := math.Cos(0.5 * math.Pi * (2*kk - 1) / chebNodes)
		p.u[i] = t / (1 - t*t)
		p.w[i] = (math.Pi / chebNodes) * (1 + t*t) / (chebSD * math.Pow(1-t*t, 1.5))
	}

	// fit on an evenly-strided slice first if the sample is large
	skip := len(p.sample) / fitSampleCutoff
	if skip == 0 {
		skip = 1
	}
	p.x = stride(p.sample, skip)
	p.n = len(p.x)

	mu, sig, skew := p.sampleMoments()
	if !(sig > 0) || math.IsNaN(sig) {
		return nil, common.ErrorInvalidValue
	}

	guesses := generateGuesses(mu, sig, skew)
	best := guesses[0]
	bestScore := p.negPosterior(best)
	for _, g := range guesses[1:] {
		if sc := p.negPosterior(g); sc < bestScore {
			best, bestScore = g, sc
		}
	}
	p.theta = p.nelderMead(best)

	if skip > 1 {
		p.x = p.sample
		p.n = len(p.sample)
		p.theta = p.nelderMead(p.theta)
	}

	p.mode = p.theta[0]
	p.mapLogNorm = math.Log(p.norm(p.theta))

	x0, s0, f := p.theta[0], p.theta[1], p.theta[3]
	p.uprLimit = x0 + s0*(4*math.Exp(f)+1)
	p.lwrLimit = x0 - s0*(4*math.Exp(-f)+1)
	return p, nil
}

func stride(s []float64, skip int) []float64 {
	if skip <= 1 {
		return s
	}
	out := make([]float64, 0, len(s)/skip+1)
	for i := 0; i < len(s); i += skip {
		out = append(out, s[i])
	}
	return out
}

// generateGuesses builds candidate starting points as the cartesian product
// of moment-derived guesses for each parameter.
func generateGuesses(mu, sig, skew float64) [][]float64 {
	x0 := []float64{mu, mu - sig*skew*0.15, mu - sig*skew*0.3}
	s0 := []float64{sig, sig * 2}
	v := []float64{0, 5}
	f := []float64{0.5 * skew, skew}
	k := []float64{1, 4, 8}
	q := []float64{2}

	guesses := make([][]float64, 0, len(x0)*len(s0)*len(v)*len(f)*len(k)*len(q))
	for _, a := range x0 {
		for _, b := range s0 {
			for _, c := range v {
				for _, d := range f {
					for _, e := range k {
						for _, g := range q {
							guesses = append(guesses, []float64{a, b, c, d, e, g})
						}
					}
				}
			}
		}
	}
	return guesses
}

func (p *UnimodalPdf) sampleMoments() (mu, sig, skew float64) {
	var m1, m2, m3 float64
	for _, x := range p.x {
		m1 += x
		m2 += x * x
		m3 += x * x * x
	}
	nf := float64(p.n)
	m1, m2, m3 = m1/nf, m2/nf, m3/nf
	mu = m1
	sig = math.Sqrt(m2 - mu*mu)
	skew = (m3 - 3*mu*sig*sig - mu*mu*mu) / (sig * sig * sig)
	return mu, sig, skew
}

// posterior is the constrained log-posterior of a parameter vector: the
// per-sample log-density sum minus n*log(normalizer). Vectors violating the
// prior bounds s0 > 0, 0 < k < 20, 1 < q < 6 return a large negative
// sentinel instead of an error.
func (p *UnimodalPdf) posterior(theta []float64) float64 {
	s0, k, q := theta[1], theta[4], theta[5]
	if !(s0 > 0 && k > 0 && k < 20 && q > 1 && q < 6) {
		return invalidLogPosterior
	}
	total := 0.0
	for _, x := range p.x {
		total += logPdfModel(x, theta)
	}
	return total - float64(p.n)*math.Log(p.norm(theta))
}

func (p *UnimodalPdf) negPosterior(theta []float64) float64 {
	return -p.posterior(theta)
}

func (p *UnimodalPdf) nelderMead(initial []float64) []float64 {
	// convergence failures surface as the best point the optimizer reached
	problem := optimize.Problem{Func: p.negPosterior}
	result, _ := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if result == nil || len(result.X) != len(initial) {
		return initial
	}
	return result.X
}

// norm integrates the unnormalised density over the real line with the fixed
// Chebyshev rule, evaluated in a standardised frame and rescaled by s0.
func (p *UnimodalPdf) norm(theta []float64) float64 {
	shifted := []float64{0, chebSD, theta[2], theta[3], theta[4], theta[5]}
	integral := 0.0
	for i, ui := range p.u {
		integral += p.w[i] * math.Exp(logPdfModel(ui, shifted))
	}
	return integral * theta[1]
}

func logPdfModel(x float64, theta []float64) float64 {
	x0, s0, v, f, k, q := theta[0], theta[1], theta[2], theta[3], theta[4], theta[5]
	vp := math.Exp(v) + 1
	z0 := (x - x0) / s0
	ds := math.Exp(f * math.Tanh(z0/k))
	z := z0 / ds
	return -0.5 * (1 + vp) * math.Log(1+math.Pow(math.Abs(z), q)/vp)
}

// Density evaluates the fitted PDF at x.
func (p *UnimodalPdf) Density(x float64) float64 {
	return math.Exp(logPdfModel(x, p.theta) - p.mapLogNorm)
}

// DensityEach returns Density(xs[i]) for each i.
func (p *UnimodalPdf) DensityEach(xs []float64) []float64 {
	res := make([]float64, len(xs))
	for i, x := range xs {
		res[i] = p.Density(x)
	}
	return res
}

// Params returns a copy of the fitted parameter vector (x0, s0, v, f, k, q).
func (p *UnimodalPdf) Params() []float64 {
	return append([]float64(nil), p.theta...)
}

// Mode returns the fitted location parameter.
func (p *UnimodalPdf) Mode() float64 {
	return p.mode
}

// SupportBounds returns limits derived from the fitted scale and asymmetry
// parameters, outside which the density is negligible.
func (p *UnimodalPdf) SupportBounds() (lower, upper float64) {
	return p.lwrLimit, p.uprLimit
}

// Moments returns the mean, variance, skewness and excess kurtosis of the
// fitted PDF. The integration window is placed asymmetrically around the
// mode using the fitted asymmetry parameter.
func (p *UnimodalPdf) Moments() model.Moments {
	s := p.theta[1]
	f := p.theta[3]
	lwr := p.mode - 5*math.Max(math.Exp(-f), 1)*s
	upr := p.mode + 5*math.Max(math.Exp(f), 1)*s
	return momentsFromDensity(p.Density, lwr, upr)
}

// Interval returns the highest-density interval containing the given
// fraction of total probability. There is no closed form, so it is found by
// binary search over the density threshold.
func (p *UnimodalPdf) Interval(frac float64) ([]model.Interval, error) {
	search := &levelSearch{
		density:  p.Density,
		mode:     p.mode,
		lwrLimit: p.lwrLimit,
		uprLimit: p.uprLimit,
	}
	iv, err := search.interval(frac)
	if err != nil {
		return nil, err
	}
	return []model.Interval{iv}, nil
}
