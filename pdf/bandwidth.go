package pdf

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// simpleBandwidth is the rule-of-thumb estimate 1.06*sigma*n^-0.2, which
// assumes the distribution is close to a Gaussian.
func simpleBandwidth(s []float64) float64 {
	return 1.06 * stat.StdDev(s, nil) * math.Pow(float64(len(s)), -0.2)
}

// crossValidationBandwidth selects the bandwidth by maximising the
// leave-one-out cross-validation log-probability over a log-bandwidth grid.
// The grid starts as 5 points spaced 0.5 apart around the rule-of-thumb
// estimate, is extended outward while the maximum sits on an edge, and is
// then refined by repeatedly inserting midpoints next to the current best,
// assuming the CV curve has a single maximum.
//
// The sample is subsampled to maxCVSamples using src when larger, since the
// cost grows quadratically with the number of samples used.
func crossValidationBandwidth(s []float64, initialH float64, maxCVSamples int, src rand.Source) float64 {
	samples := s
	if len(s) > maxCVSamples {
		rng := rand.New(src)
		perm := rng.Perm(len(s))
		sub := make([]float64, maxCVSamples)
		for i := range sub {
			sub[i] = s[perm[i]]
		}
		samples = sub
	}

	const dh = 0.5
	logH := make([]float64, 0, 24)
	logP := make([]float64, 0, 24)
	for m := -2; m <= 2; m++ {
		logH = append(logH, math.Log(initialH)+float64(m)*dh)
	}
	for _, lh := range logH {
		logP = append(logP, crossValidationLogProb(samples, math.Exp(lh)))
	}

	// extend the grid while the maximum log-probability sits on an edge
	for i := 0; i < 5; i++ {
		maxIdx := floats.MaxIdx(logP)
		if maxIdx > 0 && maxIdx < len(logH)-1 {
			break
		}
		if maxIdx == 0 {
			newH := logH[0] - dh
			logH = insertAt(logH, 0, newH)
			logP = insertAt(logP, 0, crossValidationLogProb(samples, math.Exp(newH)))
		} else {
			newH := logH[len(logH)-1] + dh
			logH = append(logH, newH)
			logP = append(logP, crossValidationLogProb(samples, math.Exp(newH)))
		}
	}

	// each CV evaluation is expensive, so refine by bisection around the
	// current best rather than scanning a dense grid
	for r := 0; r < 6; r++ {
		maxIdx := floats.MaxIdx(logP)
		if maxIdx == 0 || maxIdx == len(logH)-1 {
			break
		}
		lwrH := 0.5 * (logH[maxIdx-1] + logH[maxIdx])
		uprH := 0.5 * (logH[maxIdx] + logH[maxIdx+1])

		lwrP := crossValidationLogProb(samples, math.Exp(lwrH))
		uprP := crossValidationLogProb(samples, math.Exp(uprH))

		logH = insertAt(logH, maxIdx, lwrH)
		logP = insertAt(logP, maxIdx, lwrP)
		logH = insertAt(logH, maxIdx+2, uprH)
		logP = insertAt(logP, maxIdx+2, uprP)
	}

	return math.Exp(logH[floats.MaxIdx(logP)])
}

// crossValidationLogProb sums, over the sample, the log-density predicted
// for each point when it is left out of its own estimate. The self-kernel
// contribution is removed in log space to avoid underflow.
func crossValidationLogProb(samples []float64, width float64) float64 {
	const c = 0.99
	logPdf := logEvaluation(samples, samples, width)
	base := math.Log(c) - math.Log(width*float64(len(samples))*math.Sqrt(2*math.Pi))
	total := 0.0
	for _, lp := range logPdf {
		d := base - lp
		total += lp + math.Log(1-math.Exp(d))
	}
	return total
}

func logKernel(x, center, h float64) float64 {
	z := (x - center) / h
	return -0.5*z*z - math.Log(h)
}

// logEvaluation returns the log of the kernel density estimate at each of
// the given points, computed with a log-sum-exp reduction so that extremely
// small densities never collapse to zero.
func logEvaluation(points, samples []float64, width float64) []float64 {
	res := make([]float64, len(points))
	for i := range res {
		res[i] = math.Inf(-1)
	}
	for _, s := range samples {
		for i, p := range points {
			res[i] = logAddExp(res[i], logKernel(p, s, width))
		}
	}
	shift := math.Log(float64(len(samples)) * math.Sqrt(2*math.Pi))
	for i := range res {
		res[i] -= shift
	}
	return res
}
