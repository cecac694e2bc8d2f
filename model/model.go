package model

import "math"

// Interval is a closed interval on the real line.
type Interval struct {
	Lower float64 `json:"l"`
	Upper float64 `json:"u"`
}

func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

func (i Interval) Contains(x float64) bool {
	return x >= i.Lower && x <= i.Upper
}

// Moments holds the first four standardised moments of an estimated PDF.
type Moments struct {
	Mean       float64 `json:"mean"`
	Variance   float64 `json:"var"`
	Skewness   float64 `json:"skew"`
	ExKurtosis float64 `json:"ex_kurtosis"`
}

func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance)
}

// DensitySummary collects the headline statistics of a fitted density
// estimate: the mode, the moments, and the 1/2/3-sigma highest-density
// intervals. A reporting or plotting layer renders it; this package only
// fills in the numbers.
type DensitySummary struct {
	Mode    float64    `json:"mode"`
	Moments Moments    `json:"moments"`
	Sigma1  []Interval `json:"sigma_1"`
	Sigma2  []Interval `json:"sigma_2"`
	Sigma3  []Interval `json:"sigma_3"`
}
