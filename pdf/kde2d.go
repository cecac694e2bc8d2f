package pdf

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/inferkit/pdftools/common"
)

// KDE2D is a simple bivariate Gaussian kernel density estimate over two
// parallel sample sequences. There is no spatial acceleration; every kernel
// contributes to every evaluation.
type KDE2D struct {
	x, y []float64
	qx   float64 // 1 / (sqrt(2) sx)
	qy   float64 // 1 / (sqrt(2) sy)
	norm float64 // 1 / (n 2 pi sx sy)
}

// NewKDE2D fits a bivariate kernel estimate to the paired samples (x[i],
// y[i]). The per-axis bandwidths come from a correlation-adjusted
// rule-of-thumb on the sample covariance matrix.
func NewKDE2D(x, y []float64) (*KDE2D, error) {
	if len(x) != len(y) || len(x) < 2 {
		return nil, common.ErrorSampleTooSmall
	}

	n := len(x)
	data := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		data.Set(i, 0, x[i])
		data.Set(i, 1, y[i])
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	sxx, syy, sxy := cov.At(0, 0), cov.At(1, 1), cov.At(0, 1)
	rho := sxy / math.Sqrt(sxx*syy)
	scale := 1.06 * math.Pow(float64(n), -0.2)
	sx := scale * math.Sqrt(sxx*(1-rho*rho))
	sy := scale * math.Sqrt(syy*(1-rho*rho))
	if !(sx > 0) || !(sy > 0) || math.IsNaN(sx) || math.IsNaN(sy) {
		return nil, common.ErrorInvalidValue
	}

	return &KDE2D{
		x:    append([]float64(nil), x...),
		y:    append([]float64(nil), y...),
		qx:   1 / (math.Sqrt2 * sx),
		qy:   1 / (math.Sqrt2 * sy),
		norm: 1 / (float64(n) * 2 * math.Pi * sx * sy),
	}, nil
}

// Density evaluates the estimated joint PDF at (x, y).
func (k *KDE2D) Density(x, y float64) float64 {
	sum := 0.0
	for i := range k.x {
		zx := (k.x[i] - x) * k.qx
		zy := (k.y[i] - y) * k.qy
		sum += math.Exp(-zx*zx - zy*zy)
	}
	return k.norm * sum
}

// DensityEach returns Density(xs[i], ys[i]) for each i.
func (k *KDE2D) DensityEach(xs, ys []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, common.ErrorInvalidValue
	}
	res := make([]float64, len(xs))
	for i := range xs {
		res[i] = k.Density(xs[i], ys[i])
	}
	return res, nil
}
