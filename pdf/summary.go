package pdf

import (
	"context"

	"go.uber.org/zap"

	"github.com/inferkit/pdftools/common"
	"github.com/inferkit/pdftools/model"
	"github.com/inferkit/pdftools/utils"
)

// the conventional 1/2/3-sigma probability fractions
const (
	sigma1Frac = 0.68268
	sigma2Frac = 0.95449
	sigma3Frac = 0.9973
)

// Summarize collects the headline statistics of a fitted estimator: mode,
// moments, and the 1/2/3-sigma highest-density intervals. Rendering is left
// to the caller.
func Summarize(e Estimator) (*model.DensitySummary, error) {
	s1, err := e.Interval(sigma1Frac)
	if err != nil {
		return nil, err
	}
	s2, err := e.Interval(sigma2Frac)
	if err != nil {
		return nil, err
	}
	s3, err := e.Interval(sigma3Frac)
	if err != nil {
		return nil, err
	}
	return &model.DensitySummary{
		Mode:    e.Mode(),
		Moments: e.Moments(),
		Sigma1:  s1,
		Sigma2:  s2,
		Sigma3:  s3,
	}, nil
}

// EstimateDensitySummary fits a GaussianKDE to the sample and reports its
// summary statistics, logging failures instead of propagating panics from
// degenerate inputs.
func EstimateDensitySummary(ctx context.Context, sample []float64, cfg KDEConfig) (res *model.DensitySummary, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("EstimateDensitySummary recovered from panic", zap.Any("err", r),
				zap.String("panic info", utils.GetPanicInfo()), zap.Int("sampleSize", len(sample)))
			res, err = nil, common.ErrorInvalidValue
		}
	}()

	kde, err := NewGaussianKDE(sample, cfg)
	if err != nil {
		logger.Error("NewGaussianKDE failed", zap.Error(err), zap.Int("sampleSize", len(sample)))
		return nil, err
	}

	summary, err := Summarize(kde)
	if err != nil {
		logger.Error("Summarize failed", zap.Error(err))
		return nil, err
	}
	return summary, nil
}
