package services

import (
	"context"
	"math"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// CorrelationService computes pairwise Pearson correlation between two
// metric series extracted from the ledger.
type CorrelationService struct {
	ledger domain.LedgerRepository
}

func NewCorrelationService(ledger domain.LedgerRepository) *CorrelationService {
	return &CorrelationService{ledger: ledger}
}

// Correlate pairs the two named metrics over [from, to]. Only days where
// both extractors produce a value enter the sample.
func (s *CorrelationService) Correlate(ctx context.Context, userID, xMetric, yMetric, from, to string) (*domain.CorrelationResult, error) {
	xExtract, ok := domain.Extractors[xMetric]
	if !ok {
		return nil, domain.ErrUnknownMetric
	}
	yExtract, ok := domain.Extractors[yMetric]
	if !ok {
		return nil, domain.ErrUnknownMetric
	}
	if _, err := domain.ParseDay(from); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDay(to); err != nil {
		return nil, err
	}

	logs, err := s.ledger.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return Correlate(logs, xMetric, yMetric, xExtract, yExtract), nil
}

// Correlate is the pure Pearson product-moment computation. Samples below
// the minimum size, or series without variance, yield a nil coefficient
// with the true sample size; a fabricated zero would be a lie.
func Correlate(logs []*domain.DailyLog, xLabel, yLabel string, xExtract, yExtract domain.MetricExtractor) *domain.CorrelationResult {
	var xs, ys []float64
	for _, l := range logs {
		if l.SupersededAt != nil {
			continue
		}
		x, okX := xExtract(l)
		y, okY := yExtract(l)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	result := &domain.CorrelationResult{
		XLabel:     xLabel,
		YLabel:     yLabel,
		SampleSize: len(xs),
	}

	if len(xs) < domain.MinCorrelationSample {
		result.Strength = domain.StrengthLabel(nil)
		return result
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))

	if denominator == 0 {
		result.Strength = domain.StrengthLabel(nil)
		return result
	}

	r := numerator / denominator
	result.Coefficient = &r
	result.Strength = domain.StrengthLabel(&r)
	return result
}
