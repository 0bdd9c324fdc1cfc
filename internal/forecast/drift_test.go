package forecast

import (
	"testing"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/stretchr/testify/assert"
)

func backtestPoints(n int, actual, predicted float64) []domain.BacktestPoint {
	points := make([]domain.BacktestPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, domain.BacktestPoint{
			Date:           day(i),
			ActualUnits:    actual,
			PredictedUnits: predicted,
		})
	}
	return points
}

func TestDetectDriftFlagsDegradedAccuracy(t *testing.T) {
	// 18% error against a 12% threshold.
	points := backtestPoints(30, 100, 82)

	report := DetectDrift(points, 14, 0.12)

	assert.True(t, report.Flag)
	assert.Equal(t, 14, report.WindowDays)
	assert.InDelta(t, 0.18, report.MAPE, 0.001)
	assert.InDelta(t, 18.0, report.MAE, 0.001)
}

func TestDetectDriftHealthyModel(t *testing.T) {
	points := backtestPoints(30, 100, 95)

	report := DetectDrift(points, 14, 0.12)

	assert.False(t, report.Flag)
	assert.InDelta(t, 0.05, report.MAPE, 0.001)
}

func TestDetectDriftUsesRecentWindowOnly(t *testing.T) {
	// Accurate early, bad in the last 14 days. The trailing window must see
	// only the bad stretch.
	points := append(backtestPoints(16, 100, 100), backtestPoints(14, 100, 70)...)

	report := DetectDrift(points, 14, 0.12)

	assert.True(t, report.Flag)
	assert.InDelta(t, 0.30, report.MAPE, 0.001)
}

func TestDetectDriftShortBacktest(t *testing.T) {
	points := backtestPoints(5, 50, 50)

	report := DetectDrift(points, 14, 0.12)

	assert.False(t, report.Flag)
	assert.Equal(t, 0.0, report.MAPE)
}

func TestDetectDriftEmptyBacktest(t *testing.T) {
	report := DetectDrift(nil, 14, 0.12)
	assert.False(t, report.Flag)
}
