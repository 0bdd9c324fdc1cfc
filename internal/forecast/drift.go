package forecast

import "github.com/andresuchdata/restock-planner/internal/domain"

// DetectDrift computes MAE/MAPE over only the most recent windowDays of the
// backtest and flags when MAPE exceeds the threshold. Backtests shorter than
// the window are used as-is; metrics are still reported.
func DetectDrift(backtest []domain.BacktestPoint, windowDays int, threshold float64) domain.DriftReport {
	if windowDays <= 0 {
		windowDays = 14
	}

	start := len(backtest) - windowDays
	if start < 0 {
		start = 0
	}
	window := backtest[start:]

	mae, mape := accuracy(window)
	return domain.DriftReport{
		Flag:       mape > threshold,
		WindowDays: windowDays,
		MAE:        mae,
		MAPE:       mape,
		Threshold:  threshold,
	}
}
