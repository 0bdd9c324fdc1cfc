package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// mapeEpsilon guards MAPE against zero-demand days.
const mapeEpsilon = 1.0

// Config tunes the forecaster. Zero values fall back to defaults.
type Config struct {
	BacktestWindowDays     int     // trailing accuracy window, default 30
	MinSeasonalHistoryDays int     // below this, trend is insufficient_data; default 14
	TrendChangeThreshold   float64 // relative change to call a trend, default 0.15
	BoundZ                 float64 // z used for confidence bounds, default 1.645 (90%)
}

func (c Config) withDefaults() Config {
	if c.BacktestWindowDays <= 0 {
		c.BacktestWindowDays = 30
	}
	if c.MinSeasonalHistoryDays <= 0 {
		c.MinSeasonalHistoryDays = 14
	}
	if c.TrendChangeThreshold <= 0 {
		c.TrendChangeThreshold = 0.15
	}
	if c.BoundZ <= 0 {
		c.BoundZ = 1.645
	}
	return c
}

// Output is the full result of one forecast computation.
type Output struct {
	ModelName      string
	DataEndDate    time.Time
	BacktestPoints []domain.BacktestPoint
	ForecastPoints []domain.ForecastPoint
	Bounds         []domain.ConfidenceBound
	Intelligence   domain.ForecastIntelligence
	MAE30d         float64
	MAPE30d        float64
	ResidualStd    float64
}

// Forecaster wraps a seasonal model with backtesting, confidence bounds and
// summary intelligence. It is pure: identical inputs yield identical output.
type Forecaster struct {
	model SeasonalModel
	cfg   Config
}

func NewForecaster(model SeasonalModel, cfg Config) *Forecaster {
	if model == nil {
		model = NewWeeklySeasonalModel()
	}
	return &Forecaster{model: model, cfg: cfg.withDefaults()}
}

// Forecast produces one point per day in (dataEnd, dataEnd+horizonDays], a
// backtest over the trailing window, and bounds per forecast point. The
// backtest window is independent of horizonDays and always ends at the last
// day with real data.
func (f *Forecaster) Forecast(series domain.DemandSeries, horizonDays int) (Output, error) {
	if horizonDays < 1 {
		return Output{}, domain.NewValidationError("horizon_days", "must be at least 1")
	}

	out := Output{ModelName: f.model.Name()}
	if len(series.Points) == 0 {
		out.Intelligence = domain.ForecastIntelligence{
			Trend:      domain.TrendInsufficientData,
			Confidence: domain.ConfidenceLow,
		}
		return out, nil
	}

	pred := f.model.FitPredict(series, horizonDays)
	out.DataEndDate = series.End()
	out.ForecastPoints = pred.Points
	out.ResidualStd = pred.ResidualStd

	out.BacktestPoints = f.backtest(series, pred)
	out.MAE30d, out.MAPE30d = accuracy(out.BacktestPoints)
	out.Bounds = f.bounds(pred)
	out.Intelligence = f.intelligence(series, pred)

	return out, nil
}

func (f *Forecaster) backtest(series domain.DemandSeries, pred Prediction) []domain.BacktestPoint {
	n := len(series.Points)
	start := n - f.cfg.BacktestWindowDays
	if start < 0 {
		start = 0
	}

	points := make([]domain.BacktestPoint, 0, n-start)
	for _, p := range series.Points[start:] {
		points = append(points, domain.BacktestPoint{
			Date:           p.Date,
			ActualUnits:    p.Units,
			PredictedUnits: pred.Fitted[p.Date],
		})
	}
	return points
}

// accuracy computes MAE and epsilon-guarded MAPE over backtest points.
func accuracy(points []domain.BacktestPoint) (mae, mape float64) {
	if len(points) == 0 {
		return 0, 0
	}
	var absSum, pctSum float64
	for _, p := range points {
		absErr := math.Abs(p.ActualUnits - p.PredictedUnits)
		absSum += absErr
		pctSum += absErr / math.Max(p.ActualUnits, mapeEpsilon)
	}
	n := float64(len(points))
	return absSum / n, pctSum / n
}

// bounds derives per-point confidence bounds from the residual distribution,
// widened with horizon distance so uncertainty grows further out.
func (f *Forecaster) bounds(pred Prediction) []domain.ConfidenceBound {
	bounds := make([]domain.ConfidenceBound, 0, len(pred.Points))
	for i, p := range pred.Points {
		margin := f.cfg.BoundZ * pred.ResidualStd * math.Sqrt(1+float64(i)/7.0)
		bounds = append(bounds, domain.ConfidenceBound{
			Date:           p.Date,
			PredictedUnits: p.Units,
			Lower:          math.Max(0, p.Units-margin),
			Upper:          p.Units + margin,
		})
	}
	return bounds
}

func (f *Forecaster) intelligence(series domain.DemandSeries, pred Prediction) domain.ForecastIntelligence {
	values := make([]float64, len(series.Points))
	var allZero = true
	for i, p := range series.Points {
		values[i] = p.Units
		if p.Units != 0 {
			allZero = false
		}
	}

	var forecastUnits []float64
	for _, p := range pred.Points {
		forecastUnits = append(forecastUnits, p.Units)
	}
	estimate := mean(forecastUnits)

	m := mean(values)
	var cv float64
	if m > 0 {
		cv = stdDev(values) / m
	}

	intel := domain.ForecastIntelligence{
		Trend:               f.trend(values),
		Confidence:          f.confidence(len(values), cv, allZero),
		DailyDemandEstimate: estimate,
		VolatilityCV:        cv,
		ForecastRange: domain.ForecastRange{
			Low:      math.Max(0, estimate-pred.ResidualStd),
			Expected: estimate,
			High:     estimate + pred.ResidualStd,
		},
	}
	if intel.ForecastRange.Low > intel.ForecastRange.Expected {
		intel.ForecastRange.Low = intel.ForecastRange.Expected
	}
	return intel
}

// trend compares the mean of the most recent third of history against the
// earliest third and flags a direction beyond the relative-change threshold.
func (f *Forecaster) trend(values []float64) domain.TrendDirection {
	if len(values) < f.cfg.MinSeasonalHistoryDays {
		return domain.TrendInsufficientData
	}

	third := len(values) / 3
	earlyAvg := mean(values[:third])
	lateAvg := mean(values[len(values)-third:])

	change := (lateAvg - earlyAvg) / math.Max(earlyAvg, mapeEpsilon)
	switch {
	case change > f.cfg.TrendChangeThreshold:
		return domain.TrendIncreasing
	case change < -f.cfg.TrendChangeThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// confidence downgrades with higher volatility and shorter history.
func (f *Forecaster) confidence(historyDays int, cv float64, allZero bool) domain.ConfidenceLevel {
	if allZero || historyDays < f.cfg.MinSeasonalHistoryDays {
		return domain.ConfidenceLow
	}
	if historyDays >= 56 && cv < 0.35 {
		return domain.ConfidenceHigh
	}
	if cv < 0.90 {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}
