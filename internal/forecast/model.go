package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// Prediction is the raw output of a fitted model before the forecaster layers
// backtests, bounds and intelligence on top.
type Prediction struct {
	Points      []domain.ForecastPoint
	Fitted      map[time.Time]float64 // in-sample prediction per history date
	Level       float64               // trend-adjusted daily level at data end
	Slope       float64               // units/day trend
	ResidualStd float64
}

// SeasonalModel is the swappable estimator contract. Alternative models can be
// plugged in without touching the override, drift or recommendation layers.
type SeasonalModel interface {
	Name() string
	FitPredict(series domain.DemandSeries, horizonDays int) Prediction
}

const (
	outlierMADFactor = 3.0
	levelWindowDays  = 28
)

// WeeklySeasonalModel decomposes a daily series into a level/trend component
// and day-of-week multipliers derived from historical averages. Extreme
// single-day spikes are clipped to a robust bound before fitting so one
// anomalous day does not dominate the seasonal profile.
type WeeklySeasonalModel struct{}

func NewWeeklySeasonalModel() *WeeklySeasonalModel {
	return &WeeklySeasonalModel{}
}

func (m *WeeklySeasonalModel) Name() string {
	return "weekly_seasonal_v1"
}

func (m *WeeklySeasonalModel) FitPredict(series domain.DemandSeries, horizonDays int) Prediction {
	pred := Prediction{
		Fitted: make(map[time.Time]float64, len(series.Points)),
	}
	n := len(series.Points)
	if n == 0 {
		return pred
	}

	clipped := clipOutliers(series.Points)

	values := make([]float64, n)
	for i, p := range clipped {
		values[i] = p.Units
	}
	overallMean := mean(values)

	factors := weekdayFactors(clipped, overallMean)
	pred.Slope = trendSlope(values)

	// Level anchored at the last data day: recent average plus the trend
	// distance from the window midpoint.
	levelWindow := values
	if n > levelWindowDays {
		levelWindow = values[n-levelWindowDays:]
	}
	pred.Level = math.Max(0, mean(levelWindow)+pred.Slope*float64(len(levelWindow))/2)

	end := series.End()
	for i, p := range series.Points {
		daysFromEnd := float64(i - (n - 1)) // negative in history
		fitted := (pred.Level + pred.Slope*daysFromEnd) * factors[p.Date.Weekday()]
		pred.Fitted[p.Date] = math.Max(0, fitted)
	}

	var residuals []float64
	for _, p := range series.Points {
		residuals = append(residuals, p.Units-pred.Fitted[p.Date])
	}
	pred.ResidualStd = stdDev(residuals)

	for i := 1; i <= horizonDays; i++ {
		date := end.AddDate(0, 0, i)
		units := (pred.Level + pred.Slope*float64(i)) * factors[date.Weekday()]
		pred.Points = append(pred.Points, domain.ForecastPoint{
			Date:  date,
			Units: math.Max(0, units),
		})
	}

	return pred
}

// clipOutliers caps values beyond median + k*MAD. Only the high side is
// clipped; zero-demand days are real signal.
func clipOutliers(points []domain.DemandPoint) []domain.DemandPoint {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Units
	}
	med := median(values)
	mad := medianAbsDeviation(values)
	if mad == 0 {
		return points
	}

	upper := med + outlierMADFactor*mad
	clipped := make([]domain.DemandPoint, len(points))
	copy(clipped, points)
	for i := range clipped {
		if clipped[i].Units > upper {
			clipped[i].Units = upper
		}
	}
	return clipped
}

// weekdayFactors returns the per-weekday demand multiplier relative to the
// overall mean. Weekdays without data, or a zero overall mean, fall back to 1.
func weekdayFactors(points []domain.DemandPoint, overallMean float64) map[time.Weekday]float64 {
	factors := make(map[time.Weekday]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		factors[d] = 1.0
	}
	if overallMean <= 0 {
		return factors
	}

	byWeekday := make(map[time.Weekday][]float64, 7)
	for _, p := range points {
		byWeekday[p.Date.Weekday()] = append(byWeekday[p.Date.Weekday()], p.Units)
	}
	for d, values := range byWeekday {
		factors[d] = mean(values) / overallMean
	}
	return factors
}

// trendSlope estimates units/day drift by comparing the most recent third of
// history against the earliest third.
func trendSlope(values []float64) float64 {
	n := len(values)
	third := n / 3
	if third == 0 {
		return 0
	}

	earlyAvg := mean(values[:third])
	lateAvg := mean(values[n-third:])

	return (lateAvg - earlyAvg) / float64(n-third)
}
