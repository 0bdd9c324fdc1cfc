package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/restock-planner/internal/cache"
	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/forecast"
	"github.com/andresuchdata/restock-planner/internal/repository"
	"github.com/rs/zerolog/log"
)

// ForecastQuery selects one forecast computation. An empty SKU requests the
// marketplace-wide total (all series summed before forecasting). Zero
// HistoryDays/HorizonDays fall back to the engine defaults.
type ForecastQuery struct {
	SKU             string
	Marketplace     string
	HistoryDays     int
	HorizonDays     int
	IncludeUnmapped bool
	AsOf            time.Time
}

type ForecastService struct {
	demand     repository.DemandSource
	overrides  repository.OverrideStore
	cache      cache.ForecastCache
	forecaster *forecast.Forecaster
	cfg        config.EngineConfig
}

func NewForecastService(demand repository.DemandSource, overrides repository.OverrideStore, cacheImpl cache.ForecastCache, cfg config.EngineConfig) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	forecaster := forecast.NewForecaster(nil, forecast.Config{
		BacktestWindowDays: cfg.BacktestWindowDays,
	})
	return &ForecastService{
		demand:     demand,
		overrides:  overrides,
		cache:      cacheImpl,
		forecaster: forecaster,
		cfg:        cfg,
	}
}

// ComputeForecast runs the full pipeline for one scope: quality gate, seasonal
// model, owner overrides, drift check. Results are recomputed from current
// inputs; the cache only short-circuits identical requests within the TTL.
func (s *ForecastService) ComputeForecast(ctx context.Context, q ForecastQuery) (*domain.ForecastResult, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	key := cache.ForecastKey{
		SKU:             q.SKU,
		Marketplace:     q.Marketplace,
		HistoryDays:     q.HistoryDays,
		HorizonDays:     q.HorizonDays,
		IncludeUnmapped: q.IncludeUnmapped,
		AsOf:            q.AsOf,
	}
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("sku", q.SKU).Msg("forecast: cache get failed")
	}

	result, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Warn().Err(err).Str("sku", q.SKU).Msg("forecast: cache set failed")
	}

	return result, nil
}

func (s *ForecastService) normalize(q ForecastQuery) (ForecastQuery, error) {
	if q.Marketplace == "" {
		return q, domain.NewValidationError("marketplace", "must be provided")
	}
	if q.HistoryDays == 0 {
		q.HistoryDays = s.cfg.HistoryDays
	}
	if q.HistoryDays < 1 {
		return q, domain.NewValidationError("history_days", "must be at least 1")
	}
	if q.HorizonDays == 0 {
		q.HorizonDays = s.cfg.HorizonDays
	}
	if q.HorizonDays < 1 {
		return q, domain.NewValidationError("horizon_days", "must be at least 1")
	}
	if q.AsOf.IsZero() {
		q.AsOf = time.Now().UTC()
	}
	q.AsOf = q.AsOf.UTC().Truncate(24 * time.Hour)
	return q, nil
}

func (s *ForecastService) compute(ctx context.Context, q ForecastQuery) (*domain.ForecastResult, error) {
	from := q.AsOf.AddDate(0, 0, -q.HistoryDays)
	rows, err := s.demand.DailyDemand(ctx, q.Marketplace, q.SKU, from, q.AsOf)
	if err != nil {
		return nil, fmt.Errorf("fetch daily demand: %w", err)
	}

	gateCfg := forecast.GateConfig{
		IncludeUnmapped:  q.IncludeUnmapped,
		WarnShare30d:     s.cfg.UnmappedWarnShare,
		CriticalShare30d: s.cfg.UnmappedCriticalShare,
	}
	series, quality := forecast.CleanSeries(rows, q.SKU, q.Marketplace, gateCfg)

	kind := "sku"
	if q.SKU == "" {
		kind = "total"
	}

	result := &domain.ForecastResult{
		Kind:        kind,
		SKU:         q.SKU,
		Marketplace: q.Marketplace,
		HistoryDays: q.HistoryDays,
		HorizonDays: q.HorizonDays,
		DataQuality: &quality,
	}

	out, err := s.forecaster.Forecast(series, q.HorizonDays)
	if err != nil {
		return nil, err
	}

	result.ModelName = out.ModelName
	result.DataEndDate = out.DataEndDate
	result.BacktestPoints = out.BacktestPoints
	result.ActualPoints = series.Points
	result.ForecastPoints = out.ForecastPoints
	result.ConfidenceBounds = out.Bounds
	result.Intelligence = out.Intelligence
	result.MAE30d = out.MAE30d
	result.MAPE30d = out.MAPE30d

	if len(series.Points) == 0 {
		result.Reasoning = []string{"no usable demand history in the requested window"}
		result.Recommendation = "Collect confirmed sales history before relying on this forecast."
		return result, nil
	}

	if err := s.applyOverrides(ctx, q, result); err != nil {
		return nil, err
	}

	drift := forecast.DetectDrift(result.BacktestPoints, s.cfg.DriftWindowDays, s.cfg.DriftThreshold)
	result.Drift = &drift

	result.Recommendation, result.Reasoning = summarize(result)
	return result, nil
}

func (s *ForecastService) applyOverrides(ctx context.Context, q ForecastQuery, result *domain.ForecastResult) error {
	if len(result.ForecastPoints) == 0 {
		return nil
	}

	horizonStart := result.DataEndDate.AddDate(0, 0, 1)
	horizonEnd := result.DataEndDate.AddDate(0, 0, q.HorizonDays)
	overrides, err := s.overrides.Active(ctx, q.SKU, q.Marketplace, horizonStart, horizonEnd)
	if err != nil {
		return fmt.Errorf("fetch overrides: %w", err)
	}
	if len(overrides) == 0 {
		return nil
	}

	adjusted, applied := forecast.ApplyOverrides(result.ForecastPoints, overrides, q.SKU, q.Marketplace)
	result.ForecastPoints = adjusted
	result.AppliedOverrides = applied

	// Downstream planning consumes the adjusted estimate, so the summary
	// numbers must reflect the override-adjusted points.
	var sum float64
	for _, p := range adjusted {
		sum += p.Units
	}
	prev := result.Intelligence.DailyDemandEstimate
	estimate := sum / float64(len(adjusted))
	result.Intelligence.DailyDemandEstimate = estimate

	shift := estimate - prev
	result.Intelligence.ForecastRange.Low = max0(result.Intelligence.ForecastRange.Low + shift)
	result.Intelligence.ForecastRange.Expected = estimate
	result.Intelligence.ForecastRange.High = result.Intelligence.ForecastRange.High + shift

	return nil
}

// summarize renders the human-readable recommendation line and its reasoning
// from the computed numbers.
func summarize(r *domain.ForecastResult) (string, []string) {
	reasoning := make([]string, 0, 4)
	intel := r.Intelligence

	switch intel.Trend {
	case domain.TrendIncreasing:
		reasoning = append(reasoning, "demand is trending up versus earlier history")
	case domain.TrendDecreasing:
		reasoning = append(reasoning, "demand is trending down versus earlier history")
	case domain.TrendStable:
		reasoning = append(reasoning, "demand is roughly stable across the history window")
	default:
		reasoning = append(reasoning, "history is too short to call a trend")
	}

	if intel.VolatilityCV >= 0.90 {
		reasoning = append(reasoning, fmt.Sprintf("volatility is high (cv %.2f); expect wide day-to-day swings", intel.VolatilityCV))
	} else if intel.VolatilityCV >= 0.35 {
		reasoning = append(reasoning, fmt.Sprintf("volatility is moderate (cv %.2f)", intel.VolatilityCV))
	}

	if r.Drift != nil && r.Drift.Flag {
		reasoning = append(reasoning, fmt.Sprintf("recent accuracy degraded (MAPE %.0f%% over last %d days); treat the forecast with caution",
			r.Drift.MAPE*100, r.Drift.WindowDays))
	}

	if len(r.AppliedOverrides) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("%d manual override(s) applied to the horizon", len(r.AppliedOverrides)))
	}

	if r.DataQuality != nil && r.DataQuality.Severity == domain.SeverityCritical {
		reasoning = append(reasoning, "a large share of recent units is unmapped; the forecast may understate real demand")
	}

	var recommendation string
	switch {
	case intel.Confidence == domain.ConfidenceLow:
		recommendation = fmt.Sprintf("Plan around roughly %.1f units/day but verify manually; confidence is low.", intel.DailyDemandEstimate)
	case r.Drift != nil && r.Drift.Flag:
		recommendation = fmt.Sprintf("Plan around %.1f units/day and review the model; accuracy has drifted.", intel.DailyDemandEstimate)
	case intel.Trend == domain.TrendIncreasing:
		recommendation = fmt.Sprintf("Plan around %.1f units/day and lean toward the high end (%.1f) given the upward trend.",
			intel.DailyDemandEstimate, intel.ForecastRange.High)
	default:
		recommendation = fmt.Sprintf("Plan around %.1f units/day (range %.1f to %.1f).",
			intel.DailyDemandEstimate, intel.ForecastRange.Low, intel.ForecastRange.High)
	}

	return recommendation, reasoning
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// InvalidateCache drops every cached forecast snapshot. Called after override
// mutations so stale adjusted forecasts never serve.
func (s *ForecastService) InvalidateCache(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation failed")
	}
}
