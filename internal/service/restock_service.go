package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/restock-planner/internal/batch"
	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/export"
	"github.com/andresuchdata/restock-planner/internal/repository"
	"github.com/andresuchdata/restock-planner/internal/restock"
	"github.com/andresuchdata/restock-planner/internal/storage"
	"github.com/rs/zerolog/log"
)

// RecommendationFilters narrow a catalog-wide recommendation run. Filters are
// applied after computation so priority ordering stays consistent.
type RecommendationFilters struct {
	SupplierID          string
	UrgentOnly          bool
	MissingSettingsOnly bool
	IncludeUnmapped     bool
}

// PlanOptions are the caller-supplied overrides for a single-SKU plan.
// Nil/zero fields fall back to stored settings and engine defaults.
type PlanOptions struct {
	HorizonDays       int
	LeadTimeDays      *float64
	ServiceLevel      *float64
	CurrentStockUnits *float64
	IncludeUnmapped   bool
}

type RestockService struct {
	forecasts   *ForecastService
	demand      repository.DemandSource
	suppliers   repository.SupplierSettingStore
	inventory   repository.InventoryStore
	storage     storage.ObjectStorage
	recommender *restock.Recommender
	cfg         config.EngineConfig
}

// NewRestockService wires the recommender over its data sources. objStore may
// be nil when snapshot uploads are disabled.
func NewRestockService(
	forecasts *ForecastService,
	demand repository.DemandSource,
	suppliers repository.SupplierSettingStore,
	inventory repository.InventoryStore,
	objStore storage.ObjectStorage,
	cfg config.EngineConfig,
) *RestockService {
	recommender := restock.NewRecommender(restock.Config{
		ReviewPeriodDays:      cfg.ReviewPeriodDays,
		DefaultLeadTimeDays:   cfg.DefaultLeadTimeDays,
		DefaultServiceLevel:   cfg.DefaultServiceLevel,
		StatusUrgentSlackDays: cfg.StatusUrgentSlackDays,
		StatusWatchSlackDays:  cfg.StatusWatchSlackDays,
	})
	return &RestockService{
		forecasts:   forecasts,
		demand:      demand,
		suppliers:   suppliers,
		inventory:   inventory,
		storage:     objStore,
		recommender: recommender,
		cfg:         cfg,
	}
}

// Recommend computes the reorder advice for one SKU from the current forecast,
// supplier settings and stock position.
func (s *RestockService) Recommend(ctx context.Context, sku, marketplace string, includeUnmapped bool, asOf time.Time) (domain.RestockRecommendation, error) {
	if sku == "" {
		return domain.RestockRecommendation{}, domain.NewValidationError("sku", "must be provided")
	}

	in, _, err := s.buildInput(ctx, sku, marketplace, PlanOptions{IncludeUnmapped: includeUnmapped}, asOf)
	if err != nil {
		return domain.RestockRecommendation{}, err
	}
	return s.recommender.Recommend(in), nil
}

// Plan is the single-SKU planning view: the forecast plus the recommendation
// derived from it, with optional caller overrides for lead time, service level
// and current stock.
func (s *RestockService) Plan(ctx context.Context, sku, marketplace string, opts PlanOptions, asOf time.Time) (*domain.RestockPlanResult, error) {
	if sku == "" {
		return nil, domain.NewValidationError("sku", "must be provided")
	}
	if opts.LeadTimeDays != nil && *opts.LeadTimeDays <= 0 {
		return nil, domain.NewValidationError("lead_time_days", "must be > 0")
	}
	if opts.ServiceLevel != nil && (*opts.ServiceLevel <= 0 || *opts.ServiceLevel >= 1) {
		return nil, domain.NewValidationError("service_level", "must be inside (0,1)")
	}
	if opts.CurrentStockUnits != nil && *opts.CurrentStockUnits < 0 {
		return nil, domain.NewValidationError("current_stock_units", "must be >= 0")
	}

	in, fr, err := s.buildInput(ctx, sku, marketplace, opts, asOf)
	if err != nil {
		return nil, err
	}

	if opts.LeadTimeDays != nil {
		in.Supplier.LeadTimeDaysMean = *opts.LeadTimeDays
		in.SupplierFound = true
	}
	if opts.ServiceLevel != nil {
		in.Supplier.ServiceLevel = *opts.ServiceLevel
		in.SupplierFound = true
	}
	if opts.CurrentStockUnits != nil {
		in.Inventory = domain.InventoryPosition{
			OnHandUnits: *opts.CurrentStockUnits,
			Freshness:   domain.FreshnessFresh,
		}
	}

	return &domain.RestockPlanResult{
		Forecast:       fr,
		Recommendation: s.recommender.Recommend(in),
	}, nil
}

// RecommendAll runs the recommender over the marketplace's active catalog in
// parallel. A failing SKU degrades to an insufficient_data row and a batch
// warning; it never aborts the run.
func (s *RestockService) RecommendAll(ctx context.Context, marketplace string, filters RecommendationFilters, asOf time.Time) (*domain.RecommendationBatch, error) {
	if marketplace == "" {
		return nil, domain.NewValidationError("marketplace", "must be provided")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = asOf.UTC().Truncate(24 * time.Hour)

	skus, err := s.listSKUs(ctx, marketplace, filters, asOf)
	if err != nil {
		return nil, err
	}

	results := batch.ForEach(ctx, skus, s.cfg.BatchWorkers, func(ctx context.Context, sku string) (domain.RestockRecommendation, error) {
		return s.Recommend(ctx, sku, marketplace, filters.IncludeUnmapped, asOf)
	})

	out := &domain.RecommendationBatch{
		Items: make([]domain.RestockRecommendation, 0, len(results)),
		DataQuality: domain.DataQuality{
			Mode:     "confirmed_only",
			Warnings: []string{},
			Severity: domain.SeverityOK,
		},
	}
	if filters.IncludeUnmapped {
		out.DataQuality.Mode = "include_unmapped"
	}

	for _, res := range results {
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("sku", res.Key).Msg("restock: batch item failed")
			out.DataQuality.Warnings = append(out.DataQuality.Warnings,
				fmt.Sprintf("sku %s: computation failed, reported as insufficient_data", res.Key))
			out.DataQuality.Severity = domain.SeverityWarning
			out.Items = append(out.Items, s.recommender.InsufficientRow(res.Key, marketplace, asOf))
			continue
		}
		out.Items = append(out.Items, res.Value)
	}

	out.Items = applyFilters(out.Items, filters)
	sort.SliceStable(out.Items, func(i, j int) bool {
		if out.Items[i].PriorityScore != out.Items[j].PriorityScore {
			return out.Items[i].PriorityScore > out.Items[j].PriorityScore
		}
		return out.Items[i].SKU < out.Items[j].SKU
	})

	return out, nil
}

// RestockActions returns the simplified status view used by the actions list.
// With an empty SKU it runs over the whole active catalog.
func (s *RestockService) RestockActions(ctx context.Context, sku, marketplace string, opts PlanOptions, asOf time.Time) ([]domain.RestockActionItem, domain.DataQuality, error) {
	if sku != "" {
		plan, err := s.Plan(ctx, sku, marketplace, opts, asOf)
		if err != nil {
			return nil, domain.DataQuality{}, err
		}
		quality := domain.DataQuality{Mode: "confirmed_only", Warnings: []string{}, Severity: domain.SeverityOK}
		if plan.Forecast != nil && plan.Forecast.DataQuality != nil {
			quality = *plan.Forecast.DataQuality
		}
		return []domain.RestockActionItem{actionItem(plan.Recommendation, plan.Forecast)}, quality, nil
	}

	batchResult, err := s.RecommendAll(ctx, marketplace, RecommendationFilters{IncludeUnmapped: opts.IncludeUnmapped}, asOf)
	if err != nil {
		return nil, domain.DataQuality{}, err
	}

	items := make([]domain.RestockActionItem, 0, len(batchResult.Items))
	for _, rec := range batchResult.Items {
		items = append(items, actionItem(rec, nil))
	}
	return items, batchResult.DataQuality, nil
}

// WhatIf simulates a recommendation with caller-patched inputs. Nothing is
// persisted and the stored settings are untouched.
func (s *RestockService) WhatIf(ctx context.Context, sku, marketplace string, patch domain.WhatIfPatch, asOf time.Time) (domain.RestockRecommendation, error) {
	if sku == "" {
		return domain.RestockRecommendation{}, domain.NewValidationError("sku", "must be provided")
	}

	in, _, err := s.buildInput(ctx, sku, marketplace, PlanOptions{}, asOf)
	if err != nil {
		return domain.RestockRecommendation{}, err
	}
	return s.recommender.Simulate(in, patch)
}

// ExportCSV renders the batch as the buyer-facing purchase list and, when
// object storage is configured, uploads a dated snapshot copy.
func (s *RestockService) ExportCSV(ctx context.Context, marketplace string, filters RecommendationFilters, asOf time.Time) ([]byte, error) {
	batchResult, err := s.RecommendAll(ctx, marketplace, filters, asOf)
	if err != nil {
		return nil, err
	}

	payload, err := export.RecommendationsCSV(batchResult.Items)
	if err != nil {
		return nil, err
	}

	if s.storage != nil {
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		key := fmt.Sprintf("exports/%s/restock_%s.csv", asOf.UTC().Format("2006/01/02"), marketplace)
		if err := s.storage.UploadObject(ctx, key, "text/csv", payload); err != nil {
			// Snapshot upload is best effort; the caller still gets the CSV.
			log.Warn().Err(err).Str("key", key).Msg("restock: export snapshot upload failed")
		}
	}

	return payload, nil
}

// buildInput materializes the recommender input for one SKU: forecast-derived
// demand estimate and spread, supplier settings with global fallback, and the
// current stock position.
func (s *RestockService) buildInput(ctx context.Context, sku, marketplace string, opts PlanOptions, asOf time.Time) (restock.Input, *domain.ForecastResult, error) {
	fr, err := s.forecasts.ComputeForecast(ctx, ForecastQuery{
		SKU:             sku,
		Marketplace:     marketplace,
		HorizonDays:     opts.HorizonDays,
		IncludeUnmapped: opts.IncludeUnmapped,
		AsOf:            asOf,
	})
	if err != nil {
		return restock.Input{}, nil, err
	}

	estimate := fr.Intelligence.DailyDemandEstimate
	demandStd := fr.Intelligence.VolatilityCV * estimate
	fromFallback := len(fr.ForecastPoints) == 0 || fr.Intelligence.Confidence == domain.ConfidenceLow

	supplier, err := s.suppliers.Get(ctx, sku, marketplace)
	if err != nil {
		return restock.Input{}, nil, fmt.Errorf("fetch supplier settings: %w", err)
	}

	position, err := s.inventory.Get(ctx, sku, marketplace)
	if err != nil {
		return restock.Input{}, nil, fmt.Errorf("fetch inventory position: %w", err)
	}
	if position == nil {
		position = &domain.InventoryPosition{Freshness: domain.FreshnessUnknown}
	} else if position.Freshness == domain.FreshnessCritical {
		log.Warn().Str("sku", sku).Float64("age_hours", position.AgeHours).Msg("restock: stale inventory snapshot")
	}

	in := restock.Input{
		SKU:                 sku,
		Marketplace:         marketplace,
		DailyDemandEstimate: estimate,
		DemandStd:           demandStd,
		DemandFromFallback:  fromFallback,
		Inventory:           *position,
		SupplierFound:       supplier != nil,
		AsOf:                fr.DataEndDate,
	}
	if in.AsOf.IsZero() {
		in.AsOf = asOf.UTC().Truncate(24 * time.Hour)
	}
	if supplier != nil {
		in.Supplier = *supplier
	}
	return in, fr, nil
}

func (s *RestockService) listSKUs(ctx context.Context, marketplace string, filters RecommendationFilters, asOf time.Time) ([]string, error) {
	if filters.SupplierID != "" {
		skus, err := s.suppliers.ListSKUs(ctx, marketplace, filters.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("list supplier skus: %w", err)
		}
		return skus, nil
	}

	since := asOf.AddDate(0, 0, -s.cfg.HistoryDays)
	skus, err := s.demand.ActiveSKUs(ctx, marketplace, since, s.cfg.BatchSKULimit)
	if err != nil {
		return nil, fmt.Errorf("list active skus: %w", err)
	}
	return skus, nil
}

func applyFilters(items []domain.RestockRecommendation, filters RecommendationFilters) []domain.RestockRecommendation {
	if !filters.UrgentOnly && !filters.MissingSettingsOnly && filters.SupplierID == "" {
		return items
	}

	kept := make([]domain.RestockRecommendation, 0, len(items))
	for _, rec := range items {
		if filters.UrgentOnly && rec.Status != domain.StatusUrgent && !domain.HasFlag(rec.ReasonFlags, domain.FlagUrgentStockoutRisk) {
			continue
		}
		if filters.MissingSettingsOnly && !domain.HasFlag(rec.ReasonFlags, domain.FlagMissingSupplierSettings) {
			continue
		}
		if filters.SupplierID != "" && rec.SupplierID != filters.SupplierID && rec.Status != domain.StatusInsufficientData {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func actionItem(rec domain.RestockRecommendation, fr *domain.ForecastResult) domain.RestockActionItem {
	item := domain.RestockActionItem{
		SKU:                 rec.SKU,
		Marketplace:         rec.Marketplace,
		Status:              rec.Status,
		DaysOfCoverExpected: rec.DaysOfCover,
		DailyDemandEstimate: rec.DailyDemandEstimate,
		CurrentStockUnits:   rec.AvailableUnits,
		LeadTimeDays:        rec.LeadTimeDaysMean,
		RecommendedUnits:    rec.RecommendedUnitsRounded,
	}
	for _, f := range rec.ReasonFlags {
		item.Reasoning = append(item.Reasoning, string(f))
	}
	if fr != nil && len(fr.Reasoning) > 0 {
		item.Reasoning = append(item.Reasoning, fr.Reasoning...)
	}
	return item
}
