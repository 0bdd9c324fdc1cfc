package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type restockFixture struct {
	demand    *fakeDemand
	suppliers *fakeSuppliers
	inventory *fakeInventory
	service   *RestockService
}

func newRestockFixture() *restockFixture {
	demand := &fakeDemand{
		rows: map[string][]domain.DemandRow{
			"A": demandHistory("A", 60, 10),
			"B": demandHistory("B", 60, 2),
		},
		active: []string{"A", "B"},
	}
	suppliers := &fakeSuppliers{
		settings: map[string]*domain.SupplierSetting{
			"A": {
				SKU:              "A",
				SupplierID:       "sup-1",
				LeadTimeDaysMean: 14,
				LeadTimeDaysStd:  2,
				MOQUnits:         50,
				PackSizeUnits:    10,
				ServiceLevel:     0.95,
			},
		},
		bySupp: map[string][]string{"sup-1": {"A"}},
	}
	inventory := &fakeInventory{
		positions: map[string]*domain.InventoryPosition{
			"A": {OnHandUnits: 30, Freshness: domain.FreshnessFresh},
			"B": {OnHandUnits: 500, Freshness: domain.FreshnessFresh},
		},
	}

	forecasts := NewForecastService(demand, &fakeOverrides{}, newCountingCache(), testEngineConfig())
	svc := NewRestockService(forecasts, demand, suppliers, inventory, nil, testEngineConfig())

	return &restockFixture{demand: demand, suppliers: suppliers, inventory: inventory, service: svc}
}

func TestRecommendSingleSKU(t *testing.T) {
	fx := newRestockFixture()

	rec, err := fx.service.Recommend(context.Background(), "A", "shopee", false, testAsOf)
	require.NoError(t, err)

	assert.Equal(t, "A", rec.SKU)
	assert.Equal(t, "sup-1", rec.SupplierID)
	assert.InDelta(t, 10.0, rec.DailyDemandEstimate, 0.5)
	// 30 on hand at ~10/day is ~3 days of cover against a 14-day lead time.
	assert.Equal(t, domain.StatusUrgent, rec.Status)
	assert.True(t, domain.HasFlag(rec.ReasonFlags, domain.FlagUrgentStockoutRisk))
	assert.Greater(t, rec.RecommendedUnitsRounded, 0.0)
}

func TestRecommendMissingSupplierFlagged(t *testing.T) {
	fx := newRestockFixture()

	rec, err := fx.service.Recommend(context.Background(), "B", "shopee", false, testAsOf)
	require.NoError(t, err)

	assert.True(t, domain.HasFlag(rec.ReasonFlags, domain.FlagMissingSupplierSettings))
	assert.Equal(t, 14.0, rec.LeadTimeDaysMean)
	// Plenty of stock: 500 units at ~2/day.
	assert.Equal(t, domain.StatusHealthy, rec.Status)
}

func TestRecommendRequiresSKU(t *testing.T) {
	fx := newRestockFixture()
	_, err := fx.service.Recommend(context.Background(), "", "shopee", false, testAsOf)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestRecommendAllOrderedByPriority(t *testing.T) {
	fx := newRestockFixture()

	result, err := fx.service.RecommendAll(context.Background(), "shopee", RecommendationFilters{}, testAsOf)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	// The urgent SKU sorts first.
	assert.Equal(t, "A", result.Items[0].SKU)
	assert.Equal(t, "B", result.Items[1].SKU)
	assert.Empty(t, result.DataQuality.Warnings)
}

func TestRecommendAllDegradesFailedSKU(t *testing.T) {
	fx := newRestockFixture()
	fx.demand.failSKU = "B"

	result, err := fx.service.RecommendAll(context.Background(), "shopee", RecommendationFilters{}, testAsOf)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	var degraded *domain.RestockRecommendation
	for i := range result.Items {
		if result.Items[i].SKU == "B" {
			degraded = &result.Items[i]
		}
	}
	require.NotNil(t, degraded)
	assert.Equal(t, domain.StatusInsufficientData, degraded.Status)
	assert.Equal(t, domain.SeverityWarning, result.DataQuality.Severity)
	assert.NotEmpty(t, result.DataQuality.Warnings)
}

func TestRecommendAllUrgentOnlyFilter(t *testing.T) {
	fx := newRestockFixture()

	result, err := fx.service.RecommendAll(context.Background(), "shopee", RecommendationFilters{UrgentOnly: true}, testAsOf)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "A", result.Items[0].SKU)
}

func TestRecommendAllMissingSettingsFilter(t *testing.T) {
	fx := newRestockFixture()

	result, err := fx.service.RecommendAll(context.Background(), "shopee", RecommendationFilters{MissingSettingsOnly: true}, testAsOf)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "B", result.Items[0].SKU)
}

func TestRecommendAllSupplierScoped(t *testing.T) {
	fx := newRestockFixture()

	result, err := fx.service.RecommendAll(context.Background(), "shopee", RecommendationFilters{SupplierID: "sup-1"}, testAsOf)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "A", result.Items[0].SKU)
}

func TestPlanWithOverrides(t *testing.T) {
	fx := newRestockFixture()
	lead := 7.0
	stock := 200.0

	plan, err := fx.service.Plan(context.Background(), "A", "shopee", PlanOptions{
		LeadTimeDays:      &lead,
		CurrentStockUnits: &stock,
	}, testAsOf)
	require.NoError(t, err)

	require.NotNil(t, plan.Forecast)
	assert.Equal(t, 7.0, plan.Recommendation.LeadTimeDaysMean)
	assert.Equal(t, 200.0, plan.Recommendation.AvailableUnits)
	// 200 units at ~10/day comfortably clears the 7-day lead time.
	assert.Equal(t, domain.StatusHealthy, plan.Recommendation.Status)
}

func TestPlanRejectsBadOptions(t *testing.T) {
	fx := newRestockFixture()
	bad := -1.0

	_, err := fx.service.Plan(context.Background(), "A", "shopee", PlanOptions{LeadTimeDays: &bad}, testAsOf)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	sl := 1.5
	_, err = fx.service.Plan(context.Background(), "A", "shopee", PlanOptions{ServiceLevel: &sl}, testAsOf)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestRestockActionsSingleAndBatch(t *testing.T) {
	fx := newRestockFixture()

	items, _, err := fx.service.RestockActions(context.Background(), "A", "shopee", PlanOptions{}, testAsOf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.StatusUrgent, items[0].Status)
	assert.NotEmpty(t, items[0].Reasoning)

	items, quality, err := fx.service.RestockActions(context.Background(), "", "shopee", PlanOptions{}, testAsOf)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, domain.SeverityOK, quality.Severity)
}

func TestWhatIfThroughService(t *testing.T) {
	fx := newRestockFixture()
	newStock := 500.0

	base, err := fx.service.Recommend(context.Background(), "A", "shopee", false, testAsOf)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUrgent, base.Status)

	sim, err := fx.service.WhatIf(context.Background(), "A", "shopee", domain.WhatIfPatch{OnHandUnits: &newStock}, testAsOf)
	require.NoError(t, err)

	assert.True(t, sim.Simulated)
	assert.Equal(t, domain.StatusHealthy, sim.Status)

	// The stored position is untouched: a fresh run still sees 30 units.
	again, err := fx.service.Recommend(context.Background(), "A", "shopee", false, testAsOf)
	require.NoError(t, err)
	assert.Equal(t, 30.0, again.AvailableUnits)
}

func TestWhatIfValidationPropagates(t *testing.T) {
	fx := newRestockFixture()
	bad := 2.0

	_, err := fx.service.WhatIf(context.Background(), "A", "shopee", domain.WhatIfPatch{ServiceLevel: &bad}, testAsOf)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestExportCSVThroughService(t *testing.T) {
	fx := newRestockFixture()

	payload, err := fx.service.ExportCSV(context.Background(), "shopee", RecommendationFilters{}, testAsOf)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "sku", records[0][1])
	assert.Equal(t, "A", records[1][1])
}
