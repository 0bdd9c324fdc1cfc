package service

import (
	"context"
	"testing"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForecastFixture(demand *fakeDemand, overrides *fakeOverrides) (*ForecastService, *countingCache) {
	if overrides == nil {
		overrides = &fakeOverrides{}
	}
	c := newCountingCache()
	return NewForecastService(demand, overrides, c, testEngineConfig()), c
}

func TestComputeForecastSKUScope(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"A": demandHistory("A", 60, 10),
	}}
	svc, _ := newForecastFixture(demand, nil)

	result, err := svc.ComputeForecast(context.Background(), ForecastQuery{
		SKU:         "A",
		Marketplace: "shopee",
		AsOf:        testAsOf,
	})
	require.NoError(t, err)

	assert.Equal(t, "sku", result.Kind)
	assert.Equal(t, 90, result.HistoryDays)
	assert.Equal(t, 30, result.HorizonDays)
	assert.Len(t, result.ForecastPoints, 30)
	assert.InDelta(t, 10.0, result.Intelligence.DailyDemandEstimate, 0.5)
	require.NotNil(t, result.DataQuality)
	assert.Equal(t, "confirmed_only", result.DataQuality.Mode)
	require.NotNil(t, result.Drift)
	assert.False(t, result.Drift.Flag)
	assert.NotEmpty(t, result.Recommendation)
	assert.NotEmpty(t, result.Reasoning)
}

func TestComputeForecastTotalScope(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"": demandHistory("", 60, 40),
	}}
	svc, _ := newForecastFixture(demand, nil)

	result, err := svc.ComputeForecast(context.Background(), ForecastQuery{
		Marketplace: "shopee",
		AsOf:        testAsOf,
	})
	require.NoError(t, err)

	assert.Equal(t, "total", result.Kind)
	assert.Empty(t, result.SKU)
	assert.InDelta(t, 40.0, result.Intelligence.DailyDemandEstimate, 2)
}

func TestComputeForecastRequiresMarketplace(t *testing.T) {
	svc, _ := newForecastFixture(&fakeDemand{rows: map[string][]domain.DemandRow{}}, nil)

	_, err := svc.ComputeForecast(context.Background(), ForecastQuery{SKU: "A"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestComputeForecastNoHistory(t *testing.T) {
	svc, _ := newForecastFixture(&fakeDemand{rows: map[string][]domain.DemandRow{}}, nil)

	result, err := svc.ComputeForecast(context.Background(), ForecastQuery{
		SKU:         "missing",
		Marketplace: "shopee",
		AsOf:        testAsOf,
	})
	require.NoError(t, err)

	assert.Empty(t, result.ForecastPoints)
	assert.Equal(t, domain.ConfidenceLow, result.Intelligence.Confidence)
	assert.NotEmpty(t, result.Reasoning)
}

func TestComputeForecastAppliesOverrides(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"A": demandHistory("A", 60, 10),
	}}
	overrides := &fakeOverrides{}
	require.NoError(t, overrides.Create(context.Background(), &domain.Override{
		StartDate: testAsOf,
		EndDate:   testAsOf.AddDate(0, 0, 60),
		Type:      domain.OverrideMultiplier,
		Value:     2,
		Reason:    "promo month",
	}))
	svc, _ := newForecastFixture(demand, overrides)

	result, err := svc.ComputeForecast(context.Background(), ForecastQuery{
		SKU:         "A",
		Marketplace: "shopee",
		AsOf:        testAsOf,
	})
	require.NoError(t, err)

	require.Len(t, result.AppliedOverrides, 1)
	// Doubled demand flows into the planning estimate, not just the points.
	assert.InDelta(t, 20.0, result.Intelligence.DailyDemandEstimate, 1)
	assert.InDelta(t, 20.0, result.ForecastPoints[0].Units, 1.5)
}

func TestComputeForecastReadThroughCache(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"A": demandHistory("A", 60, 10),
	}}
	svc, c := newForecastFixture(demand, nil)

	query := ForecastQuery{SKU: "A", Marketplace: "shopee", AsOf: testAsOf}

	first, err := svc.ComputeForecast(context.Background(), query)
	require.NoError(t, err)
	second, err := svc.ComputeForecast(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 1, c.hits)
	assert.Equal(t, first, second)
}

func TestComputeForecastCacheKeyedByAsOf(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"A": demandHistory("A", 60, 10),
	}}
	svc, c := newForecastFixture(demand, nil)

	_, err := svc.ComputeForecast(context.Background(), ForecastQuery{SKU: "A", Marketplace: "shopee", AsOf: testAsOf})
	require.NoError(t, err)
	_, err = svc.ComputeForecast(context.Background(), ForecastQuery{SKU: "A", Marketplace: "shopee", AsOf: testAsOf.AddDate(0, 0, 1)})
	require.NoError(t, err)

	// Different planning dates never share an entry.
	assert.Equal(t, 0, c.hits)
	assert.Equal(t, 2, c.sets)
}

func TestOverrideServiceLifecycle(t *testing.T) {
	demand := &fakeDemand{rows: map[string][]domain.DemandRow{
		"A": demandHistory("A", 60, 10),
	}}
	store := &fakeOverrides{}
	forecasts, c := newForecastFixture(demand, store)
	svc := NewOverrideService(store, forecasts)

	// Warm the cache, then mutate; the stale snapshot must be dropped.
	_, err := forecasts.ComputeForecast(context.Background(), ForecastQuery{SKU: "A", Marketplace: "shopee", AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, c.entries, 1)

	o := &domain.Override{
		StartDate: testAsOf,
		EndDate:   testAsOf.AddDate(0, 0, 7),
		Type:      domain.OverrideAbsolute,
		Value:     25,
	}
	require.NoError(t, svc.Create(context.Background(), o))
	assert.NotZero(t, o.ID)
	assert.Empty(t, c.entries)

	listed, err := svc.List(context.Background(), "shopee")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, svc.Delete(context.Background(), o.ID))
	listed, err = svc.List(context.Background(), "shopee")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestOverrideServiceRejectsInvalid(t *testing.T) {
	store := &fakeOverrides{}
	forecasts, _ := newForecastFixture(&fakeDemand{rows: map[string][]domain.DemandRow{}}, store)
	svc := NewOverrideService(store, forecasts)

	err := svc.Create(context.Background(), &domain.Override{
		StartDate: testAsOf,
		EndDate:   testAsOf.AddDate(0, 0, -1),
		Type:      domain.OverrideAbsolute,
		Value:     5,
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, store.overrides)
}
