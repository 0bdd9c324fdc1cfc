package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/restock-planner/internal/cache"
	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
)

// In-memory fakes for the repository contracts. Kept in one file so every
// service test shares the same wiring helpers.

type fakeDemand struct {
	rows    map[string][]domain.DemandRow // keyed by sku, "" holds the aggregate scope
	active  []string
	failSKU string
}

func (f *fakeDemand) DailyDemand(_ context.Context, _, sku string, from, to time.Time) ([]domain.DemandRow, error) {
	if f.failSKU != "" && sku == f.failSKU {
		return nil, errors.New("demand source unavailable")
	}
	var out []domain.DemandRow
	for _, row := range f.rows[sku] {
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeDemand) ActiveSKUs(_ context.Context, _ string, _ time.Time, limit int) ([]string, error) {
	if limit > 0 && len(f.active) > limit {
		return f.active[:limit], nil
	}
	return f.active, nil
}

type fakeSuppliers struct {
	settings map[string]*domain.SupplierSetting
	bySupp   map[string][]string
}

func (f *fakeSuppliers) Get(_ context.Context, sku, _ string) (*domain.SupplierSetting, error) {
	return f.settings[sku], nil
}

func (f *fakeSuppliers) ListSKUs(_ context.Context, _, supplierID string) ([]string, error) {
	return f.bySupp[supplierID], nil
}

type fakeInventory struct {
	positions map[string]*domain.InventoryPosition
}

func (f *fakeInventory) Get(_ context.Context, sku, _ string) (*domain.InventoryPosition, error) {
	return f.positions[sku], nil
}

type fakeOverrides struct {
	overrides []domain.Override
	nextID    int64
}

func (f *fakeOverrides) Active(_ context.Context, sku, marketplace string, from, to time.Time) ([]domain.Override, error) {
	var out []domain.Override
	for _, o := range f.overrides {
		if o.EndDate.Before(from) || o.StartDate.After(to) {
			continue
		}
		if o.SKU != nil && *o.SKU != sku {
			continue
		}
		if o.Marketplace != nil && *o.Marketplace != marketplace {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOverrides) List(_ context.Context, _ string) ([]domain.Override, error) {
	return f.overrides, nil
}

func (f *fakeOverrides) Create(_ context.Context, o *domain.Override) error {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now().UTC()
	f.overrides = append(f.overrides, *o)
	return nil
}

func (f *fakeOverrides) Delete(_ context.Context, id int64) error {
	for i, o := range f.overrides {
		if o.ID == id {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return nil
		}
	}
	return errors.New("override not found")
}

// countingCache wraps entries in memory and counts traffic so tests can assert
// read-through behavior.
type countingCache struct {
	mu      sync.Mutex
	entries map[cache.ForecastKey]*domain.ForecastResult
	gets    int
	sets    int
	hits    int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[cache.ForecastKey]*domain.ForecastResult)}
}

func (c *countingCache) Get(_ context.Context, key cache.ForecastKey) (*domain.ForecastResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if result, ok := c.entries[key]; ok {
		c.hits++
		return result, true, nil
	}
	return nil, false, nil
}

func (c *countingCache) Set(_ context.Context, key cache.ForecastKey, result *domain.ForecastResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = result
	return nil
}

func (c *countingCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cache.ForecastKey]*domain.ForecastResult)
	return nil
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		HistoryDays:           90,
		HorizonDays:           30,
		BacktestWindowDays:    30,
		DriftWindowDays:       14,
		DriftThreshold:        0.12,
		DefaultServiceLevel:   0.95,
		DefaultLeadTimeDays:   14,
		ReviewPeriodDays:      14,
		UnmappedWarnShare:     0.10,
		UnmappedCriticalShare: 0.30,
		StatusUrgentSlackDays: 3,
		StatusWatchSlackDays:  10,
		BatchWorkers:          4,
		BatchSKULimit:         100,
	}
}

var testAsOf = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// demandHistory builds days of flat confirmed demand ending the day before
// testAsOf.
func demandHistory(sku string, days int, units float64) []domain.DemandRow {
	rows := make([]domain.DemandRow, 0, days)
	for i := days; i >= 1; i-- {
		rows = append(rows, domain.DemandRow{
			Date:          testAsOf.AddDate(0, 0, -i),
			SKU:           sku,
			Marketplace:   "shopee",
			Units:         units,
			MappingStatus: domain.MappingConfirmed,
		})
	}
	return rows
}
