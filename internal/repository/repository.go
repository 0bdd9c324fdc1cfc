// Package repository defines the data access contracts the engine consumes.
// The core computation layer never fetches anything itself; callers supply
// fully-materialized inputs through these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// DemandSource provides raw daily demand rows tagged with mapping status.
// An empty sku selects every SKU in the marketplace (used for the aggregate
// "total" scope, which sums series before forecasting).
type DemandSource interface {
	DailyDemand(ctx context.Context, marketplace, sku string, from, to time.Time) ([]domain.DemandRow, error)
	ActiveSKUs(ctx context.Context, marketplace string, since time.Time, limit int) ([]string, error)
}

// SupplierSettingStore exposes the active replenishment settings. Get falls
// back to the global (marketplace-null) row and returns nil when no setting
// exists at all.
type SupplierSettingStore interface {
	Get(ctx context.Context, sku, marketplace string) (*domain.SupplierSetting, error)
	ListSKUs(ctx context.Context, marketplace, supplierID string) ([]string, error)
}

// InventoryStore returns the current stock position per SKU/marketplace with
// freshness metadata, or nil when no snapshot exists.
type InventoryStore interface {
	Get(ctx context.Context, sku, marketplace string) (*domain.InventoryPosition, error)
}

// OverrideStore manages owner-defined forecast overrides.
type OverrideStore interface {
	Active(ctx context.Context, sku, marketplace string, from, to time.Time) ([]domain.Override, error)
	List(ctx context.Context, marketplace string) ([]domain.Override, error)
	Create(ctx context.Context, o *domain.Override) error
	Delete(ctx context.Context, id int64) error
}
