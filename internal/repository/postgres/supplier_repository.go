package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/repository"
)

// SupplierRepository reads active supplier replenishment settings.
type SupplierRepository struct {
	db *DB
}

func NewSupplierRepository(db *DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

var _ repository.SupplierSettingStore = (*SupplierRepository)(nil)

// Get prefers the marketplace-specific row and falls back to the global
// (marketplace IS NULL) row. Returns nil when neither exists.
func (r *SupplierRepository) Get(ctx context.Context, sku, marketplace string) (*domain.SupplierSetting, error) {
	query := `
		SELECT sku, marketplace, supplier_id, lead_time_days_mean, lead_time_days_std,
		       moq_units, pack_size_units, service_level, min_days_of_cover,
		       max_days_of_cover, reorder_policy
		FROM supplier_settings
		WHERE sku = $1 AND (marketplace = $2 OR marketplace IS NULL) AND active
		ORDER BY marketplace NULLS LAST
		LIMIT 1`

	var setting domain.SupplierSetting
	err := r.db.GetContext(ctx, &setting, query, sku, marketplace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select supplier setting for %s: %w", sku, err)
	}

	return &setting, nil
}

// ListSKUs returns SKUs carrying an active setting, optionally narrowed to
// one supplier.
func (r *SupplierRepository) ListSKUs(ctx context.Context, marketplace, supplierID string) ([]string, error) {
	query := `
		SELECT DISTINCT sku
		FROM supplier_settings
		WHERE (marketplace = $1 OR marketplace IS NULL) AND active
		  AND ($2 = '' OR supplier_id = $2)
		ORDER BY sku ASC`

	var skus []string
	if err := r.db.SelectContext(ctx, &skus, query, marketplace, supplierID); err != nil {
		return nil, fmt.Errorf("select supplier skus: %w", err)
	}

	return skus, nil
}
