package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/repository"
)

// InventoryRepository reads the latest stock snapshot per SKU/marketplace.
type InventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

var _ repository.InventoryStore = (*InventoryRepository)(nil)

func (r *InventoryRepository) Get(ctx context.Context, sku, marketplace string) (*domain.InventoryPosition, error) {
	// Freshness is derived from snapshot age at read time so it never goes
	// stale inside a cached row.
	query := `
		SELECT on_hand_units, inbound_units, reserved_units,
		       EXTRACT(EPOCH FROM (NOW() - snapshot_at)) / 3600 AS age_hours,
		       CASE
		           WHEN NOW() - snapshot_at < INTERVAL '6 hours' THEN 'fresh'
		           WHEN NOW() - snapshot_at < INTERVAL '24 hours' THEN 'warning'
		           ELSE 'critical'
		       END AS freshness
		FROM inventory_positions
		WHERE sku = $1 AND marketplace = $2
		ORDER BY snapshot_at DESC
		LIMIT 1`

	var pos domain.InventoryPosition
	err := r.db.GetContext(ctx, &pos, query, sku, marketplace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select inventory position for %s: %w", sku, err)
	}

	return &pos, nil
}
