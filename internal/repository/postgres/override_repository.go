package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/repository"
)

// OverrideRepository manages owner-defined forecast overrides. Stored rows
// are never mutated by a computation; results are recomputed fresh each
// request.
type OverrideRepository struct {
	db *DB
}

func NewOverrideRepository(db *DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

var _ repository.OverrideStore = (*OverrideRepository)(nil)

// Active returns overrides whose date range intersects [from, to] and whose
// scope could match the requested SKU/marketplace. Wildcard (NULL) rows are
// always candidates; final per-date matching happens in the override layer.
func (r *OverrideRepository) Active(ctx context.Context, sku, marketplace string, from, to time.Time) ([]domain.Override, error) {
	query := `
		SELECT id, sku, marketplace, start_date, end_date, override_type, value, reason, created_at
		FROM forecast_overrides
		WHERE start_date <= $1 AND end_date >= $2
		  AND (sku IS NULL OR sku = $3)
		  AND (marketplace IS NULL OR marketplace = $4)
		ORDER BY created_at ASC, id ASC`

	var overrides []domain.Override
	if err := r.db.SelectContext(ctx, &overrides, query, to, from, sku, marketplace); err != nil {
		return nil, fmt.Errorf("select active overrides: %w", err)
	}

	return overrides, nil
}

func (r *OverrideRepository) List(ctx context.Context, marketplace string) ([]domain.Override, error) {
	query := `
		SELECT id, sku, marketplace, start_date, end_date, override_type, value, reason, created_at
		FROM forecast_overrides
		WHERE $1 = '' OR marketplace IS NULL OR marketplace = $1
		ORDER BY created_at DESC, id DESC`

	var overrides []domain.Override
	if err := r.db.SelectContext(ctx, &overrides, query, marketplace); err != nil {
		return nil, fmt.Errorf("select overrides: %w", err)
	}

	return overrides, nil
}

func (r *OverrideRepository) Create(ctx context.Context, o *domain.Override) error {
	query := `
		INSERT INTO forecast_overrides (sku, marketplace, start_date, end_date, override_type, value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.SKU, o.Marketplace, o.StartDate, o.EndDate, o.Type, o.Value, o.Reason,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert override: %w", err)
	}

	return nil
}

func (r *OverrideRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM forecast_overrides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete override %d: %w", id, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("override %d not found", id)
	}

	return nil
}
