package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/repository"
)

// DemandRepository reads raw daily demand rows from the sales snapshot table.
type DemandRepository struct {
	db *DB
}

func NewDemandRepository(db *DB) *DemandRepository {
	return &DemandRepository{db: db}
}

var _ repository.DemandSource = (*DemandRepository)(nil)

// DailyDemand returns demand rows ordered by date. An empty sku aggregates
// every SKU in the marketplace into one row per (date, mapping_status), which
// is the input shape for the "total" scope.
func (r *DemandRepository) DailyDemand(ctx context.Context, marketplace, sku string, from, to time.Time) ([]domain.DemandRow, error) {
	var rows []domain.DemandRow
	var err error

	if sku == "" {
		query := `
			SELECT date, '' AS sku, marketplace, SUM(units) AS units, mapping_status
			FROM daily_demand
			WHERE marketplace = $1 AND date >= $2 AND date <= $3
			GROUP BY date, marketplace, mapping_status
			ORDER BY date ASC`
		err = r.db.SelectContext(ctx, &rows, query, marketplace, from, to)
	} else {
		query := `
			SELECT date, sku, marketplace, units, mapping_status
			FROM daily_demand
			WHERE marketplace = $1 AND sku = $2 AND date >= $3 AND date <= $4
			ORDER BY date ASC`
		err = r.db.SelectContext(ctx, &rows, query, marketplace, sku, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("select daily demand: %w", err)
	}

	return rows, nil
}

// ActiveSKUs lists SKUs with any confirmed demand since the given date,
// ordered by recent volume so "top SKUs" batches are meaningful.
func (r *DemandRepository) ActiveSKUs(ctx context.Context, marketplace string, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT sku
		FROM daily_demand
		WHERE marketplace = $1 AND date >= $2 AND mapping_status = 'confirmed'
		GROUP BY sku
		ORDER BY SUM(units) DESC, sku ASC
		LIMIT $3`

	var skus []string
	if err := r.db.SelectContext(ctx, &skus, query, marketplace, since, limit); err != nil {
		return nil, fmt.Errorf("select active skus: %w", err)
	}

	return skus, nil
}
