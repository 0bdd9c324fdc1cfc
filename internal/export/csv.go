// Package export renders recommendation batches as CSV for buyers and
// downstream tooling.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

var header = []string{"supplier", "sku", "marketplace", "recommended_units_rounded", "pack_size", "moq", "notes_flags"}

// RecommendationsCSV renders recommendations with a deterministic row order:
// priority score descending, ties broken by SKU ascending.
func RecommendationsCSV(items []domain.RestockRecommendation) ([]byte, error) {
	sorted := make([]domain.RestockRecommendation, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PriorityScore != sorted[j].PriorityScore {
			return sorted[i].PriorityScore > sorted[j].PriorityScore
		}
		return sorted[i].SKU < sorted[j].SKU
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range sorted {
		flags := make([]string, 0, len(rec.ReasonFlags))
		for _, f := range rec.ReasonFlags {
			flags = append(flags, string(f))
		}

		row := []string{
			rec.SupplierID,
			rec.SKU,
			rec.Marketplace,
			formatUnits(rec.RecommendedUnitsRounded),
			formatUnits(rec.PackSizeUnits),
			formatUnits(rec.MOQUnits),
			strings.Join(flags, ";"),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row for %s: %w", rec.SKU, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatUnits(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
