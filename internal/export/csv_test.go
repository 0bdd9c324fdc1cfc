package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(sku string, priority, units float64, flags ...domain.ReasonFlag) domain.RestockRecommendation {
	return domain.RestockRecommendation{
		SKU:                     sku,
		Marketplace:             "shopee",
		SupplierID:              "sup-1",
		PriorityScore:           priority,
		RecommendedUnitsRounded: units,
		PackSizeUnits:           12,
		MOQUnits:                50,
		ReasonFlags:             flags,
	}
}

func parse(t *testing.T, payload []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRecommendationsCSVHeaderAndColumns(t *testing.T) {
	payload, err := RecommendationsCSV([]domain.RestockRecommendation{
		rec("A", 0.5, 60, domain.FlagMOQApplied, domain.FlagReorderSoon),
	})
	require.NoError(t, err)

	records := parse(t, payload)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"supplier", "sku", "marketplace", "recommended_units_rounded", "pack_size", "moq", "notes_flags"}, records[0])
	assert.Equal(t, []string{"sup-1", "A", "shopee", "60", "12", "50", "moq_applied;reorder_soon"}, records[1])
}

func TestRecommendationsCSVOrdering(t *testing.T) {
	payload, err := RecommendationsCSV([]domain.RestockRecommendation{
		rec("C", 0.2, 10),
		rec("B", 0.9, 10),
		rec("A", 0.2, 10),
	})
	require.NoError(t, err)

	records := parse(t, payload)
	require.Len(t, records, 4)
	// Priority descending, SKU ascending on ties.
	assert.Equal(t, "B", records[1][1])
	assert.Equal(t, "A", records[2][1])
	assert.Equal(t, "C", records[3][1])
}

func TestRecommendationsCSVFractionalUnits(t *testing.T) {
	item := rec("A", 0.1, 10.5)
	item.PackSizeUnits = 1.25

	payload, err := RecommendationsCSV([]domain.RestockRecommendation{item})
	require.NoError(t, err)

	records := parse(t, payload)
	assert.Equal(t, "10.50", records[1][3])
	assert.Equal(t, "1.25", records[1][4])
}

func TestRecommendationsCSVEmptyBatch(t *testing.T) {
	payload, err := RecommendationsCSV(nil)
	require.NoError(t, err)

	records := parse(t, payload)
	require.Len(t, records, 1)
}

func TestRecommendationsCSVDoesNotReorderInput(t *testing.T) {
	items := []domain.RestockRecommendation{
		rec("C", 0.2, 10),
		rec("B", 0.9, 10),
	}
	_, err := RecommendationsCSV(items)
	require.NoError(t, err)

	assert.Equal(t, "C", items[0].SKU)
	assert.Equal(t, "B", items[1].SKU)
}
