package forecast

import (
	"math"
	"sort"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// ApplyOverrides layers owner-defined adjustments on top of raw forecast
// points. All overrides matching a date compose in a fixed order: absolute
// overrides first, where the most recently created one wins, then every
// matching multiplier multiplied together. More specific overrides get no
// implicit precedence over wildcards. The returned override list contains
// every override that matched at least one date, for audit and display.
func ApplyOverrides(points []domain.ForecastPoint, overrides []domain.Override, sku, marketplace string) ([]domain.ForecastPoint, []domain.Override) {
	if len(points) == 0 || len(overrides) == 0 {
		return points, nil
	}

	// Stable order so "most recently created wins" is deterministic even for
	// equal creation timestamps.
	sorted := make([]domain.Override, len(overrides))
	copy(sorted, overrides)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	adjusted := make([]domain.ForecastPoint, len(points))
	copy(adjusted, points)
	matched := make(map[int64]bool)
	var applied []domain.Override

	for i, p := range adjusted {
		units := p.Units
		hasAbsolute := false
		absolute := 0.0
		multiplier := 1.0

		for _, o := range sorted {
			if !o.Matches(p.Date, sku, marketplace) {
				continue
			}
			switch o.Type {
			case domain.OverrideAbsolute:
				hasAbsolute = true
				absolute = o.Value // later entries overwrite: last created wins
			case domain.OverrideMultiplier:
				multiplier *= o.Value
			}
			if !matched[o.ID] {
				matched[o.ID] = true
				applied = append(applied, o)
			}
		}

		if hasAbsolute {
			units = absolute
		}
		units *= multiplier
		adjusted[i].Units = math.Max(0, units)
	}

	return adjusted, applied
}

// ValidateOverride checks an override at the creation boundary.
func ValidateOverride(o domain.Override) error {
	if o.EndDate.Before(o.StartDate) {
		return domain.NewValidationError("end_date", "must not be before start_date")
	}
	switch o.Type {
	case domain.OverrideAbsolute:
		if o.Value < 0 {
			return domain.NewValidationError("value", "absolute override requires value >= 0")
		}
	case domain.OverrideMultiplier:
		if o.Value <= 0 {
			return domain.NewValidationError("value", "multiplier override requires value > 0")
		}
	default:
		return domain.NewValidationError("type", "must be absolute or multiplier")
	}
	return nil
}
