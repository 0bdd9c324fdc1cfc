package forecast

import (
	"fmt"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// GateConfig holds the thresholds for the data quality gate.
type GateConfig struct {
	IncludeUnmapped  bool
	WarnShare30d     float64 // unmapped share above which severity becomes warning
	CriticalShare30d float64 // unmapped share above which severity becomes critical
}

// DefaultGateConfig returns the stock thresholds (10% warn, 30% critical).
func DefaultGateConfig(includeUnmapped bool) GateConfig {
	return GateConfig{
		IncludeUnmapped:  includeUnmapped,
		WarnShare30d:     0.10,
		CriticalShare30d: 0.30,
	}
}

// CleanSeries classifies raw demand rows by mapping status and builds the
// contiguous daily series the forecaster consumes. Confirmed rows are always
// counted; ignored and discontinued rows never are; unmapped and pending rows
// count only when IncludeUnmapped is set. Days without rows inside the window
// are filled with zero units. Severity never fails a request, it only warns.
func CleanSeries(rows []domain.DemandRow, sku, marketplace string, cfg GateConfig) (domain.DemandSeries, domain.DataQuality) {
	quality := domain.DataQuality{
		Mode:     "confirmed_only",
		Warnings: []string{},
		Severity: domain.SeverityOK,
	}
	if cfg.IncludeUnmapped {
		quality.Mode = "include_unmapped"
	}

	byDate := make(map[time.Time]float64)
	excludedSKUs := make(map[string]bool)
	var dataEnd time.Time
	var includedUnits30d float64

	// First pass to find the last day with real data so the 30-day quality
	// window anchors on it rather than on wall-clock time.
	for _, row := range rows {
		d := row.Date.UTC().Truncate(24 * time.Hour)
		if d.After(dataEnd) {
			dataEnd = d
		}
	}
	windowStart30 := dataEnd.AddDate(0, 0, -29)

	for _, row := range rows {
		d := row.Date.UTC().Truncate(24 * time.Hour)
		in30d := !d.Before(windowStart30)

		switch row.MappingStatus {
		case domain.MappingConfirmed:
			byDate[d] += row.Units
			if in30d {
				includedUnits30d += row.Units
			}
		case domain.MappingIgnored:
			quality.ExcludedUnits += row.Units
			excludedSKUs[row.SKU] = true
			if in30d {
				quality.IgnoredUnits30d += row.Units
			}
		case domain.MappingDiscontinued:
			quality.ExcludedUnits += row.Units
			excludedSKUs[row.SKU] = true
			if in30d {
				quality.DiscontinuedUnits30d += row.Units
			}
		case domain.MappingUnmapped, domain.MappingPending:
			if in30d {
				quality.UnmappedUnits30d += row.Units
			}
			if cfg.IncludeUnmapped {
				byDate[d] += row.Units
				if in30d {
					includedUnits30d += row.Units
				}
			} else {
				quality.ExcludedUnits += row.Units
				excludedSKUs[row.SKU] = true
			}
		default:
			// Unknown statuses are treated like unmapped rows so new upstream
			// states degrade to a warning instead of silently inflating demand.
			if in30d {
				quality.UnmappedUnits30d += row.Units
			}
			quality.ExcludedUnits += row.Units
			excludedSKUs[row.SKU] = true
		}
	}

	quality.ExcludedSKUs = len(excludedSKUs)

	// When unmapped rows are included they are already part of includedUnits30d;
	// adding them again would double count the denominator.
	total30d := includedUnits30d
	if !cfg.IncludeUnmapped {
		total30d += quality.UnmappedUnits30d
	}
	if total30d > 0 {
		quality.UnmappedShare30d = quality.UnmappedUnits30d / total30d
	}

	if quality.UnmappedShare30d > cfg.CriticalShare30d {
		quality.Severity = domain.SeverityCritical
		quality.Warnings = append(quality.Warnings,
			fmt.Sprintf("%.0f%% of recent units are unmapped; forecast may significantly understate demand", quality.UnmappedShare30d*100))
	} else if quality.UnmappedShare30d > cfg.WarnShare30d {
		quality.Severity = domain.SeverityWarning
		quality.Warnings = append(quality.Warnings,
			fmt.Sprintf("%.0f%% of recent units are unmapped; review SKU mappings", quality.UnmappedShare30d*100))
	}

	series := domain.DemandSeries{
		SKU:         sku,
		Marketplace: marketplace,
	}
	if len(byDate) == 0 {
		return series, quality
	}

	var dataStart time.Time
	for d := range byDate {
		if dataStart.IsZero() || d.Before(dataStart) {
			dataStart = d
		}
	}

	for d := dataStart; !d.After(dataEnd); d = d.AddDate(0, 0, 1) {
		series.Points = append(series.Points, domain.DemandPoint{
			Date:  d,
			Units: byDate[d],
		})
	}

	return series, quality
}
