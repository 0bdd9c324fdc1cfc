package domain

import "strings"

// StockStatus is the simplified restock-action classification.
type StockStatus string

const (
	StatusInsufficientData StockStatus = "insufficient_data"
	StatusUrgent           StockStatus = "urgent"
	StatusWatch            StockStatus = "watch"
	StatusHealthy          StockStatus = "healthy"
)

// TrendDirection describes where a demand series is heading.
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendStable           TrendDirection = "stable"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// ConfidenceLevel grades how much the forecast should be trusted.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// DataSeverity grades the outcome of the data quality gate.
type DataSeverity string

const (
	SeverityOK       DataSeverity = "ok"
	SeverityWarning  DataSeverity = "warning"
	SeverityCritical DataSeverity = "critical"
)

// ReasonFlag is a closed set of recommendation annotations so downstream
// consumers (export, UI) can switch on them exhaustively.
type ReasonFlag string

const (
	FlagUrgentStockoutRisk        ReasonFlag = "urgent_stockout_risk"
	FlagReorderSoon               ReasonFlag = "reorder_soon"
	FlagMOQApplied                ReasonFlag = "moq_applied"
	FlagMissingSupplierSettings   ReasonFlag = "missing_supplier_settings"
	FlagMissingForecastFallback   ReasonFlag = "missing_forecast_fallback_used"
)

var reasonFlags = map[string]ReasonFlag{
	"urgent_stockout_risk":           FlagUrgentStockoutRisk,
	"reorder_soon":                   FlagReorderSoon,
	"moq_applied":                    FlagMOQApplied,
	"missing_supplier_settings":      FlagMissingSupplierSettings,
	"missing_forecast_fallback_used": FlagMissingForecastFallback,
}

// ParseReasonFlag returns the flag for a given label (case-insensitive).
func ParseReasonFlag(label string) (ReasonFlag, bool) {
	f, ok := reasonFlags[strings.ToLower(label)]

	return f, ok
}

// HasFlag reports whether flags contains f.
func HasFlag(flags []ReasonFlag, f ReasonFlag) bool {
	for _, v := range flags {
		if v == f {
			return true
		}
	}
	return false
}
