// internal/domain/models.go
package domain

import "time"

// MappingStatus classifies how a raw demand row is linked to the catalog.
type MappingStatus string

const (
	MappingConfirmed    MappingStatus = "confirmed"
	MappingPending      MappingStatus = "pending"
	MappingIgnored      MappingStatus = "ignored"
	MappingDiscontinued MappingStatus = "discontinued"
	MappingUnmapped     MappingStatus = "unmapped"
)

// DemandRow is a single raw daily demand record as supplied by the data layer.
type DemandRow struct {
	Date          time.Time     `json:"date" db:"date"`
	SKU           string        `json:"sku" db:"sku"`
	Marketplace   string        `json:"marketplace" db:"marketplace"`
	Units         float64       `json:"units" db:"units"`
	MappingStatus MappingStatus `json:"mapping_status" db:"mapping_status"`
}

// DemandPoint is one cleaned day of demand.
type DemandPoint struct {
	Date  time.Time `json:"date"`
	Units float64   `json:"units"`
}

// DemandSeries is a contiguous daily unit-count series for one scope.
// Missing days inside the window are present with zero units, never absent.
type DemandSeries struct {
	SKU         string        `json:"sku,omitempty"`
	Marketplace string        `json:"marketplace"`
	Points      []DemandPoint `json:"points"`
}

// End returns the last date carrying data, or the zero time for an empty series.
func (s DemandSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// DataQuality describes what the quality gate kept and dropped for a request.
type DataQuality struct {
	Mode                 string       `json:"mode"`
	ExcludedUnits        float64      `json:"excluded_units"`
	ExcludedSKUs         int          `json:"excluded_skus"`
	UnmappedUnits30d     float64      `json:"unmapped_units_30d"`
	UnmappedShare30d     float64      `json:"unmapped_share_30d"`
	IgnoredUnits30d      float64      `json:"ignored_units_30d"`
	DiscontinuedUnits30d float64      `json:"discontinued_units_30d"`
	Warnings             []string     `json:"warnings"`
	Severity             DataSeverity `json:"severity"`
}

// BacktestPoint compares one historical day against the model's in-sample prediction.
type BacktestPoint struct {
	Date           time.Time `json:"date"`
	ActualUnits    float64   `json:"actual_units"`
	PredictedUnits float64   `json:"predicted_units"`
}

// ForecastPoint is one predicted future day.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Units float64   `json:"units"`
}

// ConfidenceBound brackets a forecast point.
type ConfidenceBound struct {
	Date           time.Time `json:"date"`
	PredictedUnits float64   `json:"predicted_units"`
	Lower          float64   `json:"lower"`
	Upper          float64   `json:"upper"`
}

// ForecastRange is the low/expected/high daily demand band.
type ForecastRange struct {
	Low      float64 `json:"low"`
	Expected float64 `json:"expected"`
	High     float64 `json:"high"`
}

// ForecastIntelligence summarizes a forecast for display and downstream planning.
type ForecastIntelligence struct {
	Trend               TrendDirection  `json:"trend"`
	Confidence          ConfidenceLevel `json:"confidence"`
	DailyDemandEstimate float64         `json:"daily_demand_estimate"`
	VolatilityCV        float64         `json:"volatility_cv"`
	ForecastRange       ForecastRange   `json:"forecast_range"`
}

// DriftReport flags degraded forecast accuracy over a recent backtest window.
type DriftReport struct {
	Flag       bool    `json:"flag"`
	WindowDays int     `json:"window_days"`
	MAE        float64 `json:"mae"`
	MAPE       float64 `json:"mape"`
	Threshold  float64 `json:"threshold"`
}

// OverrideType distinguishes absolute (units/day) from multiplicative adjustments.
type OverrideType string

const (
	OverrideAbsolute   OverrideType = "absolute"
	OverrideMultiplier OverrideType = "multiplier"
)

// Override is an owner-defined, date-ranged forecast adjustment.
// Nil SKU/Marketplace mean the override applies to all.
type Override struct {
	ID          int64        `json:"id" db:"id"`
	SKU         *string      `json:"sku" db:"sku"`
	Marketplace *string      `json:"marketplace" db:"marketplace"`
	StartDate   time.Time    `json:"start_date" db:"start_date"`
	EndDate     time.Time    `json:"end_date" db:"end_date"`
	Type        OverrideType `json:"type" db:"override_type"`
	Value       float64      `json:"value" db:"value"`
	Reason      string       `json:"reason" db:"reason"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// Matches reports whether the override covers the given date and scope.
func (o Override) Matches(date time.Time, sku, marketplace string) bool {
	if date.Before(o.StartDate) || date.After(o.EndDate) {
		return false
	}
	if o.SKU != nil && *o.SKU != sku {
		return false
	}
	if o.Marketplace != nil && *o.Marketplace != marketplace {
		return false
	}
	return true
}

// SupplierSetting holds per-SKU replenishment parameters.
// A row with a nil marketplace is the global fallback for the SKU.
type SupplierSetting struct {
	SKU              string   `json:"sku" db:"sku"`
	Marketplace      *string  `json:"marketplace" db:"marketplace"`
	SupplierID       string   `json:"supplier_id" db:"supplier_id"`
	LeadTimeDaysMean float64  `json:"lead_time_days_mean" db:"lead_time_days_mean"`
	LeadTimeDaysStd  float64  `json:"lead_time_days_std" db:"lead_time_days_std"`
	MOQUnits         float64  `json:"moq_units" db:"moq_units"`
	PackSizeUnits    float64  `json:"pack_size_units" db:"pack_size_units"`
	ServiceLevel     float64  `json:"service_level" db:"service_level"`
	MinDaysOfCover   *float64 `json:"min_days_of_cover" db:"min_days_of_cover"`
	MaxDaysOfCover   *float64 `json:"max_days_of_cover" db:"max_days_of_cover"`
	ReorderPolicy    string   `json:"reorder_policy" db:"reorder_policy"`
}

// InventoryFreshness indicates how stale the supplied stock snapshot is.
type InventoryFreshness string

const (
	FreshnessUnknown  InventoryFreshness = "unknown"
	FreshnessFresh    InventoryFreshness = "fresh"
	FreshnessWarning  InventoryFreshness = "warning"
	FreshnessCritical InventoryFreshness = "critical"
)

// InventoryPosition is the externally supplied stock snapshot for one SKU/marketplace.
type InventoryPosition struct {
	OnHandUnits   float64            `json:"on_hand_units" db:"on_hand_units"`
	InboundUnits  float64            `json:"inbound_units" db:"inbound_units"`
	ReservedUnits float64            `json:"reserved_units" db:"reserved_units"`
	Freshness     InventoryFreshness `json:"freshness" db:"freshness"`
	AgeHours      float64            `json:"age_hours" db:"age_hours"`
}

// AvailableUnits is on-hand minus reservations, floored at zero.
func (p InventoryPosition) AvailableUnits() float64 {
	avail := p.OnHandUnits - p.ReservedUnits
	if avail < 0 {
		return 0
	}
	return avail
}

// RestockRecommendation is the computed reorder advice for one SKU.
// It is recomputed from current inputs on every request; cached copies are
// snapshots only, never the source of truth.
type RestockRecommendation struct {
	SKU                     string       `json:"sku"`
	Marketplace             string       `json:"marketplace"`
	SupplierID              string       `json:"supplier_id,omitempty"`
	DailyDemandEstimate     float64      `json:"daily_demand_estimate"`
	DemandStd               float64      `json:"demand_std"`
	LeadTimeDaysMean        float64      `json:"lead_time_days_mean"`
	LeadTimeDaysStd         float64      `json:"lead_time_days_std"`
	ServiceLevel            float64      `json:"service_level"`
	SafetyStock             float64      `json:"safety_stock"`
	ReorderPoint            float64      `json:"reorder_point"`
	TargetStock             float64      `json:"target_stock"`
	AvailableUnits          float64      `json:"available_units"`
	InboundUnits            float64      `json:"inbound_units"`
	RecommendedOrderUnits   float64      `json:"recommended_order_units"`
	RecommendedUnitsRounded float64      `json:"recommended_order_units_rounded"`
	PackSizeUnits           float64      `json:"pack_size_units"`
	MOQUnits                float64      `json:"moq_units"`
	DaysOfCover             *float64     `json:"days_of_cover"`
	PriorityScore           float64      `json:"priority_score"`
	ReasonFlags             []ReasonFlag `json:"reason_flags"`
	Status                  StockStatus  `json:"status"`
	Simulated               bool         `json:"simulated,omitempty"`
	AsOf                    time.Time    `json:"as_of"`
}

// ForecastResult is the full response of a forecast computation.
type ForecastResult struct {
	Kind             string               `json:"kind"` // "sku" or "total"
	SKU              string               `json:"sku,omitempty"`
	Marketplace      string               `json:"marketplace"`
	HistoryDays      int                  `json:"history_days"`
	HorizonDays      int                  `json:"horizon_days"`
	ModelName        string               `json:"model_name"`
	MAE30d           float64              `json:"mae_30d"`
	MAPE30d          float64              `json:"mape_30d"`
	DataEndDate      time.Time            `json:"data_end_date"`
	BacktestPoints   []BacktestPoint      `json:"backtest_points"`
	ActualPoints     []DemandPoint        `json:"actual_points"`
	ForecastPoints   []ForecastPoint      `json:"forecast_points"`
	Intelligence     ForecastIntelligence `json:"intelligence"`
	Recommendation   string               `json:"recommendation"`
	Reasoning        []string             `json:"reasoning"`
	ConfidenceBounds []ConfidenceBound    `json:"confidence_bounds,omitempty"`
	Drift            *DriftReport         `json:"drift,omitempty"`
	AppliedOverrides []Override           `json:"applied_overrides,omitempty"`
	DataQuality      *DataQuality         `json:"data_quality,omitempty"`
}

// RestockPlanResult pairs a forecast with the recommendation derived from it,
// for the single-SKU planning view.
type RestockPlanResult struct {
	Forecast       *ForecastResult       `json:"forecast"`
	Recommendation RestockRecommendation `json:"recommendation"`
}

// RestockActionItem is the simplified status-based view of one SKU.
type RestockActionItem struct {
	SKU                 string      `json:"sku"`
	Marketplace         string      `json:"marketplace"`
	Status              StockStatus `json:"status"`
	DaysOfCoverExpected *float64    `json:"days_of_cover_expected"`
	DailyDemandEstimate float64     `json:"daily_demand_estimate"`
	CurrentStockUnits   float64     `json:"current_stock_units"`
	LeadTimeDays        float64     `json:"lead_time_days"`
	RecommendedUnits    float64     `json:"recommended_units"`
	Reasoning           []string    `json:"reasoning,omitempty"`
}

// RecommendationBatch is the output of a catalog-wide recommendation run.
type RecommendationBatch struct {
	Items       []RestockRecommendation `json:"items"`
	DataQuality DataQuality             `json:"data_quality"`
}

// WhatIfPatch overrides selected recommendation inputs for a simulation.
// Nil fields keep the base values.
type WhatIfPatch struct {
	DailyDemandEstimate *float64 `json:"daily_demand_estimate"`
	DemandStd           *float64 `json:"demand_std"`
	LeadTimeDaysMean    *float64 `json:"lead_time_days_mean"`
	LeadTimeDaysStd     *float64 `json:"lead_time_days_std"`
	MOQUnits            *float64 `json:"moq_units"`
	PackSizeUnits       *float64 `json:"pack_size_units"`
	ServiceLevel        *float64 `json:"service_level"`
	MaxDaysOfCover      *float64 `json:"max_days_of_cover"`
	OnHandUnits         *float64 `json:"on_hand_units"`
	InboundUnits        *float64 `json:"inbound_units"`
	ReservedUnits       *float64 `json:"reserved_units"`
}
