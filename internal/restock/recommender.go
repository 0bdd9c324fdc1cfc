package restock

import (
	"math"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
)

// Config holds the adjustable planning constants. They are configuration,
// not hardcoded business law.
type Config struct {
	ReviewPeriodDays      float64 // fallback when max_days_of_cover is unset, default 14
	DefaultLeadTimeDays   float64 // substituted when supplier settings are missing, default 14
	DefaultServiceLevel   float64 // default 0.95
	StatusUrgentSlackDays float64 // urgent when cover <= lead_time + this, default 3
	StatusWatchSlackDays  float64 // watch when cover <= lead_time + this, default 10
}

func (c Config) withDefaults() Config {
	if c.ReviewPeriodDays <= 0 {
		c.ReviewPeriodDays = 14
	}
	if c.DefaultLeadTimeDays <= 0 {
		c.DefaultLeadTimeDays = 14
	}
	if c.DefaultServiceLevel <= 0 || c.DefaultServiceLevel >= 1 {
		c.DefaultServiceLevel = 0.95
	}
	if c.StatusUrgentSlackDays <= 0 {
		c.StatusUrgentSlackDays = 3
	}
	if c.StatusWatchSlackDays <= 0 {
		c.StatusWatchSlackDays = 10
	}
	return c
}

// Input carries every value the recommender needs, fully materialized by the
// caller. The recommender itself never fetches anything.
type Input struct {
	SKU                 string
	Marketplace         string
	DailyDemandEstimate float64
	DemandStd           float64
	DemandFromFallback  bool // estimate did not come from the forecaster
	Inventory           domain.InventoryPosition
	Supplier            domain.SupplierSetting
	SupplierFound       bool
	AsOf                time.Time
}

// Recommender converts an adjusted demand estimate, a stock position and
// supplier lead-time statistics into a reorder recommendation. Stateless;
// identical inputs yield identical output.
type Recommender struct {
	cfg Config
}

func NewRecommender(cfg Config) *Recommender {
	return &Recommender{cfg: cfg.withDefaults()}
}

// Recommend computes safety stock, reorder point, target stock and a rounded
// order quantity under combined demand and lead-time variance.
func (r *Recommender) Recommend(in Input) domain.RestockRecommendation {
	supplier := in.Supplier
	flags := []domain.ReasonFlag{}

	if !in.SupplierFound {
		supplier = domain.SupplierSetting{
			SKU:              in.SKU,
			LeadTimeDaysMean: r.cfg.DefaultLeadTimeDays,
			PackSizeUnits:    1,
			ServiceLevel:     r.cfg.DefaultServiceLevel,
		}
		flags = append(flags, domain.FlagMissingSupplierSettings)
	}
	if supplier.PackSizeUnits < 1 {
		supplier.PackSizeUnits = 1
	}
	if supplier.ServiceLevel <= 0 || supplier.ServiceLevel >= 1 {
		supplier.ServiceLevel = r.cfg.DefaultServiceLevel
	}
	if in.DemandFromFallback {
		flags = append(flags, domain.FlagMissingForecastFallback)
	}

	demand := math.Max(0, in.DailyDemandEstimate)
	demandStd := math.Max(0, in.DemandStd)
	leadTime := supplier.LeadTimeDaysMean
	leadTimeStd := supplier.LeadTimeDaysStd

	// 1. Lead-time demand and combined variance under uncertain demand and
	// uncertain lead time.
	leadTimeDemand := demand * leadTime
	variance := leadTime*demandStd*demandStd + demand*demand*leadTimeStd*leadTimeStd

	// 2. Safety stock at the target service level.
	safetyStock := math.Max(0, zScore(supplier.ServiceLevel)*math.Sqrt(variance))

	// 3. Reorder point and target stock with a review-period buffer.
	reorderPoint := leadTimeDemand + safetyStock
	reviewDays := r.cfg.ReviewPeriodDays
	if supplier.MaxDaysOfCover != nil && *supplier.MaxDaysOfCover > 0 {
		reviewDays = *supplier.MaxDaysOfCover
	}
	targetStock := reorderPoint + demand*reviewDays

	// 4. Raw order quantity against the current position.
	available := in.Inventory.AvailableUnits()
	inbound := math.Max(0, in.Inventory.InboundUnits)
	recommended := math.Max(0, targetStock-available-inbound)

	// 5. Pack rounding up, then MOQ floor.
	rounded := recommended
	if rounded > 0 {
		rounded = math.Ceil(rounded/supplier.PackSizeUnits) * supplier.PackSizeUnits
		if rounded < supplier.MOQUnits {
			rounded = supplier.MOQUnits
			// MOQ itself may not be pack-aligned; round it up too.
			rounded = math.Ceil(rounded/supplier.PackSizeUnits) * supplier.PackSizeUnits
		}
	}
	if rounded > recommended && recommended > 0 {
		flags = append(flags, domain.FlagMOQApplied)
	}

	// 6. Days of cover and urgency. Cover is undefined when demand is zero.
	var daysOfCover *float64
	priority := 0.0
	if demand > 0 {
		cover := available / demand
		daysOfCover = &cover
		if leadTime > 0 {
			priority = clamp01(1 - cover/leadTime)
		}
		if cover <= leadTime {
			flags = append(flags, domain.FlagUrgentStockoutRisk)
		} else if cover <= leadTime+reviewDays {
			flags = append(flags, domain.FlagReorderSoon)
		}
	}

	return domain.RestockRecommendation{
		SKU:                     in.SKU,
		Marketplace:             in.Marketplace,
		SupplierID:              supplier.SupplierID,
		DailyDemandEstimate:     demand,
		DemandStd:               demandStd,
		LeadTimeDaysMean:        leadTime,
		LeadTimeDaysStd:         leadTimeStd,
		ServiceLevel:            supplier.ServiceLevel,
		SafetyStock:             safetyStock,
		ReorderPoint:            reorderPoint,
		TargetStock:             targetStock,
		AvailableUnits:          available,
		InboundUnits:            inbound,
		RecommendedOrderUnits:   recommended,
		RecommendedUnitsRounded: rounded,
		PackSizeUnits:           supplier.PackSizeUnits,
		MOQUnits:                supplier.MOQUnits,
		DaysOfCover:             daysOfCover,
		PriorityScore:           priority,
		ReasonFlags:             flags,
		Status:                  r.Classify(daysOfCover, demand, available, leadTime),
		AsOf:                    in.AsOf,
	}
}

// Classify maps a position to the simplified restock-action status.
func (r *Recommender) Classify(daysOfCover *float64, demand, stock, leadTimeDays float64) domain.StockStatus {
	if demand <= 0 || daysOfCover == nil || stock <= 0 {
		return domain.StatusInsufficientData
	}
	switch {
	case *daysOfCover <= leadTimeDays+r.cfg.StatusUrgentSlackDays:
		return domain.StatusUrgent
	case *daysOfCover <= leadTimeDays+r.cfg.StatusWatchSlackDays:
		return domain.StatusWatch
	default:
		return domain.StatusHealthy
	}
}

// InsufficientRow builds the degraded row used when a SKU's computation
// failed; batch runs must not abort on one SKU.
func (r *Recommender) InsufficientRow(sku, marketplace string, asOf time.Time) domain.RestockRecommendation {
	return domain.RestockRecommendation{
		SKU:         sku,
		Marketplace: marketplace,
		Status:      domain.StatusInsufficientData,
		ReasonFlags: []domain.ReasonFlag{domain.FlagMissingForecastFallback},
		AsOf:        asOf,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
