package restock

import "github.com/andresuchdata/restock-planner/internal/domain"

// Simulate merges a what-if patch onto base inputs and re-runs the
// recommender. Pure: nothing is persisted and the base input is not mutated.
// Contradictory values in the patch are rejected with a ValidationError.
func (r *Recommender) Simulate(base Input, patch domain.WhatIfPatch) (domain.RestockRecommendation, error) {
	if err := validatePatch(patch); err != nil {
		return domain.RestockRecommendation{}, err
	}

	merged := base
	if patch.DailyDemandEstimate != nil {
		merged.DailyDemandEstimate = *patch.DailyDemandEstimate
	}
	if patch.DemandStd != nil {
		merged.DemandStd = *patch.DemandStd
	}
	if patch.LeadTimeDaysMean != nil {
		merged.Supplier.LeadTimeDaysMean = *patch.LeadTimeDaysMean
		merged.SupplierFound = true
	}
	if patch.LeadTimeDaysStd != nil {
		merged.Supplier.LeadTimeDaysStd = *patch.LeadTimeDaysStd
		merged.SupplierFound = true
	}
	if patch.MOQUnits != nil {
		merged.Supplier.MOQUnits = *patch.MOQUnits
		merged.SupplierFound = true
	}
	if patch.PackSizeUnits != nil {
		merged.Supplier.PackSizeUnits = *patch.PackSizeUnits
		merged.SupplierFound = true
	}
	if patch.ServiceLevel != nil {
		merged.Supplier.ServiceLevel = *patch.ServiceLevel
		merged.SupplierFound = true
	}
	if patch.MaxDaysOfCover != nil {
		v := *patch.MaxDaysOfCover
		merged.Supplier.MaxDaysOfCover = &v
		merged.SupplierFound = true
	}
	if patch.OnHandUnits != nil {
		merged.Inventory.OnHandUnits = *patch.OnHandUnits
	}
	if patch.InboundUnits != nil {
		merged.Inventory.InboundUnits = *patch.InboundUnits
	}
	if patch.ReservedUnits != nil {
		merged.Inventory.ReservedUnits = *patch.ReservedUnits
	}

	rec := r.Recommend(merged)
	rec.Simulated = true
	return rec, nil
}

func validatePatch(p domain.WhatIfPatch) error {
	if p.DailyDemandEstimate != nil && *p.DailyDemandEstimate < 0 {
		return domain.NewValidationError("daily_demand_estimate", "must be >= 0")
	}
	if p.DemandStd != nil && *p.DemandStd < 0 {
		return domain.NewValidationError("demand_std", "must be >= 0")
	}
	if p.LeadTimeDaysMean != nil && *p.LeadTimeDaysMean <= 0 {
		return domain.NewValidationError("lead_time_days_mean", "must be > 0")
	}
	if p.LeadTimeDaysStd != nil && *p.LeadTimeDaysStd < 0 {
		return domain.NewValidationError("lead_time_days_std", "must be >= 0")
	}
	if p.ServiceLevel != nil && (*p.ServiceLevel <= 0 || *p.ServiceLevel >= 1) {
		return domain.NewValidationError("service_level", "must be inside (0,1)")
	}
	if p.MOQUnits != nil && *p.MOQUnits < 0 {
		return domain.NewValidationError("moq_units", "must be >= 0")
	}
	if p.PackSizeUnits != nil && *p.PackSizeUnits < 1 {
		return domain.NewValidationError("pack_size_units", "must be >= 1")
	}
	if p.MaxDaysOfCover != nil && *p.MaxDaysOfCover <= 0 {
		return domain.NewValidationError("max_days_of_cover", "must be > 0")
	}
	if p.OnHandUnits != nil && *p.OnHandUnits < 0 {
		return domain.NewValidationError("on_hand_units", "must be >= 0")
	}
	if p.InboundUnits != nil && *p.InboundUnits < 0 {
		return domain.NewValidationError("inbound_units", "must be >= 0")
	}
	if p.ReservedUnits != nil && *p.ReservedUnits < 0 {
		return domain.NewValidationError("reserved_units", "must be >= 0")
	}
	return nil
}
