package service

import (
	"context"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/forecast"
	"github.com/andresuchdata/restock-planner/internal/repository"
)

// OverrideService manages owner-defined forecast overrides. Every mutation
// invalidates cached forecasts so adjusted numbers take effect immediately.
type OverrideService struct {
	store     repository.OverrideStore
	forecasts *ForecastService
}

func NewOverrideService(store repository.OverrideStore, forecasts *ForecastService) *OverrideService {
	return &OverrideService{store: store, forecasts: forecasts}
}

func (s *OverrideService) List(ctx context.Context, marketplace string) ([]domain.Override, error) {
	return s.store.List(ctx, marketplace)
}

func (s *OverrideService) Create(ctx context.Context, o *domain.Override) error {
	if err := forecast.ValidateOverride(*o); err != nil {
		return err
	}
	if err := s.store.Create(ctx, o); err != nil {
		return err
	}
	s.forecasts.InvalidateCache(ctx)
	return nil
}

func (s *OverrideService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.forecasts.InvalidateCache(ctx)
	return nil
}
