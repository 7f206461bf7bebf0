package service

import (
	"context"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/internal/repository/database"
)

type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// UpsertLocation replaces the current sample for the (trip, driver)
// pair; the store keeps no history.
func (s *LocationService) UpsertLocation(ctx context.Context, loc *domain.TripLocation) error {
	return s.repo.Upsert(ctx, loc)
}

// GetLatest returns (nil, nil) when the trip has no stored sample yet.
func (s *LocationService) GetLatest(ctx context.Context, tripID string) (*domain.TripLocation, error) {
	return s.repo.GetLatest(ctx, tripID)
}
