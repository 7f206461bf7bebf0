package database

import (
	"context"

	"github.com/ridepool/livetrack/module/core/domain"
)

// LocationRepository holds at most one row per (trip, driver) pair;
// Upsert replaces, never appends history.
type LocationRepository interface {
	Upsert(ctx context.Context, loc *domain.TripLocation) error
	// GetLatest returns (nil, nil) when no row exists for the trip.
	GetLatest(ctx context.Context, tripID string) (*domain.TripLocation, error)
}

type SurgeZoneRepository interface {
	ActiveZones(ctx context.Context) ([]domain.SurgeZone, error)
	UpsertZone(ctx context.Context, zone *domain.SurgeZone) error
}
