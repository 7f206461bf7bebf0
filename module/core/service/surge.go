package service

import (
	"context"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/geo"
	"github.com/ridepool/livetrack/module/core/internal/repository/database"
)

type SurgeService struct {
	repo database.SurgeZoneRepository
}

func NewSurgeService(repo database.SurgeZoneRepository) *SurgeService {
	return &SurgeService{repo: repo}
}

// Classify returns the active surge zone containing the point, or nil
// when the point is outside every zone. Overlapping zones resolve to
// the highest multiplier.
func (s *SurgeService) Classify(ctx context.Context, point domain.Coordinates) (*domain.SurgeZone, error) {
	zones, err := s.repo.ActiveZones(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.SurgeZone
	for i := range zones {
		z := &zones[i]
		if !geo.PointInPolygon(point, z.Polygon) {
			continue
		}
		if best == nil || z.Multiplier > best.Multiplier {
			best = z
		}
	}
	return best, nil
}

// SeedZones validates and upserts zones, typically from a config file
// at boot.
func (s *SurgeService) SeedZones(ctx context.Context, zones []domain.SurgeZone) error {
	for i := range zones {
		z := &zones[i]
		if err := z.Validate(); err != nil {
			return err
		}
		if err := s.repo.UpsertZone(ctx, z); err != nil {
			return err
		}
	}
	return nil
}
