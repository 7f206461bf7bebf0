package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/internal/repository/database"
)

var _ database.SurgeZoneRepository = (*SurgeZoneRepo)(nil)

// SurgeZoneRepo stores zone polygons as a JSON array of vertices in a
// jsonb column.
type SurgeZoneRepo struct {
	db *sql.DB
}

func NewSurgeZoneRepo(db *sql.DB) *SurgeZoneRepo {
	return &SurgeZoneRepo{db: db}
}

func (r *SurgeZoneRepo) ActiveZones(ctx context.Context) ([]domain.SurgeZone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, polygon, multiplier, demand_level, active FROM surge_zones WHERE active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var zones []domain.SurgeZone
	for rows.Next() {
		var (
			z       domain.SurgeZone
			polygon []byte
			level   string
		)
		if err := rows.Scan(&z.ID, &polygon, &z.Multiplier, &level, &z.Active); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(polygon, &z.Polygon); err != nil {
			return nil, fmt.Errorf("zone %s polygon: %w", z.ID, err)
		}
		z.DemandLevel = domain.DemandLevel(level)
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *SurgeZoneRepo) UpsertZone(ctx context.Context, zone *domain.SurgeZone) error {
	polygon, err := json.Marshal(zone.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO surge_zones (id, polygon, multiplier, demand_level, active)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   polygon = EXCLUDED.polygon,
		   multiplier = EXCLUDED.multiplier,
		   demand_level = EXCLUDED.demand_level,
		   active = EXCLUDED.active`,
		zone.ID, polygon, zone.Multiplier, string(zone.DemandLevel), zone.Active,
	)
	return err
}
