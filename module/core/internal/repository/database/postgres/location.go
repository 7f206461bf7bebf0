package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// Upsert replaces the row for the (trip, driver) key; live_locations
// holds only the current sample, never history.
func (r *LocationRepo) Upsert(ctx context.Context, loc *domain.TripLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO live_locations (trip_id, driver_id, latitude, longitude, heading, speed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (trip_id, driver_id) DO UPDATE SET
		   latitude = EXCLUDED.latitude,
		   longitude = EXCLUDED.longitude,
		   heading = EXCLUDED.heading,
		   speed = EXCLUDED.speed,
		   updated_at = EXCLUDED.updated_at`,
		loc.TripID, loc.DriverID, loc.Sample.Lat, loc.Sample.Lng,
		nullFloat(loc.Sample.Heading), nullFloat(loc.Sample.Speed), loc.Sample.Timestamp,
	)
	return err
}

// GetLatest returns the most recent sample for the trip, or (nil, nil)
// when nothing has been published yet.
func (r *LocationRepo) GetLatest(ctx context.Context, tripID string) (*domain.TripLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT driver_id, latitude, longitude, heading, speed, updated_at
		 FROM live_locations WHERE trip_id = $1
		 ORDER BY updated_at DESC LIMIT 1`,
		tripID,
	)

	var (
		loc            domain.TripLocation
		heading, speed sql.NullFloat64
	)
	loc.TripID = tripID
	err := row.Scan(&loc.DriverID, &loc.Sample.Lat, &loc.Sample.Lng, &heading, &speed, &loc.Sample.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if heading.Valid {
		loc.Sample.Heading = &heading.Float64
	}
	if speed.Valid {
		loc.Sample.Speed = &speed.Float64
	}
	return &loc, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
