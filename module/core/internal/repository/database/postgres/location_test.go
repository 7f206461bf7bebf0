package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ridepool/livetrack/module/core/domain"
)

func TestUpsert_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	heading := 182.5
	mock.ExpectExec(`INSERT INTO live_locations`).
		WithArgs("trip-1", "driver-1", 28.6139, 77.2090, heading, nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewLocationRepo(db)
	err = repo.Upsert(context.Background(), &domain.TripLocation{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Sample: domain.LocationSample{
			Coordinates: domain.Coordinates{Lat: 28.6139, Lng: 77.2090},
			Heading:     &heading,
			Timestamp:   ts,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsert_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO live_locations`).
		WithArgs("trip-1", "driver-1", 28.6139, 77.2090, nil, nil, ts).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewLocationRepo(db)
	err = repo.Upsert(context.Background(), &domain.TripLocation{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Sample: domain.LocationSample{
			Coordinates: domain.Coordinates{Lat: 28.6139, Lng: 77.2090},
			Timestamp:   ts,
		},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetLatest_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	rows := sqlmock.NewRows([]string{"driver_id", "latitude", "longitude", "heading", "speed", "updated_at"}).
		AddRow("driver-1", 28.6139, 77.2090, 182.5, nil, ts)

	mock.ExpectQuery(`SELECT driver_id, latitude, longitude, heading, speed, updated_at\s+FROM live_locations WHERE trip_id = (.+)\s+ORDER BY updated_at DESC LIMIT 1`).
		WithArgs("trip-1").
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	loc, err := repo.GetLatest(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.TripID != "trip-1" {
		t.Errorf("expected trip-1, got %s", loc.TripID)
	}
	if loc.DriverID != "driver-1" {
		t.Errorf("expected driver-1, got %s", loc.DriverID)
	}
	if loc.Sample.Heading == nil || *loc.Sample.Heading != 182.5 {
		t.Errorf("expected heading 182.5, got %v", loc.Sample.Heading)
	}
	if loc.Sample.Speed != nil {
		t.Errorf("expected nil speed, got %v", *loc.Sample.Speed)
	}
	if !loc.Sample.Timestamp.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, loc.Sample.Timestamp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetLatest_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"driver_id", "latitude", "longitude", "heading", "speed", "updated_at"})
	mock.ExpectQuery(`SELECT driver_id, latitude, longitude, heading, speed, updated_at`).
		WithArgs("fresh-trip").
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	loc, err := repo.GetLatest(context.Background(), "fresh-trip")
	if err != nil {
		t.Fatalf("no rows must not be an error, got %v", err)
	}
	if loc != nil {
		t.Fatalf("expected nil, got %+v", loc)
	}
}
