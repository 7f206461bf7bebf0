package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ridepool/livetrack/module/core/domain"
)

const trianglePolygon = `[{"latitude":0,"longitude":0},{"latitude":0,"longitude":10},{"latitude":10,"longitude":0}]`

func TestActiveZones_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"id", "polygon", "multiplier", "demand_level", "active"}).
		AddRow("z1", []byte(trianglePolygon), 1.7, "high", true)

	mock.ExpectQuery(`SELECT id, polygon, multiplier, demand_level, active FROM surge_zones WHERE active = TRUE`).
		WillReturnRows(rows)

	repo := NewSurgeZoneRepo(db)
	zones, err := repo.ActiveZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}
	z := zones[0]
	if z.ID != "z1" {
		t.Errorf("expected z1, got %s", z.ID)
	}
	if len(z.Polygon) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(z.Polygon))
	}
	if z.Polygon[1].Lng != 10 {
		t.Errorf("expected lng 10, got %f", z.Polygon[1].Lng)
	}
	if z.Multiplier != 1.7 {
		t.Errorf("expected 1.7, got %f", z.Multiplier)
	}
	if z.DemandLevel != domain.DemandHigh {
		t.Errorf("expected high, got %s", z.DemandLevel)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestActiveZones_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"id", "polygon", "multiplier", "demand_level", "active"})
	mock.ExpectQuery(`SELECT id, polygon, multiplier, demand_level, active FROM surge_zones`).
		WillReturnRows(rows)

	repo := NewSurgeZoneRepo(db)
	zones, err := repo.ActiveZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 0 {
		t.Fatalf("expected 0 zones, got %d", len(zones))
	}
}

func TestActiveZones_MalformedPolygon(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"id", "polygon", "multiplier", "demand_level", "active"}).
		AddRow("z1", []byte(`not json`), 1.7, "high", true)

	mock.ExpectQuery(`SELECT id, polygon, multiplier, demand_level, active FROM surge_zones`).
		WillReturnRows(rows)

	repo := NewSurgeZoneRepo(db)
	if _, err := repo.ActiveZones(context.Background()); err == nil {
		t.Fatal("expected error for malformed polygon")
	}
}

func TestUpsertZone_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO surge_zones`).
		WithArgs("z1", []byte(trianglePolygon), 1.7, "high", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSurgeZoneRepo(db)
	err = repo.UpsertZone(context.Background(), &domain.SurgeZone{
		ID: "z1",
		Polygon: []domain.Coordinates{
			{Lat: 0, Lng: 0},
			{Lat: 0, Lng: 10},
			{Lat: 10, Lng: 0},
		},
		Multiplier:  1.7,
		DemandLevel: domain.DemandHigh,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
