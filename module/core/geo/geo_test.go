package geo

import (
	"math"
	"testing"

	"github.com/ridepool/livetrack/module/core/domain"
)

func TestDistance_SamePoint(t *testing.T) {
	a := domain.Coordinates{Lat: 28.6139, Lng: 77.2090}
	if d := Distance(a, a); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := domain.Coordinates{Lat: 28.6139, Lng: 77.2090}
	b := domain.Coordinates{Lat: -6.2088, Lng: 106.8456}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance not symmetric: %f vs %f", Distance(a, b), Distance(b, a))
	}
}

func TestDistance_SmallOffset(t *testing.T) {
	// 0.0001 degrees of latitude is roughly 11.1 m
	a := domain.Coordinates{Lat: 28.6139, Lng: 77.2090}
	b := domain.Coordinates{Lat: 28.6140, Lng: 77.2090}
	d := Distance(a, b)
	if math.Abs(d-11.1) > 1 {
		t.Errorf("expected ~11.1m, got %f", d)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{42.4, "42 m"},
		{999, "999 m"},
		{999.6, "1000 m"},
		{1000, "1.0 km"},
		{2500, "2.5 km"},
		{12345, "12.3 km"},
	}

	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%g) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}

func TestPointInPolygon_Triangle(t *testing.T) {
	triangle := []domain.Coordinates{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 0},
	}

	if !PointInPolygon(domain.Coordinates{Lat: 1, Lng: 1}, triangle) {
		t.Error("expected (1,1) inside triangle")
	}
	if PointInPolygon(domain.Coordinates{Lat: 9, Lng: 9}, triangle) {
		t.Error("expected (9,9) outside triangle")
	}
}

func TestPointInPolygon_Degenerate(t *testing.T) {
	two := []domain.Coordinates{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 10}}
	if PointInPolygon(domain.Coordinates{Lat: 5, Lng: 5}, two) {
		t.Error("expected false for polygon with 2 points")
	}
	if PointInPolygon(domain.Coordinates{Lat: 5, Lng: 5}, nil) {
		t.Error("expected false for nil polygon")
	}
}

func TestPointInPolygon_Square(t *testing.T) {
	square := []domain.Coordinates{
		{Lat: -1, Lng: -1},
		{Lat: -1, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: -1},
	}

	if !PointInPolygon(domain.Coordinates{Lat: 0, Lng: 0}, square) {
		t.Error("expected origin inside square")
	}
	if PointInPolygon(domain.Coordinates{Lat: 2, Lng: 0}, square) {
		t.Error("expected (2,0) outside square")
	}
}
