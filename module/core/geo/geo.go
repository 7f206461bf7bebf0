// Package geo holds the pure geographic math used by the tracking
// pipeline. All functions are deterministic and side-effect free.
package geo

import (
	"fmt"
	"math"

	"github.com/ridepool/livetrack/module/core/domain"
)

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in
// meters, computed with the haversine formula.
func Distance(a, b domain.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders meters for display: "482 m" under a
// kilometer, "2.5 km" from there on.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// PointInPolygon reports whether p lies inside the polygon using the
// even-odd ray-casting rule, treating lng as x and lat as y. The ring
// is implicitly closed. Points exactly on an edge are classified
// arbitrarily, which is inherent to the algorithm. Fewer than 3
// vertices is degenerate and always false.
func PointInPolygon(p domain.Coordinates, polygon []domain.Coordinates) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := range polygon {
		xi, yi := polygon[i].Lng, polygon[i].Lat
		xj, yj := polygon[j].Lng, polygon[j].Lat
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lng < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
