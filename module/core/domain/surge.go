package domain

import "fmt"

type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandMedium   DemandLevel = "medium"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)

func ParseDemandLevel(s string) (DemandLevel, error) {
	switch DemandLevel(s) {
	case DemandLow, DemandMedium, DemandHigh, DemandVeryHigh:
		return DemandLevel(s), nil
	}
	return "", fmt.Errorf("unknown demand level %q", s)
}

// SurgeZone is a polygonal pricing area. The polygon is a closed ring;
// the last vertex implicitly connects back to the first.
type SurgeZone struct {
	ID          string        `json:"id"`
	Polygon     []Coordinates `json:"polygon"`
	Multiplier  float64       `json:"multiplier"`
	DemandLevel DemandLevel   `json:"demand_level"`
	Active      bool          `json:"active"`
}

func (z *SurgeZone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("id: required")
	}
	if len(z.Polygon) < 3 {
		return fmt.Errorf("polygon: needs at least 3 vertices, got %d", len(z.Polygon))
	}
	for i, v := range z.Polygon {
		if !v.Valid() {
			return fmt.Errorf("polygon[%d]: out of range", i)
		}
	}
	if z.Multiplier < 1.0 {
		return fmt.Errorf("multiplier: must be >= 1.0, got %g", z.Multiplier)
	}
	if _, err := ParseDemandLevel(string(z.DemandLevel)); err != nil {
		return fmt.Errorf("demand_level: %w", err)
	}
	return nil
}
