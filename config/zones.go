package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ridepool/livetrack/module/core/domain"
)

type zonesFile struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID          string       `yaml:"id"`
	Multiplier  float64      `yaml:"multiplier"`
	DemandLevel string       `yaml:"demand_level"`
	Active      *bool        `yaml:"active,omitempty"`
	Polygon     [][2]float64 `yaml:"polygon"` // [lat, lng] pairs
}

// LoadSurgeZones reads the YAML seed file used to provision surge
// zones at boot. Zones default to active unless the file says
// otherwise.
func LoadSurgeZones(path string) ([]domain.SurgeZone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f zonesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse zones file: %w", err)
	}

	zones := make([]domain.SurgeZone, 0, len(f.Zones))
	for _, e := range f.Zones {
		z := domain.SurgeZone{
			ID:          e.ID,
			Multiplier:  e.Multiplier,
			DemandLevel: domain.DemandLevel(e.DemandLevel),
			Active:      true,
		}
		if e.Active != nil {
			z.Active = *e.Active
		}
		for _, v := range e.Polygon {
			z.Polygon = append(z.Polygon, domain.Coordinates{Lat: v[0], Lng: v[1]})
		}
		if err := z.Validate(); err != nil {
			return nil, fmt.Errorf("zone %q: %w", e.ID, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}
