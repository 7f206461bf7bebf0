package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Coordinates is a WGS84 point in degrees.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// LocationSample is one observation of a moving driver. Samples are
// immutable; a newer sample fully replaces the previous one for a trip.
type LocationSample struct {
	Coordinates
	Heading   *float64  `json:"heading,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TripLocation is the current sample for a (trip, driver) pair.
type TripLocation struct {
	TripID   string         `json:"trip_id"`
	DriverID string         `json:"driver_id"`
	Sample   LocationSample `json:"sample"`
}

type TripPhase string

const (
	PhasePending   TripPhase = "pending"
	PhaseOngoing   TripPhase = "ongoing"
	PhaseCompleted TripPhase = "completed"
)

func ParseTripPhase(s string) (TripPhase, error) {
	switch TripPhase(s) {
	case PhasePending, PhaseOngoing, PhaseCompleted:
		return TripPhase(s), nil
	}
	return "", fmt.Errorf("unknown trip phase %q", s)
}

// flexFloat accepts JSON numbers that may arrive encoded as strings.
// The transport does not guarantee numeric typing, so parsing happens
// here at the boundary rather than in business logic.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("numeric field: %w", err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// LocationMessage is the wire shape drivers publish on the location
// topic. Optional fields stay nil when absent instead of failing the
// whole message.
type LocationMessage struct {
	TripID    string     `json:"trip_id"`
	DriverID  string     `json:"driver_id"`
	Latitude  flexFloat  `json:"latitude"`
	Longitude flexFloat  `json:"longitude"`
	Heading   *flexFloat `json:"heading,omitempty"`
	Speed     *flexFloat `json:"speed,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

func (m *LocationMessage) Validate() error {
	if m.TripID == "" {
		return fmt.Errorf("trip_id: required")
	}
	if m.DriverID == "" {
		return fmt.Errorf("driver_id: required")
	}
	if m.Latitude < -90 || m.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if m.Longitude < -180 || m.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if m.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}

func (m *LocationMessage) ToSample() LocationSample {
	s := LocationSample{
		Coordinates: Coordinates{Lat: float64(m.Latitude), Lng: float64(m.Longitude)},
		Timestamp:   time.Unix(m.Timestamp, 0),
	}
	if m.Heading != nil {
		h := float64(*m.Heading)
		s.Heading = &h
	}
	if m.Speed != nil {
		v := float64(*m.Speed)
		s.Speed = &v
	}
	return s
}

// NewLocationMessage builds the wire message for an outbound sample.
func NewLocationMessage(loc *TripLocation) LocationMessage {
	m := LocationMessage{
		TripID:    loc.TripID,
		DriverID:  loc.DriverID,
		Latitude:  flexFloat(loc.Sample.Lat),
		Longitude: flexFloat(loc.Sample.Lng),
		Timestamp: loc.Sample.Timestamp.Unix(),
	}
	if loc.Sample.Heading != nil {
		h := flexFloat(*loc.Sample.Heading)
		m.Heading = &h
	}
	if loc.Sample.Speed != nil {
		v := flexFloat(*loc.Sample.Speed)
		m.Speed = &v
	}
	return m
}
