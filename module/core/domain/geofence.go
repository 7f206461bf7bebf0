package domain

import "time"

type AlertKind string

const (
	AlertDriverNearby    AlertKind = "driver_nearby"
	AlertDriverArrived   AlertKind = "driver_arrived"
	AlertApproachingDrop AlertKind = "approaching_drop"
	AlertArrivedAtDrop   AlertKind = "arrived_at_drop"
)

// TripAlert is a one-shot proximity notification for a trip phase.
// Haptic marks alerts that should carry a vibration/audio cue.
type TripAlert struct {
	ID             string      `json:"id"`
	TripID         string      `json:"trip_id"`
	Kind           AlertKind   `json:"kind"`
	Phase          TripPhase   `json:"phase"`
	DistanceMeters float64     `json:"distance_meters"`
	Location       Coordinates `json:"location"`
	Haptic         bool        `json:"haptic"`
	Timestamp      int64       `json:"timestamp"`
}

// GeofenceAlertState holds the per-session one-shot flags. Once a flag
// is set no further alert fires for that phase until a new session.
type GeofenceAlertState struct {
	PickupAlerted bool `json:"pickup_alerted"`
	DropAlerted   bool `json:"drop_alerted"`
}

// TrackingSessionState is a read-only snapshot of a tracking session.
type TrackingSessionState struct {
	SessionID       string             `json:"session_id"`
	TripID          string             `json:"trip_id"`
	Phase           TripPhase          `json:"phase"`
	Pickup          Coordinates        `json:"pickup"`
	Drop            Coordinates        `json:"drop"`
	Alerts          GeofenceAlertState `json:"alerts"`
	DistanceMeters  *float64           `json:"distance_meters,omitempty"`
	DistanceDisplay string             `json:"distance_display,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
}
