package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/geo"
	"github.com/ridepool/livetrack/module/core/internal/repository/publisher"
)

const (
	// NearThresholdMeters is the distance at which a "nearby" alert fires.
	NearThresholdMeters = 500.0
	// ArrivedThresholdMeters is the distance at which an "arrived" alert
	// fires, superseding "nearby" when both hold for the same sample.
	ArrivedThresholdMeters = 50.0
)

var (
	ErrSessionExists = errors.New("tracking session already exists for trip")
	ErrNoSession     = errors.New("no tracking session for trip")
)

type GeofenceConfig struct {
	NearThresholdMeters    float64
	ArrivedThresholdMeters float64
}

func (c GeofenceConfig) withDefaults() GeofenceConfig {
	if c.NearThresholdMeters <= 0 {
		c.NearThresholdMeters = NearThresholdMeters
	}
	if c.ArrivedThresholdMeters <= 0 {
		c.ArrivedThresholdMeters = ArrivedThresholdMeters
	}
	return c
}

// trackingSession holds the per-trip alert state machine. Alert flags
// are one-shot and edge-triggered: once set for a phase they stay set
// until the session is replaced, even if the driver moves away and
// back within threshold.
type trackingSession struct {
	mu           sync.Mutex
	sessionID    string
	tripID       string
	pickup       domain.Coordinates
	drop         domain.Coordinates
	phase        domain.TripPhase
	alerts       domain.GeofenceAlertState
	lastDistance *float64
	startedAt    time.Time
}

func (s *trackingSession) snapshot() *domain.TrackingSessionState {
	st := &domain.TrackingSessionState{
		SessionID: s.sessionID,
		TripID:    s.tripID,
		Phase:     s.phase,
		Pickup:    s.pickup,
		Drop:      s.drop,
		Alerts:    s.alerts,
		StartedAt: s.startedAt,
	}
	if s.lastDistance != nil {
		d := *s.lastDistance
		st.DistanceMeters = &d
		st.DistanceDisplay = geo.FormatDistance(d)
	}
	return st
}

// GeofenceService manages tracking sessions and evaluates inbound
// samples against them, publishing at-most-once proximity alerts.
type GeofenceService struct {
	publisher publisher.AlertPublisher
	cfg       GeofenceConfig

	mu       sync.RWMutex
	sessions map[string]*trackingSession
}

func NewGeofenceService(pub publisher.AlertPublisher, cfg GeofenceConfig) *GeofenceService {
	return &GeofenceService{
		publisher: pub,
		cfg:       cfg.withDefaults(),
		sessions:  make(map[string]*trackingSession),
	}
}

// StartSession creates a fresh session for the trip with cleared alert
// flags. A session that already exists is not replaced implicitly;
// callers must EndSession first.
func (g *GeofenceService) StartSession(tripID string, pickup, drop domain.Coordinates, phase domain.TripPhase) (*domain.TrackingSessionState, error) {
	if phase == "" {
		phase = domain.PhasePending
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[tripID]; ok {
		return nil, ErrSessionExists
	}
	s := &trackingSession{
		sessionID: uuid.NewString(),
		tripID:    tripID,
		pickup:    pickup,
		drop:      drop,
		phase:     phase,
		startedAt: time.Now(),
	}
	g.sessions[tripID] = s
	return s.snapshot(), nil
}

// EndSession is idempotent; ending a trip that is not tracked is a no-op.
func (g *GeofenceService) EndSession(tripID string) {
	g.mu.Lock()
	delete(g.sessions, tripID)
	g.mu.Unlock()
}

// SetPhase applies an externally driven trip-status transition. The
// alert flags are untouched: moving to ongoing arms only the drop flag.
func (g *GeofenceService) SetPhase(tripID string, phase domain.TripPhase) (*domain.TrackingSessionState, error) {
	g.mu.RLock()
	s, ok := g.sessions[tripID]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	return s.snapshot(), nil
}

func (g *GeofenceService) Snapshot(tripID string) (*domain.TrackingSessionState, bool) {
	g.mu.RLock()
	s, ok := g.sessions[tripID]
	g.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), true
}

// CheckAndAlert evaluates one sample against the trip's session. A trip
// without a session is not an error; absence of tracking means absence
// of alerts. Distance is recomputed and exposed even after the phase
// flag fired or the trip completed. Publish failures are logged and
// swallowed so a broker outage never breaks the ingest path.
func (g *GeofenceService) CheckAndAlert(ctx context.Context, tripID string, sample domain.LocationSample) error {
	g.mu.RLock()
	s, ok := g.sessions[tripID]
	g.mu.RUnlock()
	if !ok {
		return nil
	}

	alert := g.evaluate(s, sample)
	if alert == nil {
		return nil
	}

	if err := g.publisher.PublishAlert(ctx, alert); err != nil {
		log.Error().Err(err).
			Str("trip_id", tripID).
			Str("kind", string(alert.Kind)).
			Msg("publish trip alert")
	}
	return nil
}

func (g *GeofenceService) evaluate(s *trackingSession, sample domain.LocationSample) *domain.TripAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.drop
	if s.phase == domain.PhasePending {
		target = s.pickup
	}
	dist := geo.Distance(sample.Coordinates, target)
	s.lastDistance = &dist

	var kind domain.AlertKind
	var haptic bool

	switch s.phase {
	case domain.PhasePending:
		if s.alerts.PickupAlerted {
			return nil
		}
		switch {
		case dist <= g.cfg.ArrivedThresholdMeters:
			kind, haptic = domain.AlertDriverArrived, true
		case dist <= g.cfg.NearThresholdMeters:
			kind = domain.AlertDriverNearby
		default:
			return nil
		}
		s.alerts.PickupAlerted = true
	case domain.PhaseOngoing:
		if s.alerts.DropAlerted {
			return nil
		}
		switch {
		case dist <= g.cfg.ArrivedThresholdMeters:
			kind, haptic = domain.AlertArrivedAtDrop, true
		case dist <= g.cfg.NearThresholdMeters:
			kind = domain.AlertApproachingDrop
		default:
			return nil
		}
		s.alerts.DropAlerted = true
	default:
		return nil
	}

	return &domain.TripAlert{
		ID:             uuid.NewString(),
		TripID:         s.tripID,
		Kind:           kind,
		Phase:          s.phase,
		DistanceMeters: dist,
		Location:       sample.Coordinates,
		Haptic:         haptic,
		Timestamp:      sample.Timestamp.Unix(),
	}
}
