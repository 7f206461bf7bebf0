package subscriber

import (
	"context"
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
)

const ingestTopicPattern = "trips/+/location"

type locationService interface {
	UpsertLocation(ctx context.Context, loc *domain.TripLocation) error
}

type geofenceService interface {
	CheckAndAlert(ctx context.Context, tripID string, sample domain.LocationSample) error
}

// LocationIngest consumes every driver location published on the
// shared transport, persists the current sample per (trip, driver) and
// drives geofence evaluation for tracked trips.
type LocationIngest struct {
	client      mqtt.Client
	locationSvc locationService
	geofenceSvc geofenceService
}

func NewLocationIngest(client mqtt.Client, locationSvc locationService, geofenceSvc geofenceService) *LocationIngest {
	return &LocationIngest{
		client:      client,
		locationSvc: locationSvc,
		geofenceSvc: geofenceSvc,
	}
}

func (s *LocationIngest) Start() error {
	token := s.client.Subscribe(ingestTopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationIngest) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw domain.LocationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid location message")
		return
	}

	if err := raw.Validate(); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("location message failed validation")
		return
	}

	loc := &domain.TripLocation{
		TripID:   raw.TripID,
		DriverID: raw.DriverID,
		Sample:   raw.ToSample(),
	}

	ctx := context.Background()

	if err := s.locationSvc.UpsertLocation(ctx, loc); err != nil {
		log.Error().Err(err).
			Str("trip_id", loc.TripID).
			Str("driver_id", loc.DriverID).
			Msg("upsert location failed")
		return
	}

	if err := s.geofenceSvc.CheckAndAlert(ctx, loc.TripID, loc.Sample); err != nil {
		log.Error().Err(err).
			Str("trip_id", loc.TripID).
			Msg("geofence check failed")
	}
}
