package core

import (
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/ridepool/livetrack/module/core/internal/handler/http"
	"github.com/ridepool/livetrack/module/core/internal/handler/subscriber"
	"github.com/ridepool/livetrack/module/core/internal/repository/database/postgres"
	"github.com/ridepool/livetrack/module/core/internal/repository/publisher/rabbitmq"
	"github.com/ridepool/livetrack/module/core/service"
)

type Module struct {
	LocationSvc *service.LocationService
	GeofenceSvc *service.GeofenceService
	SurgeSvc    *service.SurgeService
	Feeds       *subscriber.FeedRegistry

	handler *handler.TripHandler
	ingest  *subscriber.LocationIngest
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, geofenceCfg service.GeofenceConfig) (*Module, error) {
	locationRepo := postgres.NewLocationRepo(db)
	surgeRepo := postgres.NewSurgeZoneRepo(db)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	locationSvc := service.NewLocationService(locationRepo)
	geofenceSvc := service.NewGeofenceService(alertPub, geofenceCfg)
	surgeSvc := service.NewSurgeService(surgeRepo)

	feeds := subscriber.NewFeedRegistry(mqttClient, locationSvc)
	ingest := subscriber.NewLocationIngest(mqttClient, locationSvc, geofenceSvc)
	h := handler.NewTripHandler(geofenceSvc, locationSvc, surgeSvc, feeds)

	return &Module{
		LocationSvc: locationSvc,
		GeofenceSvc: geofenceSvc,
		SurgeSvc:    surgeSvc,
		Feeds:       feeds,
		handler:     h,
		ingest:      ingest,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.ingest.Start()
}
