package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/config"
	"github.com/ridepool/livetrack/module/core"
	"github.com/ridepool/livetrack/module/core/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq")
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt")
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(db, amqpConn, mqttClient, service.GeofenceConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("core module")
	}

	if cfg.SurgeZonesFile != "" {
		zones, err := config.LoadSurgeZones(cfg.SurgeZonesFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SurgeZonesFile).Msg("load surge zones")
		}
		if err := coreModule.SurgeSvc.SeedZones(context.Background(), zones); err != nil {
			log.Fatal().Err(err).Msg("seed surge zones")
		}
		log.Info().Int("zones", len(zones)).Msg("surge zones seeded")
	}

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatal().Err(err).Msg("start subscribers")
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	log.Info().Str("port", cfg.HTTPPort).Msg("listening")
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
