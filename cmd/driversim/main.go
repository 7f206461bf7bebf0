package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/service"
)

type options struct {
	Broker    string  `short:"b" long:"broker"    env:"MQTT_BROKER" description:"MQTT broker address"           default:"tcp://localhost:1883"`
	TripID    string  `short:"t" long:"trip"      description:"Trip id to publish under"                        required:"true"`
	DriverID  string  `short:"d" long:"driver"    description:"Driver id (random when omitted)"`
	Interval  int     `short:"i" long:"interval"  description:"Publish interval in seconds"                     default:"5"`
	StartLat  float64 `long:"start-lat"           description:"Starting latitude"                               default:"28.6519"`
	StartLng  float64 `long:"start-lng"           description:"Starting longitude"                              default:"77.1909"`
	TargetLat float64 `long:"target-lat"          description:"Target latitude to drift toward"                 default:"28.6139"`
	TargetLng float64 `long:"target-lng"          description:"Target longitude to drift toward"                default:"77.2090"`
	Speed     float64 `long:"speed"               description:"Simulated speed in m/s"                          default:"8"`
}

// mqttWriter publishes samples on the trip's location topic. The
// server-side ingest takes care of the keyed upsert.
type mqttWriter struct {
	client mqtt.Client
}

func (w *mqttWriter) WriteLocation(_ context.Context, loc *domain.TripLocation) error {
	payload, err := json.Marshal(domain.NewLocationMessage(loc))
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("trips/%s/location", loc.TripID)
	token := w.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// simSource drifts from the start point toward the target, one step
// per poll, with heading and speed derived from the movement.
type simSource struct {
	mu         sync.Mutex
	cur        domain.Coordinates
	target     domain.Coordinates
	stepMeters float64
	speed      float64
}

func (s *simSource) Current(_ context.Context) (domain.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dLat := s.target.Lat - s.cur.Lat
	dLng := s.target.Lng - s.cur.Lng
	// rough meters-per-degree conversion, good enough for a simulator
	remaining := math.Hypot(dLat*111195, dLng*111195*math.Cos(s.cur.Lat*math.Pi/180))

	if remaining > 1 {
		frac := s.stepMeters / remaining
		if frac > 1 {
			frac = 1
		}
		s.cur.Lat += dLat * frac
		s.cur.Lng += dLng * frac
	}

	heading := math.Mod(math.Atan2(dLng, dLat)*180/math.Pi+360, 360)
	speed := s.speed

	return domain.LocationSample{
		Coordinates: s.cur,
		Heading:     &heading,
		Speed:       &speed,
	}, nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.DriverID == "" {
		opts.DriverID = uuid.NewString()
	}

	mqttOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID("driversim-" + opts.DriverID)

	client := mqtt.NewClient(mqttOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	interval := time.Duration(opts.Interval) * time.Second
	src := &simSource{
		cur:        domain.Coordinates{Lat: opts.StartLat, Lng: opts.StartLng},
		target:     domain.Coordinates{Lat: opts.TargetLat, Lng: opts.TargetLng},
		stepMeters: opts.Speed * interval.Seconds(),
		speed:      opts.Speed,
	}

	pub := service.NewLocationPublisher(&mqttWriter{client: client})
	pub.SetUpdateInterval(interval)
	pub.StartTracking(context.Background(), opts.TripID, opts.DriverID, src)

	log.Info().
		Str("trip_id", opts.TripID).
		Str("driver_id", opts.DriverID).
		Dur("interval", pub.UpdateInterval()).
		Msg("publishing simulated locations")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	pub.StopTracking()
	pub.Wait()
	log.Info().Msg("shutting down")
}
