package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ridepool/livetrack/module/core/domain"
	"github.com/ridepool/livetrack/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	exchangeName = "trip.events"
	queueName    = "trip_alerts"
)

// AlertPublisher fans out trip proximity alerts so any sink (push
// notification worker, rider app gateway) can consume them.
type AlertPublisher struct {
	ch *amqp.Channel
}

func NewAlertPublisher(conn *amqp.Connection) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AlertPublisher{ch: ch}, nil
}

type alertMessage struct {
	ID             string           `json:"id"`
	TripID         string           `json:"trip_id"`
	Kind           domain.AlertKind `json:"kind"`
	Phase          domain.TripPhase `json:"phase"`
	DistanceMeters float64          `json:"distance_meters"`
	Location       alertLocation    `json:"location"`
	Haptic         bool             `json:"haptic"`
	Timestamp      int64            `json:"timestamp"`
}

type alertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *domain.TripAlert) error {
	msg := alertMessage{
		ID:             alert.ID,
		TripID:         alert.TripID,
		Kind:           alert.Kind,
		Phase:          alert.Phase,
		DistanceMeters: alert.DistanceMeters,
		Location: alertLocation{
			Latitude:  alert.Location.Lat,
			Longitude: alert.Location.Lng,
		},
		Haptic:    alert.Haptic,
		Timestamp: alert.Timestamp,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
