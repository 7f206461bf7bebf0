package publisher

import (
	"context"

	"github.com/ridepool/livetrack/module/core/domain"
)

type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.TripAlert) error
}
