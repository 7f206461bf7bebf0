package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
)

const (
	// DefaultUpdateInterval is the pause between publishing iterations.
	DefaultUpdateInterval = 5 * time.Second
	// MinUpdateInterval bounds the request rate; smaller values are clamped.
	MinUpdateInterval = time.Second
)

// PositionSource supplies the device's current position. It may fail
// (no permission, sensor error); a failed read skips the iteration.
type PositionSource interface {
	Current(ctx context.Context) (domain.LocationSample, error)
}

// LocationWriter pushes the current sample for a (trip, driver) pair
// to the shared location transport.
type LocationWriter interface {
	WriteLocation(ctx context.Context, loc *domain.TripLocation) error
}

// LocationPublisher runs the driver-side sampling loop. The sleep
// happens after each completed write, not on a fixed wall-clock tick,
// so slow round-trips throttle the effective rate and upserts never
// overlap.
type LocationPublisher struct {
	writer   LocationWriter
	interval int64 // nanoseconds, guarded by mu

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewLocationPublisher(writer LocationWriter) *LocationPublisher {
	return &LocationPublisher{
		writer:   writer,
		interval: int64(DefaultUpdateInterval),
	}
}

// SetUpdateInterval changes the inter-iteration pause for subsequent
// iterations, clamped to MinUpdateInterval.
func (p *LocationPublisher) SetUpdateInterval(d time.Duration) {
	if d < MinUpdateInterval {
		log.Warn().
			Dur("requested", d).
			Dur("clamped", MinUpdateInterval).
			Msg("update interval below minimum, clamping")
		d = MinUpdateInterval
	}
	p.mu.Lock()
	p.interval = int64(d)
	p.mu.Unlock()
}

func (p *LocationPublisher) UpdateInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.interval)
}

// StartTracking begins the publishing loop. At most one loop runs per
// publisher; starting while running is a warning no-op, never a second
// concurrent loop.
func (p *LocationPublisher) StartTracking(ctx context.Context, tripID, driverID string, src PositionSource) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		log.Warn().
			Str("trip_id", tripID).
			Str("driver_id", driverID).
			Msg("tracking already started, ignoring")
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go p.loop(ctx, tripID, driverID, src, stop, done)
}

// StopTracking requests the loop to exit after its current iteration.
// In-flight writes are allowed to complete. Idempotent.
func (p *LocationPublisher) StopTracking() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

// Wait blocks until the loop has exited. Returns immediately if no
// loop ever started.
func (p *LocationPublisher) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *LocationPublisher) loop(ctx context.Context, tripID, driverID string, src PositionSource, stop, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		// only clear the flag if no newer loop has started since
		if p.stop == stop {
			p.running = false
		}
		p.mu.Unlock()
		close(done)
	}()

	for {
		sample, err := src.Current(ctx)
		if err != nil {
			log.Warn().Err(err).
				Str("trip_id", tripID).
				Msg("position read failed, skipping iteration")
		} else {
			sample.Timestamp = time.Now()
			loc := &domain.TripLocation{TripID: tripID, DriverID: driverID, Sample: sample}
			// best effort: a failed write never aborts the session
			if err := p.writer.WriteLocation(ctx, loc); err != nil {
				log.Warn().Err(err).
					Str("trip_id", tripID).
					Str("driver_id", driverID).
					Msg("location write failed")
			}
		}

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(p.UpdateInterval()):
		}
	}
}
