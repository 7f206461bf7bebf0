package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
)

// mqttConn is the slice of the paho client the feed needs; narrowed
// for testability.
type mqttConn interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

type latestFetcher interface {
	GetLatest(ctx context.Context, tripID string) (*domain.TripLocation, error)
}

// FeedRegistry hands out per-trip live feeds. The transport keys
// subscriptions by topic string, so subscribing to a trip that already
// has a feed tears the old one down first instead of leaking it.
type FeedRegistry struct {
	client    mqttConn
	locations latestFetcher

	mu    sync.Mutex
	feeds map[string]*TripFeed
}

func NewFeedRegistry(client mqttConn, locations latestFetcher) *FeedRegistry {
	return &FeedRegistry{
		client:    client,
		locations: locations,
		feeds:     make(map[string]*TripFeed),
	}
}

// Subscribe opens a feed for the trip: a change subscription on the
// trip's topic plus a concurrent one-time fetch of the stored sample.
// No ordering is assumed between the two; the feed keeps whichever
// sample carries the newest timestamp.
func (r *FeedRegistry) Subscribe(ctx context.Context, tripID string) (*TripFeed, error) {
	r.mu.Lock()
	prev := r.feeds[tripID]
	r.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}

	f := &TripFeed{
		tripID:   tripID,
		topic:    fmt.Sprintf("trips/%s/location", tripID),
		client:   r.client,
		registry: r,
		updates:  make(chan domain.TripLocation, 16),
	}

	token := r.client.Subscribe(f.topic, 1, f.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", f.topic, err)
	}

	r.mu.Lock()
	r.feeds[tripID] = f
	r.mu.Unlock()

	go f.fetchInitial(ctx, r.locations)

	return f, nil
}

func (r *FeedRegistry) remove(tripID string, f *TripFeed) {
	r.mu.Lock()
	if r.feeds[tripID] == f {
		delete(r.feeds, tripID)
	}
	r.mu.Unlock()
}

// TripFeed exposes the last known location of one trip. The current
// sample is only ever fully replaced, never merged, and a sample older
// than the held one is dropped so fetch/feed races cannot move the
// position backwards.
type TripFeed struct {
	tripID   string
	topic    string
	client   mqttConn
	registry *FeedRegistry

	mu       sync.Mutex
	current  *domain.TripLocation
	fetchErr error
	closed   bool
	updates  chan domain.TripLocation
}

func (f *TripFeed) TripID() string { return f.tripID }

// Current returns the last known sample (nil before the first one) and
// the sticky initial-fetch error, if any. A fetch failure does not
// clear previously received data; callers may show stale positions
// while flagging the error.
func (f *TripFeed) Current() (*domain.TripLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, f.fetchErr
	}
	cp := *f.current
	return &cp, f.fetchErr
}

// Updates delivers change notifications. Sends are non-blocking: a
// slow consumer misses intermediate samples but can always read the
// latest via Current. The channel closes on Unsubscribe.
func (f *TripFeed) Updates() <-chan domain.TripLocation {
	return f.updates
}

// Unsubscribe releases the underlying topic subscription exactly once;
// further calls are no-ops. Safe to call from teardown paths while a
// fetch or change event is still in flight — late results are
// discarded.
func (f *TripFeed) Unsubscribe() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.updates)
	f.mu.Unlock()

	if token := f.client.Unsubscribe(f.topic); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", f.topic).Msg("unsubscribe failed")
	}
	f.registry.remove(f.tripID, f)
}

func (f *TripFeed) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw domain.LocationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid feed message")
		return
	}
	if err := raw.Validate(); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("feed message failed validation")
		return
	}
	f.apply(&domain.TripLocation{
		TripID:   raw.TripID,
		DriverID: raw.DriverID,
		Sample:   raw.ToSample(),
	})
}

func (f *TripFeed) fetchInitial(ctx context.Context, fetcher latestFetcher) {
	loc, err := fetcher.GetLatest(ctx, f.tripID)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.fetchErr = err
	f.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("trip_id", f.tripID).Msg("initial location fetch failed")
		return
	}
	if loc != nil {
		f.apply(loc)
	}
}

func (f *TripFeed) apply(loc *domain.TripLocation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.current != nil && loc.Sample.Timestamp.Before(f.current.Sample.Timestamp) {
		return
	}
	f.current = loc

	select {
	case f.updates <- *loc:
	default:
	}
}
