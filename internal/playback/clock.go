// Package playback models the media element a spectrogram is synchronized
// with: a current position, a duration that may be unknown, seeking and
// position change notifications.
package playback

import (
	"io"
	"log/slog"
	"math"
	"sync"
)

// EventType names a playback notification.
type EventType string

const (
	EventTimeUpdate     EventType = "timeupdate"
	EventSeeked         EventType = "seeked"
	EventLoadedMetadata EventType = "loadedmetadata"
)

// Event is delivered to subscribers after the clock state changed.
type Event struct {
	Type     EventType
	Time     float64 // Position in seconds after the change
	Duration float64 // Duration in seconds, 0 if unknown
}

// Handler receives playback events.
type Handler func(Event)

// SubscriptionID identifies a subscription. The zero value is never issued.
type SubscriptionID uint64

// Clock is the playback position source consumed by the spectrogram view.
type Clock interface {
	// CurrentTime returns the playback position in seconds.
	CurrentTime() float64
	// Duration returns the media length in seconds; zero or NaN when unknown.
	Duration() float64
	// Seek requests a new playback position.
	Seek(seconds float64)
	// Subscribe registers h for every playback event.
	Subscribe(h Handler) SubscriptionID
	// Unsubscribe removes a subscription; unknown ids are ignored.
	Unsubscribe(id SubscriptionID)
}

// MediaClock is an in-process Clock. Positions are clamped to [0, duration]
// once the duration is known.
type MediaClock struct {
	mu       sync.RWMutex
	current  float64
	duration float64

	bus    *bus
	logger *slog.Logger
}

// NewMediaClock creates a clock with an unknown duration.
func NewMediaClock(opts ...func(*MediaClock)) *MediaClock {
	c := &MediaClock{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bus = newBus(c.logger)
	return c
}

// WithLogger sets the logger used to report panicking handlers.
func WithLogger(logger *slog.Logger) func(*MediaClock) {
	return func(c *MediaClock) {
		c.logger = logger
	}
}

// WithDuration starts the clock with a known duration.
func WithDuration(seconds float64) func(*MediaClock) {
	return func(c *MediaClock) {
		c.duration = sanitizeDuration(seconds)
	}
}

func (c *MediaClock) CurrentTime() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *MediaClock) Duration() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.duration
}

// SetDuration records the media length, as when metadata finishes loading.
func (c *MediaClock) SetDuration(seconds float64) {
	c.mu.Lock()
	c.duration = sanitizeDuration(seconds)
	c.current = c.clamp(c.current)
	ev := Event{Type: EventLoadedMetadata, Time: c.current, Duration: c.duration}
	c.mu.Unlock()

	c.bus.publish(ev)
}

func (c *MediaClock) Seek(seconds float64) {
	c.mu.Lock()
	c.current = c.clamp(seconds)
	ev := Event{Type: EventSeeked, Time: c.current, Duration: c.duration}
	c.mu.Unlock()

	c.bus.publish(ev)
}

// Advance moves the position forward by seconds, as during playback.
func (c *MediaClock) Advance(seconds float64) {
	c.mu.Lock()
	c.current = c.clamp(c.current + seconds)
	ev := Event{Type: EventTimeUpdate, Time: c.current, Duration: c.duration}
	c.mu.Unlock()

	c.bus.publish(ev)
}

func (c *MediaClock) Subscribe(h Handler) SubscriptionID {
	return c.bus.subscribe(h)
}

func (c *MediaClock) Unsubscribe(id SubscriptionID) {
	c.bus.unsubscribe(id)
}

// Subscribers returns the number of live subscriptions.
func (c *MediaClock) Subscribers() int {
	return c.bus.count()
}

// Close drops every subscription. Later events are not delivered.
func (c *MediaClock) Close() error {
	c.bus.close()
	return nil
}

func (c *MediaClock) clamp(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if c.duration > 0 && seconds > c.duration {
		return c.duration
	}
	return seconds
}

func sanitizeDuration(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

var _ Clock = (*MediaClock)(nil)
