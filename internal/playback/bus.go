package playback

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// bus delivers events synchronously, in subscription order. Handlers run
// outside the lock, so they may subscribe, unsubscribe or seek.
type bus struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers []subscription
	idCounter   uint64
	closed      bool
}

type subscription struct {
	id      SubscriptionID
	handler Handler
}

func newBus(logger *slog.Logger) *bus {
	return &bus{logger: logger}
}

func (b *bus) publish(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]subscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.callHandler(sub.handler, event)
	}
}

func (b *bus) callHandler(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("playback handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type)))
		}
	}()
	handler(event)
}

// subscribe returns 0 once the bus is closed.
func (b *bus) subscribe(handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || handler == nil {
		return 0
	}

	id := SubscriptionID(atomic.AddUint64(&b.idCounter, 1))
	b.subscribers = append(b.subscribers, subscription{id: id, handler: handler})
	return id
}

func (b *bus) unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

func (b *bus) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subscribers = nil
}
