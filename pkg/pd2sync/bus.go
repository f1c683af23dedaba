package pd2sync

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSubscriberBuffer is the channel capacity used when Subscribe is
// given a non-positive buffer.
const DefaultSubscriberBuffer = 64

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose channel is full misses the event and the drop is counted.
type Bus struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool

	dropped atomic.Uint64
}

type subscription struct {
	ch     chan Event
	filter *typeFilter
}

// NewBus creates an event bus. A nil logger disables logging.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		logger: logger,
		subs:   make(map[uint64]*subscription),
	}
}

// Publish delivers ev to every matching subscriber without blocking.
// Events without a timestamp are stamped with the current time.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for id, s := range b.subs {
		if !s.filter.Allows(ev.Type) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			n := b.dropped.Add(1)
			b.logger.Debug("subscriber full, event dropped",
				"subscriber", id, "type", ev.Type, "dropped_total", n)
		}
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel
// function. Cancel closes the channel; it is safe to call multiple times.
// Subscribing to a closed bus returns a closed channel.
func (b *Bus) Subscribe(buffer int, opts ...SubscribeOption) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	var sc subscribeConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&sc)
		}
	}

	s := &subscription{
		ch:     make(chan Event, buffer),
		filter: newTypeFilter(sc.include, sc.exclude),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = s

	return s.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
}

// Dropped returns how many deliveries were dropped because a subscriber
// was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored.
// Safe to call multiple times.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
}
