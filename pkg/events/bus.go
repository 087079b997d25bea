package events

import "sync"

// DefaultRingSize is the default per-subscriber buffer depth before events
// are dropped rather than blocking the producer.
const DefaultRingSize = 256

// Bus is a single-writer, multi-reader event stream. Emit is safe to call
// from one producer at a time per stage (the orchestrator owns emission);
// Subscribe/Unsubscribe are safe for concurrent use from any goroutine.
//
// A slow subscriber never blocks Emit: each subscriber has a bounded
// channel, and a full channel drops the new event and increments that
// subscriber's loss counter instead of stalling the producer.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]*subscription
	nextID      int
}

type subscription struct {
	ch      chan Event
	dropped int
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]*subscription)}
}

// Subscribe registers a new consumer and returns a receive-only channel of
// events plus a handle to unsubscribe. ringSize <= 0 uses DefaultRingSize.
func (b *Bus) Subscribe(ringSize int) (<-chan Event, func()) {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := &subscription{ch: make(chan Event, ringSize)}
	b.subscribers[id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subscribers[id]; ok {
			close(s.ch)
			delete(b.subscribers, id)
		}
	}
	return sub.ch, unsubscribe
}

// Emit publishes an event to every current subscriber. Percentages are
// auto-derived from I/N when the caller left Pct at zero.
func (b *Bus) Emit(e Event) {
	e = e.withDerivedPct()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- e:
		default:
			sub.dropped++
		}
	}
}

// Dropped returns the number of subscribers known to have lost at least
// one event, and the total drop count across all subscribers. Intended
// for diagnostics, not the hot path.
func (b *Bus) Dropped() (subscribersAffected, totalDropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		if sub.dropped > 0 {
			subscribersAffected++
			totalDropped += sub.dropped
		}
	}
	return subscribersAffected, totalDropped
}
