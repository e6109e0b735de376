package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryBus is the in-process Bus used when all views are served by a single
// binary. Each subscriber gets a buffered channel; a subscriber that falls
// behind its buffer loses events and must reconcile via a state pull.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[*Subscription]chan Event
	buffer int
	closed bool
}

// NewMemoryBus creates an in-process bus. buffer is the per-subscriber
// channel depth; zero selects a default sized for one busy display view.
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &MemoryBus{
		subs:   make(map[*Subscription]chan Event),
		buffer: buffer,
	}
}

// Publish delivers the event to every subscriber without blocking. Slow
// subscribers are skipped with a warning; per-key ordering holds for every
// event a subscriber does receive because publishes are serialized under the
// bus lock.
func (b *MemoryBus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Warn().
				Str("event_type", string(event.Type)).
				Str("key", event.Key).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a new subscriber channel.
func (b *MemoryBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	sub := &Subscription{ch: ch}
	sub.close = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(ch)
		}
	}
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub] = ch
	return sub
}

// Close shuts the bus down and closes every subscription.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub, ch := range b.subs {
		delete(b.subs, sub)
		close(ch)
	}
}
