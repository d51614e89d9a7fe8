// Package bus is the in-process fan-out of domain events: single or multiple
// producers, many consumers, no backlog replay. A subscriber joining late
// sees only events published after it joined; the poller's recent ring is the
// only backlog access path.
package bus

import (
	"sync"

	"talkbridge/pkg/models"
)

const defaultBuffer = 64

// Bus broadcasts domain events to subscribers. Publish never blocks: a
// subscriber whose buffer is full loses its oldest pending event instead of
// stalling producers or its siblings.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	dropped func() // optional instrumentation hook
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// OnDrop registers a hook invoked once per event dropped from a slow
// subscriber's buffer.
func (b *Bus) OnDrop(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropped = fn
}

// Subscription is one consumer's buffered feed.
type Subscription struct {
	id  uint64
	ch  chan models.DomainEvent
	bus *Bus

	once sync.Once
}

// C returns the subscriber's event channel. The channel is closed when the
// subscription is closed or the bus shuts down.
func (s *Subscription) C() <-chan models.DomainEvent { return s.ch }

// Close detaches the subscriber and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		// Close under the write lock so no Publish is mid-send on s.ch.
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}

// Subscribe attaches a new consumer with the given buffer size (<=0 uses the
// default). Returns nil if the bus has shut down.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, ch: make(chan models.DomainEvent, buffer), bus: b}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every current subscriber without blocking. For a
// full subscriber buffer the oldest pending event is discarded to make room
// (drop-oldest), keeping the stream fresh for consumers that catch up.
func (b *Bus) Publish(ev models.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
			continue
		default:
		}
		// Buffer full: evict one, then try once more. The second send can
		// still lose to a concurrent reader filling the buffer back up; in
		// that case the new event is the one dropped.
		select {
		case <-sub.ch:
			if b.dropped != nil {
				b.dropped()
			}
		default:
		}
		select {
		case sub.ch <- ev:
		default:
			if b.dropped != nil {
				b.dropped()
			}
		}
	}
}

// Close detaches all subscribers and closes their channels. Publish and
// Subscribe become no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}

// Subscribers returns the current consumer count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
