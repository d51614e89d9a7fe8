package poller

import (
	"sync"

	"talkbridge/pkg/models"
)

// Ring is a bounded buffer of the most recent domain events, kept for
// synchronous status queries independently of the event bus.
type Ring struct {
	mu  sync.RWMutex
	buf []models.DomainEvent
	max int
}

// NewRing returns a ring retaining up to max events (<=0 uses 50).
func NewRing(max int) *Ring {
	if max <= 0 {
		max = 50
	}
	return &Ring{max: max}
}

// Add appends ev, evicting the oldest entry when full.
func (r *Ring) Add(ev models.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, ev)
	if len(r.buf) > r.max {
		r.buf = r.buf[len(r.buf)-r.max:]
	}
}

// Snapshot returns the retained events most-recent-first.
func (r *Ring) Snapshot() []models.DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DomainEvent, len(r.buf))
	for i, ev := range r.buf {
		out[len(r.buf)-1-i] = ev
	}
	return out
}

// Len returns the number of retained events.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buf)
}
