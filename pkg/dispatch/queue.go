// Package dispatch queues and executes outbound actions against the
// messenger. Submission never blocks the caller; a single worker consumes
// the queue in FIFO order with a minimum interval between executions so the
// messenger endpoint is never hammered by a burst of actions.
package dispatch

import (
	"errors"
	"sync"

	"talkbridge/pkg/metrics"
	"talkbridge/pkg/models"
)

// ErrQueueFull is returned by Submit when the queue is at capacity. The
// action is rejected outright rather than blocking or displacing queued
// work.
var ErrQueueFull = errors.New("dispatch: queue full")

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("dispatch: queue closed")

// Queue is a bounded FIFO of pending actions.
type Queue struct {
	mu     sync.Mutex
	ch     chan *models.OutboundAction
	closed bool
}

// NewQueue builds a queue holding at most capacity pending actions.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan *models.OutboundAction, capacity)}
}

// Submit enqueues an action without blocking. A full queue rejects the
// action with ErrQueueFull; the caller decides whether to surface that to
// its client.
func (q *Queue) Submit(a *models.OutboundAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- a:
		metrics.QueueDepth.Set(float64(len(q.ch)))
		return nil
	default:
		metrics.Dispatches.WithLabelValues("rejected").Inc()
		return ErrQueueFull
	}
}

// Depth reports the number of actions currently waiting.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Close stops accepting submissions. The worker drains whatever is already
// queued and then exits.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
