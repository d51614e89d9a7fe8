package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/metrics"
	"talkbridge/pkg/models"
)

// Worker is the single consumer of the dispatch queue. Exactly one run loop
// exists at a time; Start and Stop serialize through the worker mutex so an
// overlapping restart can never double-consume the queue.
type Worker struct {
	queue   *Queue
	exec    Executor
	limiter *rate.Limiter

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	// pending holds an action dequeued but not yet executed when the run
	// loop was cancelled. The next run drains it before touching the
	// channel, so Stop/Start never loses a submitted action. Only the run
	// goroutine touches it; Stop's wait on done orders the handoff.
	pending *models.OutboundAction
}

// NewWorker wires a worker over the queue and executor. The pacing limiter
// starts at the configured dispatch interval and follows later runtime
// updates through the config change feed.
func NewWorker(q *Queue, exec Executor, rt *config.Runtime) *Worker {
	w := &Worker{
		queue:   q,
		exec:    exec,
		limiter: rate.NewLimiter(intervalLimit(rt.DispatchInterval()), 1),
	}
	rt.OnChange(func(c config.Change) {
		if c.Key != config.KeyDispatchInterval {
			return
		}
		w.limiter.SetLimit(intervalLimit(c.Interval))
	})
	return w
}

func intervalLimit(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

// Start launches the run loop. Calling Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	go w.run(runCtx, w.done)
	logger.Info("dispatch_worker_started")
}

// Stop cancels the run loop and waits for the in-flight action, if any, to
// finish. Queued actions survive a Stop/Start cycle.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.cancel()
	<-w.done
	w.running = false
	logger.Info("dispatch_worker_stopped")
}

// run dequeues, then waits for the pacing token, then executes. Blocking on
// the queue while idle means a dispatch-interval change applies to the very
// next action instead of after a pending limiter wait at the old rate.
func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		action := w.pending
		if action == nil {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-w.queue.ch:
				if !ok {
					return
				}
				action = a
				metrics.QueueDepth.Set(float64(len(w.queue.ch)))
			}
		}
		w.pending = action
		if err := w.limiter.Wait(ctx); err != nil {
			logger.Info("action_held_for_restart", "id", action.ID, "kind", action.Kind)
			return
		}
		if ctx.Err() != nil {
			return
		}
		w.pending = nil
		w.execute(ctx, action)
	}
}

func (w *Worker) execute(ctx context.Context, action *models.OutboundAction) {
	start := time.Now()
	err := w.exec.Execute(ctx, action)
	if err != nil {
		metrics.Dispatches.WithLabelValues("error").Inc()
		logger.Error("action_dispatch_failed",
			"id", action.ID, "kind", action.Kind,
			"conversation", action.ConversationID, "error", err)
	} else {
		metrics.Dispatches.WithLabelValues("ok").Inc()
	}
	logger.AuditAction("action_dispatched",
		"id", action.ID,
		"kind", action.Kind,
		"conversation", action.ConversationID,
		"ok", err == nil,
		"elapsed_ms", time.Since(start).Milliseconds())
}
