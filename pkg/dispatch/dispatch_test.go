package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"talkbridge/pkg/config"
	"talkbridge/pkg/models"
)

type recordingExecutor struct {
	mu      sync.Mutex
	actions []*models.OutboundAction
	times   []time.Time
	done    chan struct{}
	want    int
}

func newRecordingExecutor(want int) *recordingExecutor {
	return &recordingExecutor{done: make(chan struct{}), want: want}
}

func (r *recordingExecutor) Execute(ctx context.Context, a *models.OutboundAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	r.times = append(r.times, time.Now())
	if len(r.actions) == r.want {
		close(r.done)
	}
	return nil
}

func (r *recordingExecutor) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for dispatches")
	}
}

func runtimeWithInterval(d time.Duration) *config.Runtime {
	return config.NewRuntime(&config.Config{
		Actions: config.ActionsConfig{DispatchEvery: config.Duration(d)},
	})
}

func TestWorkerPreservesSubmissionOrder(t *testing.T) {
	q := NewQueue(16)
	exec := newRecordingExecutor(3)
	w := NewWorker(q, exec, runtimeWithInterval(time.Millisecond))

	for _, text := range []string{"one", "two", "three"} {
		if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, ConversationID: 1, Text: text}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	w.Start(context.Background())
	defer w.Stop()
	exec.wait(t)

	for i, want := range []string{"one", "two", "three"} {
		if exec.actions[i].Text != want {
			t.Fatalf("action %d: got %q want %q", i, exec.actions[i].Text, want)
		}
	}
}

func TestWorkerPacesDispatches(t *testing.T) {
	q := NewQueue(16)
	exec := newRecordingExecutor(3)
	w := NewWorker(q, exec, runtimeWithInterval(200*time.Millisecond))

	for i := 0; i < 3; i++ {
		if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, ConversationID: 1, Text: "t"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	w.Start(context.Background())
	defer w.Stop()
	exec.wait(t)

	// Three executions at a 200ms minimum interval span at least 400ms.
	if span := exec.times[2].Sub(exec.times[0]); span < 400*time.Millisecond {
		t.Fatalf("dispatches too close together: span %v", span)
	}
}

func TestSubmitNonBlockingWhenFull(t *testing.T) {
	q := NewQueue(2)
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText}); err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText}); err != nil {
		t.Fatalf("Submit 2: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Submit(&models.OutboundAction{Kind: models.ActionSendText}) }()
	select {
	case err := <-done:
		if err != ErrQueueFull {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}

func TestQueueSurvivesWorkerRestart(t *testing.T) {
	q := NewQueue(16)
	exec := newRecordingExecutor(2)
	w := NewWorker(q, exec, runtimeWithInterval(time.Millisecond))

	w.Start(context.Background())
	w.Stop()

	// Submitted while no worker runs; a restarted worker picks them up.
	for _, text := range []string{"after-stop-1", "after-stop-2"} {
		if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, Text: text}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	w.Start(context.Background())
	defer w.Stop()
	exec.wait(t)

	if exec.actions[0].Text != "after-stop-1" || exec.actions[1].Text != "after-stop-2" {
		t.Fatalf("restart lost or reordered actions: %+v", exec.actions)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	q := NewQueue(4)
	w := NewWorker(q, newRecordingExecutor(1), runtimeWithInterval(time.Millisecond))

	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

func TestSubmitAfterClose(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText}); err != ErrQueueClosed {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestIntervalChangeTakesEffect(t *testing.T) {
	rt := runtimeWithInterval(time.Hour)
	q := NewQueue(16)
	first := newRecordingExecutor(1)
	exec := &chainExecutor{first: first, rest: newRecordingExecutor(1)}
	w := NewWorker(q, exec, rt)

	// The burst token covers the first action.
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, Text: "a"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	w.Start(context.Background())
	defer w.Stop()
	first.wait(t)

	// At one dispatch per hour the next action would never arrive within
	// the test; dropping the interval while the worker is idle must apply
	// to it.
	if err := rt.SetDispatchInterval(time.Millisecond); err != nil {
		t.Fatalf("SetDispatchInterval: %v", err)
	}
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, Text: "b"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	exec.rest.wait(t)
}

func TestStopWhileRateLimitedKeepsDequeuedAction(t *testing.T) {
	rt := runtimeWithInterval(time.Hour)
	q := NewQueue(16)
	first := newRecordingExecutor(1)
	exec := &chainExecutor{first: first, rest: newRecordingExecutor(1)}
	w := NewWorker(q, exec, rt)

	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, Text: "a"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := q.Submit(&models.OutboundAction{Kind: models.ActionSendText, Text: "b"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	w.Start(context.Background())
	first.wait(t)

	// Wait for the worker to pull "b" off the channel and park on the
	// hour-long pacing wait.
	deadline := time.Now().Add(5 * time.Second)
	for q.Depth() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never dequeued the second action")
		}
		time.Sleep(time.Millisecond)
	}

	// Stopping mid-wait must hand the dequeued action back, not drop it.
	w.Stop()
	if err := rt.SetDispatchInterval(time.Millisecond); err != nil {
		t.Fatalf("SetDispatchInterval: %v", err)
	}
	w.Start(context.Background())
	defer w.Stop()
	exec.rest.wait(t)

	if got := exec.rest.actions[0].Text; got != "b" {
		t.Fatalf("restarted worker executed %q, want %q", got, "b")
	}
}

// chainExecutor routes the first execution to one recorder and the rest to
// another so a test can synchronize on each phase separately.
type chainExecutor struct {
	mu    sync.Mutex
	n     int
	first *recordingExecutor
	rest  *recordingExecutor
}

func (c *chainExecutor) Execute(ctx context.Context, a *models.OutboundAction) error {
	c.mu.Lock()
	c.n++
	n := c.n
	c.mu.Unlock()
	if n == 1 {
		return c.first.Execute(ctx, a)
	}
	return c.rest.Execute(ctx, a)
}
