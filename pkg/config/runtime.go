package config

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Change identifies which runtime value was updated. Observers receive the
// new value and may apply it on their next scheduling cycle.
type Change struct {
	Key      string
	Interval time.Duration
	Value    string
}

// Runtime keys.
const (
	KeyPollInterval     = "poll_interval"
	KeyDrainInterval    = "drain_interval"
	KeyDispatchInterval = "dispatch_interval"
	KeyWebhookURL       = "webhook_url"
)

// Runtime holds the hot-reloadable bridge settings. Writes validate the new
// value, retain the prior one on rejection, and notify registered observers
// instead of triggering side effects in the setter itself.
type Runtime struct {
	mu        sync.RWMutex
	poll      time.Duration
	drain     time.Duration
	dispatch  time.Duration
	webhook   string
	observers []func(Change)
}

// NewRuntime seeds a Runtime from the loaded file config.
func NewRuntime(cfg *Config) *Runtime {
	return &Runtime{
		poll:     cfg.Bridge.PollInterval.Duration(),
		drain:    cfg.Bridge.DrainInterval.Duration(),
		dispatch: cfg.Actions.DispatchEvery.Duration(),
		webhook:  cfg.Bridge.Webhook.URL,
	}
}

// OnChange registers an observer invoked synchronously after each accepted
// update. Registration is not removable; register once at startup.
func (r *Runtime) OnChange(fn func(Change)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

func (r *Runtime) notify(c Change) {
	r.mu.RLock()
	obs := append([]func(Change){}, r.observers...)
	r.mu.RUnlock()
	for _, fn := range obs {
		fn(c)
	}
}

// PollInterval returns the current poller cadence.
func (r *Runtime) PollInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.poll
}

// DrainInterval returns the current drain cadence.
func (r *Runtime) DrainInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drain
}

// DispatchInterval returns the current minimum spacing between dispatches.
func (r *Runtime) DispatchInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dispatch
}

// WebhookURL returns the current forwarding endpoint ("" disables forwarding).
func (r *Runtime) WebhookURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.webhook
}

// SetPollInterval updates the poller cadence; takes effect next cycle.
func (r *Runtime) SetPollInterval(d time.Duration) error {
	return r.setInterval(KeyPollInterval, d, &r.poll)
}

// SetDrainInterval updates the drain cadence; takes effect next cycle.
func (r *Runtime) SetDrainInterval(d time.Duration) error {
	return r.setInterval(KeyDrainInterval, d, &r.drain)
}

// SetDispatchInterval updates the minimum spacing between dispatched actions;
// takes effect for the next dispatch, not retroactively.
func (r *Runtime) SetDispatchInterval(d time.Duration) error {
	return r.setInterval(KeyDispatchInterval, d, &r.dispatch)
}

// ValidateInterval reports whether d is acceptable for the given runtime key.
func ValidateInterval(key string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return nil
}

func (r *Runtime) setInterval(key string, d time.Duration, slot *time.Duration) error {
	if err := ValidateInterval(key, d); err != nil {
		return err
	}
	r.mu.Lock()
	*slot = d
	r.mu.Unlock()
	r.notify(Change{Key: key, Interval: d})
	return nil
}

// ValidateWebhookURL reports whether raw is acceptable to SetWebhookURL. An
// empty URL disables forwarding; a non-empty one must parse as http(s).
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid webhook url: %q", raw)
	}
	return nil
}

// SetWebhookURL updates the forwarding endpoint.
func (r *Runtime) SetWebhookURL(raw string) error {
	if err := ValidateWebhookURL(raw); err != nil {
		return err
	}
	r.mu.Lock()
	r.webhook = raw
	r.mu.Unlock()
	r.notify(Change{Key: KeyWebhookURL, Value: raw})
	return nil
}
