// Package webhook forwards domain events to one configurable HTTP endpoint.
// Forwarding is fire-and-forget: failures are logged and never retried, and
// the poll/drain loops are never blocked by a slow receiver.
package webhook

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/models"
)

// Forwarder posts events as JSON to the runtime-configured webhook URL.
type Forwarder struct {
	rt      *config.Runtime
	client  *fasthttp.Client
	timeout time.Duration
}

// New returns a Forwarder reading its URL from rt on every event, so URL
// changes apply without a restart.
func New(rt *config.Runtime, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		rt:      rt,
		client:  &fasthttp.Client{Name: "talkbridge-webhook"},
		timeout: timeout,
	}
}

// ForwardAsync posts ev in a goroutine. No-op when no URL is configured.
func (f *Forwarder) ForwardAsync(ev models.DomainEvent) {
	url := f.rt.WebhookURL()
	if url == "" {
		return
	}
	go f.forward(url, ev)
}

func (f *Forwarder) forward(url string, ev models.DomainEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		logger.Error("webhook_marshal_failed", "error", err)
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		logger.Warn("webhook_forward_failed", "url", url, "type", ev.Type, "error", err)
		return
	}
	if code := resp.StatusCode(); code >= 300 {
		logger.Warn("webhook_forward_rejected", "url", url, "type", ev.Type, "status", code)
	}
}
