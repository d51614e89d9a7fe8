// Package metrics holds the bridge's Prometheus instrumentation, exposed on
// /metrics by the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed counts poller-side log records by outcome:
	// "emitted", "sync_skip", "degraded".
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkbridge_log_records_total",
		Help: "Chat log records processed by the poller, by outcome.",
	}, []string{"outcome"})

	// DecryptFailures counts decrypt attempts that fell back to passthrough
	// or errored, by field ("message", "attachment", "mutation", "name").
	DecryptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkbridge_decrypt_failures_total",
		Help: "Decryption attempts that degraded or failed, by field.",
	}, []string{"field"})

	// ChangeEvents counts drained mutation events by type.
	ChangeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkbridge_change_events_total",
		Help: "Mutation events drained from the capture buffer, by type.",
	}, []string{"type"})

	// EventsPublished counts domain events published on the bus.
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talkbridge_events_published_total",
		Help: "Domain events published to the event bus.",
	})

	// BusDropped counts events dropped from slow subscriber buffers.
	BusDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talkbridge_bus_dropped_total",
		Help: "Events dropped from slow event bus subscribers.",
	})

	// Dispatches counts outbound actions by result ("ok", "error",
	// "rejected").
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talkbridge_dispatch_total",
		Help: "Outbound actions dispatched, by result.",
	}, []string{"result"})

	// QueueDepth tracks the number of actions waiting in the dispatch queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talkbridge_dispatch_queue_depth",
		Help: "Outbound actions currently queued.",
	})

	// Watermark mirrors the poller's persisted log position.
	Watermark = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "talkbridge_watermark",
		Help: "Highest chat log id already processed.",
	})
)
