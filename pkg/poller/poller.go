// Package poller implements the incremental change detector over the
// messenger's append-only chat log. It diffs the monotonically increasing
// record id against a persisted watermark, decrypts new records, and emits
// one domain event per record. The watermark advances after each record —
// never before — so a crash replays at most the records of the interrupted
// batch (at-least-once), and advances past records that fail decryption so a
// poison row can never stall the log.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"talkbridge/pkg/bus"
	"talkbridge/pkg/config"
	"talkbridge/pkg/crypto"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/metrics"
	"talkbridge/pkg/models"
	"talkbridge/pkg/resolver"
	"talkbridge/pkg/store"
	"talkbridge/pkg/webhook"
)

// Poller states.
const (
	StateUninitialized = "UNINITIALIZED"
	StateSteady        = "STEADY"
)

// Poller tails chat_logs and publishes message events. Run it from exactly
// one goroutine; the watermark is owned by the poller alone.
type Poller struct {
	store      *store.Store
	engine     *crypto.Engine
	names      resolver.Resolver
	bus        *bus.Bus
	forwarder  *webhook.Forwarder
	rt         *config.Runtime
	ring       *Ring
	batchLimit int

	steady    atomic.Bool
	watermark atomic.Int64
}

// New assembles a Poller. forwarder may be nil to disable webhook delivery.
func New(st *store.Store, engine *crypto.Engine, names resolver.Resolver, b *bus.Bus, fw *webhook.Forwarder, rt *config.Runtime, recentEvents, batchLimit int) *Poller {
	if batchLimit <= 0 {
		batchLimit = config.DefaultBatchLimit
	}
	return &Poller{
		store:      st,
		engine:     engine,
		names:      names,
		bus:        b,
		forwarder:  fw,
		rt:         rt,
		ring:       NewRing(recentEvents),
		batchLimit: batchLimit,
	}
}

// Run ticks until ctx is cancelled. The cadence is re-read from the runtime
// config every cycle, so interval changes take effect on the next scheduling
// cycle without a restart. Tick failures are logged and retried naturally on
// the next cycle; they never escape the loop.
func (p *Poller) Run(ctx context.Context) {
	logger.Info("poller_started", "interval", p.rt.PollInterval().String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("poller_stopped", "watermark", p.watermark.Load())
			return
		case <-time.After(p.rt.PollInterval()):
		}
		if err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("poll_tick_failed", "error", err)
		}
	}
}

// Tick runs one poll cycle. Exported for the status endpoint's on-demand
// refresh and for tests.
func (p *Poller) Tick(ctx context.Context) error {
	if !p.steady.Load() {
		return p.initialize(ctx)
	}

	n, err := p.store.CountLogsAfter(ctx, p.watermark.Load())
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	records, err := p.store.LogsAfter(ctx, p.watermark.Load(), p.batchLimit)
	if err != nil {
		return err
	}
	for i := range records {
		if err := p.process(ctx, &records[i]); err != nil {
			// Watermark not advanced past this record; the next cycle
			// replays it. Abandon the rest of the batch to preserve order.
			return fmt.Errorf("record %d: %w", records[i].ID, err)
		}
	}
	return nil
}

// initialize establishes the starting watermark. A persisted watermark from
// a previous run is resumed so records that arrived while the bridge was
// down are still delivered; on a fresh database the current maximum id is
// snapshotted without emitting anything, so history is never replayed.
func (p *Poller) initialize(ctx context.Context) error {
	if wm, ok, err := p.store.Watermark(ctx, store.WatermarkName); err != nil {
		return err
	} else if ok {
		p.watermark.Store(wm)
		p.steady.Store(true)
		metrics.Watermark.Set(float64(wm))
		logger.Info("poller_resumed", "watermark", wm)
		return nil
	}

	max, err := p.store.MaxLogID(ctx)
	if err != nil {
		return err
	}
	if err := p.store.SaveWatermark(ctx, store.WatermarkName, max); err != nil {
		return err
	}
	p.watermark.Store(max)
	p.steady.Store(true)
	metrics.Watermark.Set(float64(max))
	logger.Info("poller_initialized", "watermark", max)
	return nil
}

func (p *Poller) process(ctx context.Context, rec *models.LogRecord) error {
	meta := rec.Meta()

	// Synchronization echoes are not new content: advance past them
	// without emitting.
	if meta.Origin == models.OriginSync {
		metrics.RecordsProcessed.WithLabelValues("sync_skip").Inc()
		return p.advance(ctx, rec.ID)
	}

	outcome := "emitted"
	msg, err := p.engine.Decrypt(meta.Enc, rec.UserID, rec.Message)
	if err != nil {
		logger.Warn("message_decrypt_degraded", "id", rec.ID, "enc", meta.Enc, "error", err)
		metrics.DecryptFailures.WithLabelValues("message").Inc()
		msg = rec.Message
		outcome = "degraded"
	}
	att := ""
	if rec.HasAttachment() {
		att, err = p.engine.Decrypt(meta.Enc, rec.UserID, rec.Attachment)
		if err != nil {
			logger.Warn("attachment_decrypt_degraded", "id", rec.ID, "enc", meta.Enc, "error", err)
			metrics.DecryptFailures.WithLabelValues("attachment").Inc()
			att = rec.Attachment
			outcome = "degraded"
		}
	}
	rec.Message = msg
	rec.Attachment = att

	sender, _ := p.names.ResolveName(ctx, rec.UserID)
	conversation, _ := p.names.ResolveConversation(ctx, rec.ChatID)

	ev := models.DomainEvent{
		Type:           models.EventMessage,
		ConversationID: rec.ChatID,
		SenderID:       rec.UserID,
		Conversation:   conversation,
		Sender:         sender,
		Message:        msg,
		Attachment:     att,
		Raw:            rec,
		TS:             time.Now().UnixMilli(),
	}
	p.ring.Add(ev)
	p.bus.Publish(ev)
	metrics.EventsPublished.Inc()
	metrics.RecordsProcessed.WithLabelValues(outcome).Inc()
	if p.forwarder != nil {
		p.forwarder.ForwardAsync(ev)
	}
	return p.advance(ctx, rec.ID)
}

func (p *Poller) advance(ctx context.Context, id int64) error {
	if err := p.store.SaveWatermark(ctx, store.WatermarkName, id); err != nil {
		return err
	}
	p.watermark.Store(id)
	metrics.Watermark.Set(float64(id))
	return nil
}

// State returns the poller's lifecycle state.
func (p *Poller) State() string {
	if p.steady.Load() {
		return StateSteady
	}
	return StateUninitialized
}

// WatermarkValue returns the highest processed record id.
func (p *Poller) WatermarkValue() int64 { return p.watermark.Load() }

// Recent returns the retained events most-recent-first.
func (p *Poller) Recent() []models.DomainEvent { return p.ring.Snapshot() }
