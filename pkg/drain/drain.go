// Package drain consumes the trigger-fed change buffer: mutations on the
// messenger tables (renames, status changes, deletions, hides, feed records)
// that never show up as new chat log rows. Entries are processed in
// insertion order and removed one by one, each only after its domain event
// has been published, so a crash mid-pass re-emits at most the entries whose
// delete had not yet landed (at-least-once; downstream consumers must be
// duplicate-tolerant).
package drain

import (
	"context"
	"time"

	"talkbridge/pkg/bus"
	"talkbridge/pkg/config"
	"talkbridge/pkg/crypto"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/metrics"
	"talkbridge/pkg/models"
	"talkbridge/pkg/store"
)

// deleteEncHint is the heuristic encoding type applied to MESSAGE_DELETE
// payloads: the buffer entry lacks the metadata wrapper that would name the
// true encoding type, and 2 is what the bulk of observed rows use. Known
// lossy approximation, not a guarantee.
const deleteEncHint = 2

// Invalidator is the optional name-cache hook notified on nickname changes.
type Invalidator interface {
	Invalidate(identityID int64)
}

// Drain periodically classifies and clears the mutation buffer. Run it from
// exactly one goroutine; the buffer is owned by the drain alone.
type Drain struct {
	store  *store.Store
	engine *crypto.Engine
	bus    *bus.Bus
	rt     *config.Runtime
	names  Invalidator
}

// New assembles a Drain. names may be nil.
func New(st *store.Store, engine *crypto.Engine, b *bus.Bus, rt *config.Runtime, names Invalidator) *Drain {
	return &Drain{store: st, engine: engine, bus: b, rt: rt, names: names}
}

// Run drains until ctx is cancelled. The cadence is re-read every cycle so
// interval changes apply without a restart. Pass failures are logged and the
// next cycle retries naturally.
func (d *Drain) Run(ctx context.Context) {
	logger.Info("drain_started", "interval", d.rt.DrainInterval().String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("drain_stopped")
			return
		case <-time.After(d.rt.DrainInterval()):
		}
		if err := d.Pass(ctx); err != nil && ctx.Err() == nil {
			logger.Error("drain_pass_failed", "error", err)
		}
	}
}

// Pass runs one drain cycle. One entry's classification or decryption
// failure never prevents processing of the remaining entries: every entry
// yields exactly one domain event, degraded where necessary.
func (d *Drain) Pass(ctx context.Context) error {
	entries, err := d.store.ChangeEvents(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		entry := &entries[i]
		ev := d.classify(entry)
		d.bus.Publish(ev)
		metrics.EventsPublished.Inc()
		metrics.ChangeEvents.WithLabelValues(entry.Type).Inc()
		if err := d.store.DeleteChangeEvent(ctx, entry.ID); err != nil {
			// Entry stays buffered and re-emits next pass.
			logger.Error("change_event_delete_failed", "id", entry.ID, "error", err)
			continue
		}
		if d.names != nil && entry.Type == models.MutationNicknameChange {
			d.names.Invalidate(entry.TargetID)
		}
	}
	return nil
}

// classify maps one buffered mutation to its domain event.
func (d *Drain) classify(entry *models.MutationEvent) models.DomainEvent {
	ev := models.DomainEvent{
		TargetID: entry.TargetID,
		Before:   entry.Before,
		After:    entry.After,
		TS:       time.Now().UnixMilli(),
	}
	switch entry.Type {
	case models.MutationNicknameChange:
		ev.Type = models.EventNicknameChanged
		ev.Before = d.decryptOrRaw(entry.EncHint, entry.TargetID, entry.Before)
		ev.After = d.decryptOrRaw(entry.EncHint, entry.TargetID, entry.After)
	case models.MutationStatusChange:
		ev.Type = models.EventStatusChanged
		ev.Before = d.decryptOrRaw(entry.EncHint, entry.TargetID, entry.Before)
		ev.After = d.decryptOrRaw(entry.EncHint, entry.TargetID, entry.After)
	case models.MutationProfileChange:
		// Payloads are URLs, never encrypted.
		ev.Type = models.EventProfileChanged
	case models.MutationMessageDelete:
		ev.Type = models.EventMessageDeleted
		ev.Before = d.decryptOrRaw(deleteEncHint, entry.TargetID, entry.Before)
	case models.MutationMessageHide:
		// Payloads are plain identifiers.
		ev.Type = models.EventMessageHidden
	case models.MutationFeedEvent:
		ev.Type = models.EventFeed
		ev.Before = d.decryptOrRaw(entry.EncHint, entry.TargetID, entry.Before)
		ev.Feed = classifyFeed(ev.Before)
	default:
		logger.Warn("change_event_unknown_type", "id", entry.ID, "type", entry.Type)
		ev.Type = models.EventFeed
		ev.Feed = models.FeedParseError
	}
	return ev
}

func (d *Drain) decryptOrRaw(encType int, identityID int64, payload string) string {
	out, err := d.engine.Decrypt(encType, identityID, payload)
	if err != nil {
		logger.Warn("mutation_decrypt_degraded", "enc", encType, "target", identityID, "error", err)
		metrics.DecryptFailures.WithLabelValues("mutation").Inc()
		return payload
	}
	return out
}
