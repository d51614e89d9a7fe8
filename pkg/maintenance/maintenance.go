// Package maintenance runs the scheduled housekeeping job: checkpointing
// the sqlite WAL and pruning change-buffer entries older than the retention
// window. The messenger app owns the source tables; maintenance only ever
// touches the bridge's own bookkeeping.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/store"
)

// Start launches the maintenance scheduler if enabled. Returns a cancel func
// stopping the scheduler goroutine.
func Start(ctx context.Context, cfg config.MaintenanceConfig, st *store.Store) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("maintenance_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 4 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("maintenance_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid maintenance cron expression: %s", cfg.Cron)
	}

	logger.Info("maintenance_enabled", "cron", cronExpr, "prune_age", cfg.PruneAge.Duration().String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, cfg.PruneAge.Duration(), st)
	return cancel, nil
}

// runScheduler computes the next cron tick with gronx and sleeps until it.
func runScheduler(ctx context.Context, cronExpr string, pruneAge time.Duration, st *store.Store) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("maintenance_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		}

		if err := RunOnce(ctx, pruneAge, st); err != nil && ctx.Err() == nil {
			logger.Error("maintenance_run_error", "error", err)
		}
	}
}

// RunOnce performs a single maintenance pass. Exposed so an admin endpoint
// or test can trigger it on demand.
func RunOnce(ctx context.Context, pruneAge time.Duration, st *store.Store) error {
	start := time.Now()

	if pruneAge > 0 {
		cutoff := time.Now().Add(-pruneAge).Unix()
		pruned, err := st.PruneChangeEventsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("prune change events: %w", err)
		}
		if pruned > 0 {
			logger.Warn("maintenance_pruned_unprocessed", "count", pruned, "cutoff", cutoff)
		}
	}

	if err := st.Checkpoint(ctx); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}

	logger.AuditAction("maintenance_run",
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
