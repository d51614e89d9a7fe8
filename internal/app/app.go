// Package app wires the bridge subsystems together and owns their
// lifecycle: source store, crypto engine, poll and drain loops, dispatch
// worker, maintenance scheduler and the HTTP control surface.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"talkbridge/pkg/bus"
	"talkbridge/pkg/config"
	"talkbridge/pkg/crypto"
	"talkbridge/pkg/dispatch"
	"talkbridge/pkg/drain"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/metrics"
	"talkbridge/pkg/poller"
	"talkbridge/pkg/resolver"
	"talkbridge/pkg/state"
	"talkbridge/pkg/store"
	"talkbridge/pkg/webhook"
)

// App encapsulates the bridge components and lifecycle.
type App struct {
	cfg     *config.Config
	rt      *config.Runtime
	version string

	store  *store.Store
	engine *crypto.Engine
	names  *resolver.StoreResolver
	bus    *bus.Bus
	poller *poller.Poller
	drain  *drain.Drain
	queue  *dispatch.Queue
	worker *dispatch.Worker
	dirs   state.Dirs
}

// New initializes everything that does not need a running context: state
// dirs, store, schema, crypto and the subsystem graph. Call Run to start
// the loops and block until shutdown.
func New(cfg *config.Config, version string) (*App, error) {
	_ = godotenv.Load(".env")

	dirs, err := state.EnsureStateDirs(cfg.Source.StatePath)
	if err != nil {
		return nil, fmt.Errorf("state layout: %w", err)
	}
	if err := logger.AttachAuditFileSink(dirs.Audit); err != nil {
		return nil, fmt.Errorf("audit sink: %w", err)
	}

	st, err := store.Open(cfg.Source.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open source db at %s: %w", cfg.Source.DBPath, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.InstallBridgeSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("install bridge schema: %w", err)
	}

	rt := config.NewRuntime(cfg)
	engine := crypto.NewEngine()
	names := resolver.New(st, engine)
	eventBus := bus.New()
	eventBus.OnDrop(func() { metrics.BusDropped.Inc() })
	forwarder := webhook.New(rt, cfg.Bridge.Webhook.Timeout.Duration())

	p := poller.New(st, engine, names, eventBus, forwarder, rt,
		cfg.Bridge.RecentEvents, cfg.Bridge.BatchLimit)
	d := drain.New(st, engine, eventBus, rt, names)

	queue := dispatch.NewQueue(cfg.Actions.QueueCapacity)
	exec := dispatch.NewRemoteExecutor(cfg.Actions.Endpoint, dirs.Images)
	worker := dispatch.NewWorker(queue, exec, rt)

	return &App{
		cfg:     cfg,
		rt:      rt,
		version: version,
		store:   st,
		engine:  engine,
		names:   names,
		bus:     eventBus,
		poller:  p,
		drain:   d,
		queue:   queue,
		worker:  worker,
		dirs:    dirs,
	}, nil
}

// Run starts the loops and the HTTP server and blocks until ctx is
// cancelled or the server fails. Shutdown is ordered so queued actions and
// open event streams terminate cleanly before the store closes.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.poller.Run(runCtx)
	go a.drain.Run(runCtx)
	a.worker.Start(runCtx)

	stopMaint, err := a.startMaintenance(runCtx)
	if err != nil {
		return err
	}
	defer stopMaint()

	errCh := a.startHTTP(runCtx)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = err
	}

	cancel()
	a.worker.Stop()
	a.queue.Close()
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
	logger.Info("bridge_stopped")
	return runErr
}
