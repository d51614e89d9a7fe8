package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"talkbridge/pkg/api"
	"talkbridge/pkg/banner"
	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/maintenance"
)

func (a *App) printBanner() {
	banner.Print(a.cfg, a.version)
}

func (a *App) startMaintenance(ctx context.Context) (context.CancelFunc, error) {
	return maintenance.Start(ctx, a.cfg.Maintenance, a.store)
}

// startHTTP launches the control-surface listener and returns a channel
// carrying a fatal server error, if any. Event streams are long-lived so
// the server carries no write timeout; slow-client protection lives in the
// bus subscription buffering instead.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           api.NewServer(a.cfg, a.rt, a.store, a.poller, a.bus, a.queue).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Warn("http_shutdown_forced", "error", err)
			_ = srv.Close()
		}
	}()

	return errCh
}

// Runtime exposes the hot-reloadable settings, mostly for tests.
func (a *App) Runtime() *config.Runtime { return a.rt }
