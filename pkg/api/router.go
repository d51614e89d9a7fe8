// Package api exposes the bridge's HTTP control surface: health and status,
// recent and live domain events, outbound action submission and the
// hot-reloadable runtime settings.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talkbridge/pkg/bus"
	"talkbridge/pkg/config"
	"talkbridge/pkg/dispatch"
	"talkbridge/pkg/poller"
	"talkbridge/pkg/store"
)

// Server bundles the subsystems the HTTP handlers reach into.
type Server struct {
	cfg    *config.Config
	rt     *config.Runtime
	store  *store.Store
	poller *poller.Poller
	bus    *bus.Bus
	queue  *dispatch.Queue

	limiters limiterPool
}

// NewServer assembles the control surface over the running subsystems.
func NewServer(cfg *config.Config, rt *config.Runtime, st *store.Store, p *poller.Poller, b *bus.Bus, q *dispatch.Queue) *Server {
	s := &Server{cfg: cfg, rt: rt, store: st, poller: p, bus: b, queue: q}
	s.limiters.rps = cfg.Security.RateLimit.RPS
	s.limiters.burst = cfg.Security.RateLimit.Burst
	return s
}

// Handler builds the routed handler. Health probes and metrics stay open;
// everything else goes through API-key auth when keys are configured.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	sec := r.NewRoute().Subrouter()
	sec.Use(s.authMiddleware)
	sec.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	sec.HandleFunc("/v1/events/recent", s.handleRecentEvents).Methods(http.MethodGet)
	sec.HandleFunc("/v1/events/stream", s.handleEventStream).Methods(http.MethodGet)
	sec.HandleFunc("/v1/actions/text", s.handleSendText).Methods(http.MethodPost)
	sec.HandleFunc("/v1/actions/image", s.handleSendImage).Methods(http.MethodPost)
	sec.HandleFunc("/v1/actions/images", s.handleSendImages).Methods(http.MethodPost)
	sec.HandleFunc("/v1/actions/read", s.handleMarkRead).Methods(http.MethodPost)
	sec.HandleFunc("/v1/config", s.handleGetConfig).Methods(http.MethodGet)
	sec.HandleFunc("/v1/config", s.handlePutConfig).Methods(http.MethodPut)

	return r
}
