package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"talkbridge/pkg/logger"
	"talkbridge/pkg/models"
	"talkbridge/pkg/utils"
)

// handleRecentEvents returns the bounded in-memory ring of recent message
// events, most recent first. An optional limit query trims the slice.
func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	events := s.poller.Recent()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.JSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < len(events) {
			events = events[:n]
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Events []models.DomainEvent `json:"events"`
	}{Events: events})
}

// handleEventStream streams domain events as server-sent events. A slow
// client that lets its subscription buffer fill loses the oldest events
// rather than stalling the bridge.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := s.bus.Subscribe(64)
	if sub == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "event bus shut down")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("event_stream_opened", "remote", r.RemoteAddr)
	defer logger.Info("event_stream_closed", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			body, err := json.Marshal(ev)
			if err != nil {
				logger.Error("event_stream_marshal_failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, body)
			flusher.Flush()
		}
	}
}
