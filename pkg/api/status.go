package api

import (
	"net/http"

	"talkbridge/pkg/utils"
)

type statusResponse struct {
	State       string `json:"state"`
	Watermark   int64  `json:"watermark"`
	Subscribers int    `json:"subscribers"`
	QueueDepth  int    `json:"queue_depth"`
	WebhookURL  string `json:"webhook_url,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready only once the source database answers pings.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "source database unavailable")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State:       s.poller.State(),
		Watermark:   s.poller.WatermarkValue(),
		Subscribers: s.bus.Subscribers(),
		QueueDepth:  s.queue.Depth(),
		WebhookURL:  s.rt.WebhookURL(),
	}
	_ = utils.JSONWrite(w, http.StatusOK, resp)
}
