package api

import (
	"net/http"
	"time"

	"talkbridge/pkg/config"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/utils"
)

// runtimeConfig mirrors the hot-reloadable settings. Durations travel as
// strings in Go syntax ("500ms", "2s").
type runtimeConfig struct {
	PollInterval     string  `json:"poll_interval,omitempty"`
	DrainInterval    string  `json:"drain_interval,omitempty"`
	DispatchInterval string  `json:"dispatch_interval,omitempty"`
	WebhookURL       *string `json:"webhook_url,omitempty"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	url := s.rt.WebhookURL()
	_ = utils.JSONWrite(w, http.StatusOK, runtimeConfig{
		PollInterval:     s.rt.PollInterval().String(),
		DrainInterval:    s.rt.DrainInterval().String(),
		DispatchInterval: s.rt.DispatchInterval().String(),
		WebhookURL:       &url,
	})
}

// handlePutConfig applies a partial update. The whole body validates before
// anything applies, so a rejected request never mutates runtime state.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req runtimeConfig
	if err := utils.JSONDecode(r, &req, 1<<20); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	type update struct {
		key   string
		raw   string
		apply func(time.Duration) error
	}
	updates := []update{
		{config.KeyPollInterval, req.PollInterval, s.rt.SetPollInterval},
		{config.KeyDrainInterval, req.DrainInterval, s.rt.SetDrainInterval},
		{config.KeyDispatchInterval, req.DispatchInterval, s.rt.SetDispatchInterval},
	}
	parsed := make([]time.Duration, len(updates))
	for i, u := range updates {
		if u.raw == "" {
			continue
		}
		d, err := time.ParseDuration(u.raw)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid duration: "+u.raw)
			return
		}
		if err := config.ValidateInterval(u.key, d); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		parsed[i] = d
	}
	if req.WebhookURL != nil {
		if err := config.ValidateWebhookURL(*req.WebhookURL); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	for i, u := range updates {
		if u.raw == "" {
			continue
		}
		if err := u.apply(parsed[i]); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.WebhookURL != nil {
		if err := s.rt.SetWebhookURL(*req.WebhookURL); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	logger.AuditAction("runtime_config_updated",
		"poll", s.rt.PollInterval().String(),
		"drain", s.rt.DrainInterval().String(),
		"dispatch", s.rt.DispatchInterval().String())
	s.handleGetConfig(w, r)
}
