package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"talkbridge/pkg/dispatch"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/models"
	"talkbridge/pkg/utils"
	"talkbridge/pkg/validation"
)

// actionRequest is the submission body shared by the action endpoints.
// Images arrive base64-encoded.
type actionRequest struct {
	ConversationID int64    `json:"conversation_id"`
	Text           string   `json:"text,omitempty"`
	Image          string   `json:"image,omitempty"`
	Images         []string `json:"images,omitempty"`
}

type actionResponse struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

func (s *Server) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := utils.JSONDecode(r, &req, 1<<20); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.submit(w, &models.OutboundAction{
		Kind:           models.ActionSendText,
		ConversationID: req.ConversationID,
		Text:           req.Text,
	})
}

func (s *Server) handleSendImage(w http.ResponseWriter, r *http.Request) {
	req, images, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}
	if len(images) != 1 {
		utils.JSONError(w, http.StatusBadRequest, "exactly one image required")
		return
	}
	s.submit(w, &models.OutboundAction{
		Kind:           models.ActionSendImage,
		ConversationID: req.ConversationID,
		Images:         images,
	})
}

func (s *Server) handleSendImages(w http.ResponseWriter, r *http.Request) {
	req, images, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}
	s.submit(w, &models.OutboundAction{
		Kind:           models.ActionSendImages,
		ConversationID: req.ConversationID,
		Images:         images,
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := utils.JSONDecode(r, &req, 1<<20); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.submit(w, &models.OutboundAction{
		Kind:           models.ActionMarkRead,
		ConversationID: req.ConversationID,
	})
}

// decodeImageRequest parses and base64-decodes an image submission. The
// request body limit covers a full batch of per-image caps, inflated a third
// for the base64 encoding.
func (s *Server) decodeImageRequest(w http.ResponseWriter, r *http.Request) (actionRequest, [][]byte, bool) {
	var req actionRequest
	maxBody := (s.cfg.Actions.MaxImageBytes.Int64()*4/3 + 4096) * validation.MaxImagesPerRequest
	if err := utils.JSONDecode(r, &req, maxBody); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return req, nil, false
	}
	encoded := req.Images
	if req.Image != "" {
		encoded = append([]string{req.Image}, encoded...)
	}
	images := make([][]byte, 0, len(encoded))
	for _, enc := range encoded {
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid image encoding")
			return req, nil, false
		}
		images = append(images, raw)
	}
	return req, images, true
}

// submit validates, stamps and enqueues the action. Full queues come back
// as 503 so the caller can retry later; validation failures are 400s.
func (s *Server) submit(w http.ResponseWriter, action *models.OutboundAction) {
	action.ID = uuid.NewString()
	action.SubmittedAt = time.Now().UnixMilli()

	if err := validation.ValidateAction(action, s.cfg.Actions.MaxImageBytes.Int64()); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.queue.Submit(action); err != nil {
		if errors.Is(err, dispatch.ErrQueueFull) {
			logger.Warn("action_queue_full", "kind", action.Kind, "conversation", action.ConversationID)
			utils.JSONError(w, http.StatusServiceUnavailable, "dispatch queue full")
			return
		}
		utils.JSONError(w, http.StatusServiceUnavailable, "dispatch unavailable")
		return
	}
	logger.Info("action_queued", "id", action.ID, "kind", action.Kind, "conversation", action.ConversationID)
	_ = utils.JSONWrite(w, http.StatusAccepted, actionResponse{ID: action.ID, Queued: true})
}
