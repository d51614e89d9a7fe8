package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"talkbridge/pkg/logger"
	"talkbridge/pkg/models"
)

// Executor performs one outbound action against the messenger.
type Executor interface {
	Execute(ctx context.Context, action *models.OutboundAction) error
}

// remotePayload is the wire shape posted to the action endpoint. Image bytes
// travel base64-encoded inline.
type remotePayload struct {
	ID             string   `json:"id"`
	Kind           string   `json:"kind"`
	ConversationID int64    `json:"conversation_id"`
	Text           string   `json:"text,omitempty"`
	Images         []string `json:"images,omitempty"`
}

// RemoteExecutor posts actions to an HTTP action endpoint. Image payloads
// are additionally written under imagesDir before the post so a failed or
// disputed send can be reconstructed from disk.
type RemoteExecutor struct {
	endpoint  string
	imagesDir string
	client    *fasthttp.Client
	timeout   time.Duration
}

// NewRemoteExecutor builds an executor for the given endpoint. imagesDir may
// be empty to skip materialization.
func NewRemoteExecutor(endpoint, imagesDir string) *RemoteExecutor {
	return &RemoteExecutor{
		endpoint:  endpoint,
		imagesDir: imagesDir,
		client: &fasthttp.Client{
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: 15 * time.Second,
	}
}

// Execute posts the action and treats any non-2xx status as failure. No
// retries: a failed action is logged and dropped, never replayed.
func (e *RemoteExecutor) Execute(ctx context.Context, action *models.OutboundAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.materialize(action)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	payload := remotePayload{
		ID:             action.ID,
		Kind:           action.Kind,
		ConversationID: action.ConversationID,
		Text:           action.Text,
	}
	for _, img := range action.Images {
		payload.Images = append(payload.Images, base64.StdEncoding.EncodeToString(img))
	}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode action %s: %w", action.ID, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(e.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(buf.Bytes())

	if err := e.client.DoTimeout(req, resp, e.timeout); err != nil {
		return fmt.Errorf("post action %s: %w", action.ID, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("action %s rejected: status %d", action.ID, code)
	}
	return nil
}

// materialize writes image payloads to disk. Failures are logged and
// ignored; the send proceeds regardless.
func (e *RemoteExecutor) materialize(action *models.OutboundAction) {
	if e.imagesDir == "" || len(action.Images) == 0 {
		return
	}
	for i, img := range action.Images {
		path := filepath.Join(e.imagesDir, fmt.Sprintf("%s-%d.bin", action.ID, i))
		if err := os.WriteFile(path, img, 0o600); err != nil {
			logger.Warn("action_image_write_failed", "id", action.ID, "path", path, "error", err)
		}
	}
}
