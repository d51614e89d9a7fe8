// Package validation checks outbound actions before they enter the dispatch
// queue. Rejections happen at submission time so a bad action never occupies
// queue capacity.
package validation

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"talkbridge/pkg/models"
)

// MaxImagesPerRequest caps how many image payloads one action may carry.
// Submission body limits are sized from the same constant.
const MaxImagesPerRequest = 16

// ValidateAction checks a submitted action against the configured limits.
// maxImageBytes bounds each individual image payload, not the sum.
func ValidateAction(a *models.OutboundAction, maxImageBytes int64) error {
	if a == nil {
		return fmt.Errorf("action is empty")
	}
	if a.ConversationID <= 0 {
		return fmt.Errorf("conversation_id must be positive")
	}
	switch a.Kind {
	case models.ActionSendText:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("text must not be empty")
		}
	case models.ActionSendImage:
		if len(a.Images) != 1 {
			return fmt.Errorf("exactly one image payload required")
		}
	case models.ActionSendImages:
		if len(a.Images) == 0 {
			return fmt.Errorf("at least one image payload required")
		}
		if len(a.Images) > MaxImagesPerRequest {
			return fmt.Errorf("at most %d image payloads allowed, got %d", MaxImagesPerRequest, len(a.Images))
		}
	case models.ActionMarkRead:
		// No payload beyond the conversation id.
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	for i, img := range a.Images {
		if len(img) == 0 {
			return fmt.Errorf("image %d is empty", i)
		}
		if maxImageBytes > 0 && int64(len(img)) > maxImageBytes {
			return fmt.Errorf("image %d exceeds limit of %s", i, humanize.IBytes(uint64(maxImageBytes)))
		}
	}
	return nil
}
