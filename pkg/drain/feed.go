package drain

import (
	"encoding/json"
	"strings"

	"talkbridge/pkg/logger"
	"talkbridge/pkg/models"
)

// classifyFeed parses a feed record body into its sub-event. Malformed
// bodies still produce an event, tagged PARSE_ERROR, so consumers see every
// feed row even when the app changes its payload shape under us.
func classifyFeed(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.FeedParseError
	}
	var payload models.FeedPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		logger.Warn("feed_payload_malformed", "error", err)
		return models.FeedParseError
	}
	return models.FeedSubEvent(payload.FeedType)
}
