package models

// Outbound action kinds.
const (
	ActionSendText   = "send_text"
	ActionSendImage  = "send_image"
	ActionSendImages = "send_images"
	ActionMarkRead   = "mark_read"
)

// OutboundAction is a pending side-effecting operation against the messenger.
// Actions are executed once, in submission order, and never retried.
type OutboundAction struct {
	ID             string   `json:"id"`
	Kind           string   `json:"kind"`
	ConversationID int64    `json:"conversation_id"`
	Text           string   `json:"text,omitempty"`
	Images         [][]byte `json:"-"`
	SubmittedAt    int64    `json:"submitted_at"`
}
