package models

import "encoding/json"

// MutationEvent types, as written by the capture triggers into
// bridge_change_events.
const (
	MutationNicknameChange = "NICKNAME_CHANGE"
	MutationProfileChange  = "PROFILE_CHANGE"
	MutationStatusChange   = "STATUS_CHANGE"
	MutationMessageDelete  = "MESSAGE_DELETE"
	MutationMessageHide    = "MESSAGE_HIDE"
	MutationFeedEvent      = "FEED_EVENT"
)

// MutationEvent is one row of the trigger-fed change buffer. The buffer is a
// queue, not a log: the drain removes each entry after its domain event has
// been published.
type MutationEvent struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	TargetID  int64  `json:"target_id"`
	Before    string `json:"before,omitempty"`
	After     string `json:"after,omitempty"`
	EncHint   int    `json:"enc_hint"`
	CreatedAt int64  `json:"created_at"`
}

// DomainEvent types.
const (
	EventMessage         = "message"
	EventNicknameChanged = "nickname_changed"
	EventProfileChanged  = "profile_changed"
	EventStatusChanged   = "status_changed"
	EventMessageDeleted  = "message_deleted"
	EventMessageHidden   = "message_hidden"
	EventFeed            = "feed"
)

// Feed sub-events derived from the feedType code embedded in feed records.
const (
	FeedJoin       = "JOIN"
	FeedLeave      = "LEAVE"
	FeedKick       = "KICK"
	FeedPromote    = "PROMOTE"
	FeedDemote     = "DEMOTE"
	FeedHandover   = "HANDOVER"
	FeedUnknown    = "UNKNOWN_FEED"
	FeedParseError = "PARSE_ERROR"
)

// FeedPayload is the structured record carried in a feed entry's before slot.
type FeedPayload struct {
	FeedType int             `json:"feedType"`
	Member   json.RawMessage `json:"member,omitempty"`
}

// FeedSubEvent maps a feedType code to the closed sub-event set. Unknown
// codes map to FeedUnknown.
func FeedSubEvent(code int) string {
	switch code {
	case 4:
		return FeedJoin
	case 2:
		return FeedLeave
	case 6:
		return FeedKick
	case 11:
		return FeedPromote
	case 12:
		return FeedDemote
	case 13:
		return FeedHandover
	default:
		return FeedUnknown
	}
}

// DomainEvent is the outward-facing normalized event published on the bus.
// Events are transient: never persisted, lost on restart except for the
// bounded recent ring kept for late status queries.
type DomainEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	SenderID       int64  `json:"sender_id,omitempty"`
	Conversation   string `json:"conversation,omitempty"`
	Sender         string `json:"sender,omitempty"`
	Message        string `json:"message,omitempty"`
	Attachment     string `json:"attachment,omitempty"`

	// Mutation-event fields.
	TargetID int64  `json:"target_id,omitempty"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
	Feed     string `json:"feed,omitempty"`

	// Raw carries the decrypted source row for message events.
	Raw *LogRecord `json:"raw,omitempty"`

	TS int64 `json:"ts"`
}
