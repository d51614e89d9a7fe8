package models

import "encoding/json"

// Record types as stored in chat_logs.type.
const (
	TypeFeed     = 0
	TypeText     = 1
	TypePhoto    = 2
	TypeVideo    = 3
	TypeAudio    = 12
	TypeDeleted  = 14
	TypeFile     = 18
	TypeMultiple = 27
)

// OriginSync marks records that are synchronization echoes from another
// device, not new content.
const OriginSync = "SYNCMSG"

// LogRecord is one row of the messenger's append-only chat_logs table.
// Rows are immutable once written; deletions and hides surface as mutation
// events, never as row removal.
type LogRecord struct {
	ID         int64  `json:"id"`
	ChatID     int64  `json:"chat_id"`
	UserID     int64  `json:"user_id"`
	Type       int    `json:"type"`
	Message    string `json:"message"`
	Attachment string `json:"attachment,omitempty"`
	V          string `json:"v,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// RecordMeta is the parsed metadata wrapper carried in LogRecord.V.
type RecordMeta struct {
	Enc    int    `json:"enc"`
	Origin string `json:"origin"`
}

// Meta parses the record's metadata wrapper. A missing or malformed wrapper
// yields the zero meta (enc 0, no origin) rather than an error; such records
// decrypt via the legacy zero-salt path.
func (r *LogRecord) Meta() RecordMeta {
	var m RecordMeta
	if r.V == "" {
		return m
	}
	_ = json.Unmarshal([]byte(r.V), &m)
	return m
}

// HasAttachment reports whether the record carries an attachment payload
// worth a decryption attempt. Feed records and empty or marker-only payloads
// are skipped so a benign marker is never mistaken for ciphertext.
func (r *LogRecord) HasAttachment() bool {
	if r.Type == TypeFeed {
		return false
	}
	switch r.Attachment {
	case "", "{}", "[]":
		return false
	}
	return true
}
