package store

import (
	"context"
	"fmt"
)

// bridgeSchema creates the bridge-owned tables. The watermark table holds the
// single persisted poller position; the change-events table is the outbox
// populated by the capture triggers and drained (and deleted) by the drain.
var bridgeSchema = []string{
	`CREATE TABLE IF NOT EXISTS bridge_watermark (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bridge_change_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		target_id INTEGER NOT NULL DEFAULT 0,
		before_value TEXT NOT NULL DEFAULT '',
		after_value TEXT NOT NULL DEFAULT '',
		enc_hint INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	)`,
}

// captureTriggers installs change-data-capture on the messenger tables.
// The main log only ever appends, so renames, deletions, hides and feed
// records are only observable as mutations; each trigger copies the change
// into bridge_change_events for the drain to classify.
var captureTriggers = []string{
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_nickname
	AFTER UPDATE OF name ON friends
	WHEN new.name IS NOT old.name
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('NICKNAME_CHANGE', new.id, old.name, new.name, new.enc, CAST(strftime('%s','now') AS INTEGER));
	END`,
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_profile
	AFTER UPDATE OF profile_image_url ON friends
	WHEN new.profile_image_url IS NOT old.profile_image_url
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('PROFILE_CHANGE', new.id, old.profile_image_url, new.profile_image_url, 0, CAST(strftime('%s','now') AS INTEGER));
	END`,
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_status
	AFTER UPDATE OF status_message ON friends
	WHEN new.status_message IS NOT old.status_message
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('STATUS_CHANGE', new.id, old.status_message, new.status_message, new.enc, CAST(strftime('%s','now') AS INTEGER));
	END`,
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_delete
	AFTER UPDATE OF type ON chat_logs
	WHEN new.type = 14 AND old.type != 14
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('MESSAGE_DELETE', old.user_id, old.message, CAST(old.id AS TEXT), 0, CAST(strftime('%s','now') AS INTEGER));
	END`,
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_hide
	AFTER UPDATE OF hidden ON chat_logs
	WHEN new.hidden = 1 AND old.hidden = 0
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('MESSAGE_HIDE', old.user_id, CAST(old.id AS TEXT), CAST(old.chat_id AS TEXT), 0, CAST(strftime('%s','now') AS INTEGER));
	END`,
	`CREATE TRIGGER IF NOT EXISTS bridge_capture_feed
	AFTER INSERT ON chat_logs
	WHEN new.type = 0
	BEGIN
		INSERT INTO bridge_change_events(event_type, target_id, before_value, after_value, enc_hint, created_at)
		VALUES ('FEED_EVENT', new.user_id, new.message, CAST(new.chat_id AS TEXT),
			COALESCE(CAST(json_extract(new.v, '$.enc') AS INTEGER), 0),
			CAST(strftime('%s','now') AS INTEGER));
	END`,
}

// chatSchema mirrors the messenger's own tables. Production databases already
// contain them; EnsureChatSchema exists for development setups and tests.
var chatSchema = []string{
	`CREATE TABLE IF NOT EXISTS chat_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		type INTEGER NOT NULL DEFAULT 1,
		message TEXT NOT NULL DEFAULT '',
		attachment TEXT NOT NULL DEFAULT '',
		v TEXT NOT NULL DEFAULT '',
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		profile_image_url TEXT NOT NULL DEFAULT '',
		status_message TEXT NOT NULL DEFAULT '',
		enc INTEGER NOT NULL DEFAULT 0
	)`,
}

// InstallBridgeSchema creates the bridge tables and the capture triggers.
// All statements are idempotent; the call happens once at startup.
func (s *Store) InstallBridgeSchema(ctx context.Context) error {
	for _, stmt := range bridgeSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create bridge table: %w", err)
		}
	}
	for _, stmt := range captureTriggers {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("install capture trigger: %w", err)
		}
	}
	return nil
}

// EnsureChatSchema creates the messenger tables when absent. Development and
// test helper; a real messenger database already has them.
func (s *Store) EnsureChatSchema(ctx context.Context) error {
	for _, stmt := range chatSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create chat table: %w", err)
		}
	}
	return nil
}
