package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"talkbridge/pkg/models"
)

// MaxLogID returns the highest chat_logs id, or 0 for an empty log.
func (s *Store) MaxLogID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM chat_logs`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("max log id: %w", err)
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// CountLogsAfter returns how many records sit above the watermark.
func (s *Store) CountLogsAfter(ctx context.Context, watermark int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_logs WHERE id > ?`, watermark).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count logs after %d: %w", watermark, err)
	}
	return n, nil
}

// LogsAfter returns up to limit records with id > watermark in ascending id
// order — the only total order the bridge trusts.
func (s *Store) LogsAfter(ctx context.Context, watermark int64, limit int) ([]models.LogRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, user_id, type, message, attachment, v, created_at
		 FROM chat_logs WHERE id > ? ORDER BY id ASC LIMIT ?`, watermark, limit)
	if err != nil {
		return nil, fmt.Errorf("logs after %d: %w", watermark, err)
	}
	defer rows.Close()

	var out []models.LogRecord
	for rows.Next() {
		var r models.LogRecord
		if err := rows.Scan(&r.ID, &r.ChatID, &r.UserID, &r.Type, &r.Message, &r.Attachment, &r.V, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertLogRecord appends a record and returns its id. Development and test
// helper; production rows are written by the messenger itself.
func (s *Store) InsertLogRecord(ctx context.Context, r models.LogRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_logs (chat_id, user_id, type, message, attachment, v, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ChatID, r.UserID, r.Type, r.Message, r.Attachment, r.V, r.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert log record: %w", err)
	}
	return res.LastInsertId()
}

// FriendName returns a friend's (possibly encrypted) display name and its
// encoding type.
func (s *Store) FriendName(ctx context.Context, id int64) (string, int, error) {
	var name string
	var enc int
	err := s.db.QueryRowContext(ctx,
		`SELECT name, enc FROM friends WHERE id = ?`, id).Scan(&name, &enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("friend name %d: %w", id, err)
	}
	return name, enc, nil
}

// ChatName returns a conversation's display name.
func (s *Store) ChatName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM chat_rooms WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("chat name %d: %w", id, err)
	}
	return name, nil
}

// UpsertFriend writes a friends row. Development and test helper.
func (s *Store) UpsertFriend(ctx context.Context, id int64, name, profileURL, status string, enc int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (id, name, profile_image_url, status_message, enc)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     profile_image_url = excluded.profile_image_url,
		     status_message = excluded.status_message,
		     enc = excluded.enc`,
		id, name, profileURL, status, enc)
	if err != nil {
		return fmt.Errorf("upsert friend %d: %w", id, err)
	}
	return nil
}

// UpsertChatRoom writes a chat_rooms row. Development and test helper.
func (s *Store) UpsertChatRoom(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_rooms (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`, id, name)
	if err != nil {
		return fmt.Errorf("upsert chat room %d: %w", id, err)
	}
	return nil
}

// Exec runs an arbitrary statement against the shared handle. Test helper
// for simulating messenger-side mutations (renames, deletes, hides).
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
