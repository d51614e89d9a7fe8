package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// WatermarkName is the row key for the poller's log position. The table is a
// name/value store so future cursors can share it.
const WatermarkName = "chat_logs"

// Watermark returns the persisted watermark value. ok is false when no
// watermark has been saved yet.
func (s *Store) Watermark(ctx context.Context, name string) (value int64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM bridge_watermark WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get watermark %s: %w", name, err)
	}
	return value, true, nil
}

// SaveWatermark upserts the watermark. The MAX() guard keeps the persisted
// value monotonically non-decreasing even if a caller races itself during a
// restart window.
func (s *Store) SaveWatermark(ctx context.Context, name string, value int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bridge_watermark (name, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		     value = MAX(bridge_watermark.value, excluded.value),
		     updated_at = excluded.updated_at`,
		name, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save watermark %s: %w", name, err)
	}
	return nil
}
