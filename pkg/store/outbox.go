package store

import (
	"context"
	"fmt"

	"talkbridge/pkg/models"
)

// ChangeEvents returns all buffered mutation events in insertion order.
func (s *Store) ChangeEvents(ctx context.Context) ([]models.MutationEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, target_id, before_value, after_value, enc_hint, created_at
		 FROM bridge_change_events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list change events: %w", err)
	}
	defer rows.Close()

	var out []models.MutationEvent
	for rows.Next() {
		var m models.MutationEvent
		if err := rows.Scan(&m.ID, &m.Type, &m.TargetID, &m.Before, &m.After, &m.EncHint, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change event: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteChangeEvent removes one drained entry. Called only after the entry's
// domain event has been published, so a crash between emit and delete
// re-emits at most that one entry (at-least-once).
func (s *Store) DeleteChangeEvent(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM bridge_change_events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete change event %d: %w", id, err)
	}
	return nil
}

// PruneChangeEventsBefore removes entries created before the cutoff (unix
// seconds). The drain normally empties the buffer; this is the maintenance
// guard against entries a wedged drain left behind.
func (s *Store) PruneChangeEventsBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bridge_change_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune change events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertChangeEvent writes an outbox row directly, bypassing the triggers.
// Test helper.
func (s *Store) InsertChangeEvent(ctx context.Context, m models.MutationEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bridge_change_events (event_type, target_id, before_value, after_value, enc_hint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Type, m.TargetID, m.Before, m.After, m.EncHint, m.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert change event: %w", err)
	}
	return res.LastInsertId()
}
