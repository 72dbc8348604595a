// ABOUTME: Action event reads and the idempotent close operation
// ABOUTME: Events record completed cycles; closing only sets closed_at once

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListActionEvents returns completed-cycle events joined with gate display
// data, most recent first. When includeClosed is false only events with a
// null closed_at are returned. If limit is 0 or negative, a default of 200
// is used.
func (s *SQLiteStore) ListActionEvents(ctx context.Context, limit int, includeClosed bool) ([]*ActionEvent, error) {
	limit = clampLimit(limit, 200)

	query := `
		SELECT e.id, e.gate_id, g.gate_code, e.completed_scan_id, e.completed_at,
		       e.closed_at, e.is_red_card, e.door2_elapsed_seconds
		FROM action_events e
		JOIN gates g ON g.id = e.gate_id
	`
	if !includeClosed {
		query += ` WHERE e.closed_at IS NULL`
	}
	query += ` ORDER BY e.id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying action events: %w", err)
	}
	defer rows.Close()

	var events []*ActionEvent
	for rows.Next() {
		var event ActionEvent
		var completedAtStr string
		var closedAtStr sql.NullString
		var redCard int
		var elapsed sql.NullInt64

		if err := rows.Scan(
			&event.ID,
			&event.GateID,
			&event.GateCode,
			&event.CompletedScanID,
			&completedAtStr,
			&closedAtStr,
			&redCard,
			&elapsed,
		); err != nil {
			return nil, fmt.Errorf("scanning action event row: %w", err)
		}

		if event.CompletedAt, err = parseTime(completedAtStr); err != nil {
			return nil, err
		}
		if closedAtStr.Valid {
			closedAt, err := parseTime(closedAtStr.String)
			if err != nil {
				return nil, err
			}
			event.ClosedAt = &closedAt
		}
		event.IsRedCard = redCard != 0
		if elapsed.Valid {
			v := elapsed.Int64
			event.Door2ElapsedSeconds = &v
		}

		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action event rows: %w", err)
	}

	for _, event := range events {
		doors, err := s.gateDoors(ctx, event.GateID)
		if err != nil {
			return nil, err
		}
		event.Doors = doors
	}
	return events, nil
}

// CloseActionEvent sets closed_at on an open event. Returns whether a row was
// actually updated, so closing an already-closed or unknown event is a safe
// no-op rather than an error.
func (s *SQLiteStore) CloseActionEvent(ctx context.Context, eventID int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE action_events
		SET closed_at = ?
		WHERE id = ? AND closed_at IS NULL
	`, formatTime(now), eventID)
	if err != nil {
		return false, fmt.Errorf("closing action event: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Info("closed action event", "event_id", eventID)
	}
	return rowsAffected > 0, nil
}
