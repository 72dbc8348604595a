// ABOUTME: Gate catalog persistence: gates and their ordered doors
// ABOUTME: Door replacement is atomic and always discards in-flight cycle progress

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateGate inserts a gate with the given (already normalized) code and
// initializes its cycle state at door 1. Returns ErrDuplicateGate when the
// code is taken.
func (s *SQLiteStore) CreateGate(ctx context.Context, gateCode string, now time.Time) (*Gate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO gates (gate_code, created_at) VALUES (?, ?)`,
		gateCode, formatTime(now),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicateGate
		}
		return nil, fmt.Errorf("inserting gate: %w", err)
	}

	gateID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading gate id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO gate_cycle_state (gate_id, last_completed_scan_id, next_expected_door_no, updated_at)
		VALUES (?, 0, 1, ?)
	`, gateID, formatTime(now)); err != nil {
		return nil, fmt.Errorf("initializing cycle state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing gate: %w", err)
	}

	s.logger.Info("created gate", "gate_id", gateID, "gate_code", gateCode)
	return s.GetGate(ctx, gateID)
}

// ReplaceDoors atomically swaps the gate's entire door set, assigning door_no
// by list position, and resets cycle progress to idle. Returns ErrNotFound if
// the gate does not exist and ErrDuplicateDoor on a uniqueness collision.
func (s *SQLiteStore) ReplaceDoors(ctx context.Context, gateID int64, doorNumbers []string, now time.Time) (*Gate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM gates WHERE id = ?`, gateID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying gate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM gate_doors WHERE gate_id = ?`, gateID); err != nil {
		return nil, fmt.Errorf("clearing doors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gate_cycle_door_state WHERE gate_id = ?`, gateID); err != nil {
		return nil, fmt.Errorf("clearing door state: %w", err)
	}

	ts := formatTime(now)
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO gate_cycle_state (gate_id, last_completed_scan_id, next_expected_door_no, updated_at)
		VALUES (?, 0, 1, ?)
	`, gateID, ts); err != nil {
		return nil, fmt.Errorf("ensuring cycle state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE gate_cycle_state
		SET last_completed_scan_id = 0, next_expected_door_no = 1, updated_at = ?
		WHERE gate_id = ?
	`, ts, gateID); err != nil {
		return nil, fmt.Errorf("resetting cycle state: %w", err)
	}

	for i, doorNumber := range doorNumbers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gate_doors (gate_id, door_no, door_number, created_at)
			VALUES (?, ?, ?, ?)
		`, gateID, i+1, doorNumber, ts); err != nil {
			if isConstraintViolation(err) {
				return nil, ErrDuplicateDoor
			}
			return nil, fmt.Errorf("inserting door %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing doors: %w", err)
	}

	s.logger.Info("replaced gate doors", "gate_id", gateID, "door_count", len(doorNumbers))
	return s.GetGate(ctx, gateID)
}

// GetGate retrieves a gate with its doors ordered by door_no.
// Returns ErrNotFound if the gate doesn't exist.
func (s *SQLiteStore) GetGate(ctx context.Context, gateID int64) (*Gate, error) {
	var gate Gate
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, gate_code, created_at FROM gates WHERE id = ?`, gateID,
	).Scan(&gate.ID, &gate.GateCode, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying gate: %w", err)
	}

	if gate.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}

	if gate.Doors, err = s.gateDoors(ctx, gateID); err != nil {
		return nil, err
	}
	return &gate, nil
}

// ListGates returns gates with their doors, most recently created first.
// If limit is 0 or negative, a default of 300 is used.
func (s *SQLiteStore) ListGates(ctx context.Context, limit int) ([]*Gate, error) {
	limit = clampLimit(limit, 300)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM gates ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying gates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning gate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gate rows: %w", err)
	}

	gates := make([]*Gate, 0, len(ids))
	for _, id := range ids {
		gate, err := s.GetGate(ctx, id)
		if err != nil {
			return nil, err
		}
		gates = append(gates, gate)
	}
	return gates, nil
}

func (s *SQLiteStore) gateDoors(ctx context.Context, gateID int64) ([]Door, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT door_no, door_number, created_at
		FROM gate_doors
		WHERE gate_id = ?
		ORDER BY door_no ASC
	`, gateID)
	if err != nil {
		return nil, fmt.Errorf("querying doors: %w", err)
	}
	defer rows.Close()

	var doors []Door
	for rows.Next() {
		var d Door
		var createdAtStr string
		if err := rows.Scan(&d.DoorNo, &d.DoorNumber, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning door row: %w", err)
		}
		if d.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, err
		}
		doors = append(doors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating door rows: %w", err)
	}
	return doors, nil
}

// clampLimit applies a default for non-positive limits and caps at 5000.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 5000 {
		return 5000
	}
	return limit
}
