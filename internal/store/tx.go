// ABOUTME: Ingestion transaction: every operation a single scan needs, atomically
// ABOUTME: The sequence engine drives these so a scan's ledger insert and all gate transitions commit together

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tx exposes the write operations the sequence engine performs while
// processing one scan. All methods run inside the same database transaction;
// SQLite serializes concurrent writers (with the configured busy timeout) so
// two scans cannot observe the same pre-transition cycle state.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Tx{tx: dbTx}); err != nil {
		dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// InsertScan appends a scan to the ledger and returns its assigned id.
func (t *Tx) InsertScan(ctx context.Context, rawText, source string, scannedAt time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO scans (scanned_at, raw_text, source) VALUES (?, ?, ?)`,
		formatTime(scannedAt), rawText, source,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading scan id: %w", err)
	}
	return id, nil
}

// MatchDoors finds all (gate, door_no) pairs whose door number matches one of
// the candidate forms, case-insensitively. When hints is non-empty the search
// is first restricted to gates whose code is in hints; if that restricted
// search matches nothing, the search falls back to all gates, since a door
// label is assumed to identify its gate when no hinted gate owns it.
func (t *Tx) MatchDoors(ctx context.Context, candidates, hints []string) ([]DoorMatch, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if len(hints) > 0 {
		query := fmt.Sprintf(`
			SELECT d.gate_id, d.door_no
			FROM gate_doors d
			JOIN gates g ON g.id = d.gate_id
			WHERE UPPER(d.door_number) IN (%s)
			  AND UPPER(g.gate_code) IN (%s)
		`, placeholders(len(candidates)), placeholders(len(hints)))

		args := make([]any, 0, len(candidates)+len(hints))
		for _, c := range candidates {
			args = append(args, c)
		}
		for _, h := range hints {
			args = append(args, h)
		}

		matches, err := t.queryMatches(ctx, query, args...)
		if err != nil || len(matches) > 0 {
			return matches, err
		}
	}

	query := fmt.Sprintf(`
		SELECT gate_id, door_no
		FROM gate_doors
		WHERE UPPER(door_number) IN (%s)
	`, placeholders(len(candidates)))

	args := make([]any, 0, len(candidates))
	for _, c := range candidates {
		args = append(args, c)
	}
	return t.queryMatches(ctx, query, args...)
}

func (t *Tx) queryMatches(ctx context.Context, query string, args ...any) ([]DoorMatch, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying door matches: %w", err)
	}
	defer rows.Close()

	var matches []DoorMatch
	for rows.Next() {
		var m DoorMatch
		if err := rows.Scan(&m.GateID, &m.DoorNo); err != nil {
			return nil, fmt.Errorf("scanning door match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating door matches: %w", err)
	}
	return matches, nil
}

// EnsureCycleState initializes the gate's cycle state at door 1 if missing.
func (t *Tx) EnsureCycleState(ctx context.Context, gateID int64, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO gate_cycle_state (gate_id, last_completed_scan_id, next_expected_door_no, updated_at)
		VALUES (?, 0, 1, ?)
	`, gateID, formatTime(now))
	if err != nil {
		return fmt.Errorf("ensuring cycle state: %w", err)
	}
	return nil
}

// CycleState reads the gate's current cycle position.
// Returns ErrNotFound if the gate has no cycle state row.
func (t *Tx) CycleState(ctx context.Context, gateID int64) (*CycleState, error) {
	var state CycleState
	var updatedAtStr string
	err := t.tx.QueryRowContext(ctx, `
		SELECT gate_id, last_completed_scan_id, next_expected_door_no, updated_at
		FROM gate_cycle_state
		WHERE gate_id = ?
	`, gateID).Scan(&state.GateID, &state.LastCompletedScanID, &state.NextExpectedDoorNo, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cycle state: %w", err)
	}
	if state.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}
	return &state, nil
}

// RequiredDoorNos returns the gate's door positions ordered by door_no.
func (t *Tx) RequiredDoorNos(ctx context.Context, gateID int64) ([]int, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT door_no FROM gate_doors WHERE gate_id = ? ORDER BY door_no ASC
	`, gateID)
	if err != nil {
		return nil, fmt.Errorf("querying required doors: %w", err)
	}
	defer rows.Close()

	var doorNos []int
	for rows.Next() {
		var doorNo int
		if err := rows.Scan(&doorNo); err != nil {
			return nil, fmt.Errorf("scanning required door: %w", err)
		}
		doorNos = append(doorNos, doorNo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating required doors: %w", err)
	}
	return doorNos, nil
}

// RecordDoorScan upserts the satisfied-door row for the current cycle.
func (t *Tx) RecordDoorScan(ctx context.Context, gateID int64, doorNo int, scanID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO gate_cycle_door_state (gate_id, door_no, last_scan_id)
		VALUES (?, ?, ?)
		ON CONFLICT(gate_id, door_no) DO UPDATE SET last_scan_id = excluded.last_scan_id
	`, gateID, doorNo, scanID)
	if err != nil {
		return fmt.Errorf("recording door scan: %w", err)
	}
	return nil
}

// ClearDoorState forgets all per-cycle door progress for the gate.
func (t *Tx) ClearDoorState(ctx context.Context, gateID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM gate_cycle_door_state WHERE gate_id = ?`, gateID); err != nil {
		return fmt.Errorf("clearing door state: %w", err)
	}
	return nil
}

// DoorScanID returns the scan id that satisfied doorNo in the current cycle,
// or ok=false if the door has no recorded scan.
func (t *Tx) DoorScanID(ctx context.Context, gateID int64, doorNo int) (int64, bool, error) {
	var scanID int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT last_scan_id FROM gate_cycle_door_state WHERE gate_id = ? AND door_no = ?
	`, gateID, doorNo).Scan(&scanID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying door scan: %w", err)
	}
	return scanID, true, nil
}

// ScanTime returns the recorded time of a scan, or ok=false if the scan is
// unknown.
func (t *Tx) ScanTime(ctx context.Context, scanID int64) (time.Time, bool, error) {
	var scannedAtStr string
	err := t.tx.QueryRowContext(ctx,
		`SELECT scanned_at FROM scans WHERE id = ?`, scanID).Scan(&scannedAtStr)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying scan time: %w", err)
	}
	scannedAt, err := parseTime(scannedAtStr)
	if err != nil {
		return time.Time{}, false, err
	}
	return scannedAt, true, nil
}

// InsertActionEvent records a completed cycle. The insert is idempotent on
// (gate_id, completed_scan_id): a duplicate for the same scan is silently
// ignored so retried transactions stay safe.
func (t *Tx) InsertActionEvent(ctx context.Context, gateID, completedScanID int64, completedAt time.Time, isRedCard bool, door2ElapsedSeconds *int64) error {
	redCard := 0
	if isRedCard {
		redCard = 1
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO action_events (gate_id, completed_scan_id, completed_at, is_red_card, door2_elapsed_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, gateID, completedScanID, formatTime(completedAt), redCard, door2ElapsedSeconds)
	if err != nil {
		return fmt.Errorf("inserting action event: %w", err)
	}
	return nil
}

// MarkCycleCompleted resets the gate to idle after a completed cycle,
// remembering the scan that finished it.
func (t *Tx) MarkCycleCompleted(ctx context.Context, gateID, completedScanID int64, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE gate_cycle_state
		SET last_completed_scan_id = ?, next_expected_door_no = 1, updated_at = ?
		WHERE gate_id = ?
	`, completedScanID, formatTime(now), gateID)
	if err != nil {
		return fmt.Errorf("marking cycle completed: %w", err)
	}
	return nil
}

// SetNextExpectedDoor advances (or resets) the gate's expected door position.
func (t *Tx) SetNextExpectedDoor(ctx context.Context, gateID int64, doorNo int, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE gate_cycle_state
		SET next_expected_door_no = ?, updated_at = ?
		WHERE gate_id = ?
	`, doorNo, formatTime(now), gateID)
	if err != nil {
		return fmt.Errorf("setting next expected door: %w", err)
	}
	return nil
}
