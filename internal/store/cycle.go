// ABOUTME: Read-only cycle state accessors used by display paths and tests
// ABOUTME: Mutations happen only inside the ingestion transaction (tx.go)

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetCycleState reads a gate's current cycle position outside any transaction.
// Returns ErrNotFound if the gate has no cycle state row.
func (s *SQLiteStore) GetCycleState(ctx context.Context, gateID int64) (*CycleState, error) {
	var state CycleState
	var updatedAtStr string
	err := s.db.QueryRowContext(ctx, `
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

// SatisfiedDoors returns the door positions already satisfied in the gate's
// in-progress cycle, keyed by door_no.
func (s *SQLiteStore) SatisfiedDoors(ctx context.Context, gateID int64) (map[int]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT door_no, last_scan_id FROM gate_cycle_door_state WHERE gate_id = ?
	`, gateID)
	if err != nil {
		return nil, fmt.Errorf("querying door state: %w", err)
	}
	defer rows.Close()

	satisfied := make(map[int]int64)
	for rows.Next() {
		var doorNo int
		var scanID int64
		if err := rows.Scan(&doorNo, &scanID); err != nil {
			return nil, fmt.Errorf("scanning door state row: %w", err)
		}
		satisfied[doorNo] = scanID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating door state rows: %w", err)
	}
	return satisfied, nil
}
