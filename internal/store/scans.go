// ABOUTME: Scan ledger reads: recent scans and the legacy gate summary aggregate
// ABOUTME: Writes go through the ingestion transaction in tx.go

package store

import (
	"context"
	"fmt"
)

// ListScans returns the most recent scans, newest first.
// If limit is 0 or negative, a default of 300 is used.
func (s *SQLiteStore) ListScans(ctx context.Context, limit int) ([]*Scan, error) {
	limit = clampLimit(limit, 300)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scanned_at, raw_text, source
		FROM scans
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		var scan Scan
		var scannedAtStr string
		if err := rows.Scan(&scan.ID, &scannedAtStr, &scan.RawText, &scan.Source); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		if scan.ScannedAt, err = parseTime(scannedAtStr); err != nil {
			return nil, err
		}
		scans = append(scans, &scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan rows: %w", err)
	}
	return scans, nil
}

// ListGateSummary aggregates the scan ledger grouped by raw scanned text,
// most recently scanned first. This is independent of gate configuration.
func (s *SQLiteStore) ListGateSummary(ctx context.Context, limit int) ([]*GateSummary, error) {
	limit = clampLimit(limit, 300)

	rows, err := s.db.QueryContext(ctx, `
		SELECT raw_text, COUNT(*), MAX(scanned_at)
		FROM scans
		GROUP BY raw_text
		ORDER BY MAX(scanned_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying gate summary: %w", err)
	}
	defer rows.Close()

	var summary []*GateSummary
	for rows.Next() {
		var row GateSummary
		var lastStr string
		if err := rows.Scan(&row.GateCode, &row.ScanCount, &lastStr); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		if row.LastScannedAt, err = parseTime(lastStr); err != nil {
			return nil, err
		}
		summary = append(summary, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}
	return summary, nil
}
