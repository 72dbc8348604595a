// ABOUTME: Tests for scan ledger reads and action event lifecycle
// ABOUTME: Uses the transactional API directly to seed rows

package store

import (
	"context"
	"testing"
	"time"
)

func seedScan(t *testing.T, st *SQLiteStore, text, source string, at time.Time) int64 {
	t.Helper()
	var scanID int64
	err := st.WithTx(context.Background(), func(tx *Tx) error {
		var err error
		scanID, err = tx.InsertScan(context.Background(), text, source, at)
		return err
	})
	if err != nil {
		t.Fatalf("seeding scan: %v", err)
	}
	return scanID
}

func TestListScansNewestFirst(t *testing.T) {
	st := newTestStore(t)

	seedScan(t, st, "FIRST", "MANUAL", testNow)
	seedScan(t, st, "SECOND", "MANUAL", testNow.Add(time.Second))

	scans, err := st.ListScans(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("got %d scans, want 2", len(scans))
	}
	if scans[0].RawText != "SECOND" || scans[1].RawText != "FIRST" {
		t.Errorf("scans not newest-first: %q, %q", scans[0].RawText, scans[1].RawText)
	}
	if !scans[1].ScannedAt.Equal(testNow) {
		t.Errorf("scanned_at = %v, want %v", scans[1].ScannedAt, testNow)
	}
}

func TestListGateSummary(t *testing.T) {
	st := newTestStore(t)

	seedScan(t, st, "A1", "MANUAL", testNow)
	seedScan(t, st, "A1", "MANUAL", testNow.Add(time.Second))
	seedScan(t, st, "B1", "MANUAL", testNow.Add(2*time.Second))

	summary, err := st.ListGateSummary(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListGateSummary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("got %d summary rows, want 2", len(summary))
	}
	// Most recently scanned text first.
	if summary[0].GateCode != "B1" || summary[0].ScanCount != 1 {
		t.Errorf("summary[0] = %+v", summary[0])
	}
	if summary[1].GateCode != "A1" || summary[1].ScanCount != 2 {
		t.Errorf("summary[1] = %+v", summary[1])
	}
}

func TestActionEventLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gate, err := st.CreateGate(ctx, "G1", testNow)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}
	if _, err := st.ReplaceDoors(ctx, gate.ID, []string{"A1", "A2"}, testNow); err != nil {
		t.Fatalf("ReplaceDoors: %v", err)
	}
	scanID := seedScan(t, st, "A2", "MANUAL", testNow)

	elapsed := int64(5)
	err = st.WithTx(ctx, func(tx *Tx) error {
		return tx.InsertActionEvent(ctx, gate.ID, scanID, testNow, false, &elapsed)
	})
	if err != nil {
		t.Fatalf("InsertActionEvent: %v", err)
	}

	events, err := st.ListActionEvents(ctx, 0, false)
	if err != nil {
		t.Fatalf("ListActionEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.GateCode != "G1" || ev.CompletedScanID != scanID {
		t.Errorf("event = %+v", ev)
	}
	if ev.ClosedAt != nil || ev.IsRedCard {
		t.Errorf("new event should be open and not red: %+v", ev)
	}
	if ev.Door2ElapsedSeconds == nil || *ev.Door2ElapsedSeconds != 5 {
		t.Errorf("elapsed = %v, want 5", ev.Door2ElapsedSeconds)
	}
	if len(ev.Doors) != 2 {
		t.Errorf("event doors = %+v, want gate's 2 doors", ev.Doors)
	}

	closed, err := st.CloseActionEvent(ctx, ev.ID, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("CloseActionEvent: %v", err)
	}
	if !closed {
		t.Error("first close should report true")
	}

	// Closed events disappear from the default listing.
	open, err := st.ListActionEvents(ctx, 0, false)
	if err != nil {
		t.Fatalf("ListActionEvents open: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open listing has %d events, want 0", len(open))
	}
	all, err := st.ListActionEvents(ctx, 0, true)
	if err != nil {
		t.Fatalf("ListActionEvents all: %v", err)
	}
	if len(all) != 1 || all[0].ClosedAt == nil {
		t.Errorf("all listing = %+v", all)
	}

	// Closing again is a no-op.
	closed, err = st.CloseActionEvent(ctx, ev.ID, testNow.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("second CloseActionEvent: %v", err)
	}
	if closed {
		t.Error("second close should report false")
	}
}

func TestInsertActionEventIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	gate, err := st.CreateGate(ctx, "G1", testNow)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}
	scanID := seedScan(t, st, "A2", "MANUAL", testNow)

	for i := 0; i < 2; i++ {
		err = st.WithTx(ctx, func(tx *Tx) error {
			return tx.InsertActionEvent(ctx, gate.ID, scanID, testNow, true, nil)
		})
		if err != nil {
			t.Fatalf("InsertActionEvent #%d: %v", i+1, err)
		}
	}

	events, err := st.ListActionEvents(ctx, 0, true)
	if err != nil {
		t.Fatalf("ListActionEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events for one (gate, scan) pair, want 1", len(events))
	}
}

func TestCloseActionEventUnknown(t *testing.T) {
	st := newTestStore(t)

	closed, err := st.CloseActionEvent(context.Background(), 12345, testNow)
	if err != nil {
		t.Fatalf("CloseActionEvent: %v", err)
	}
	if closed {
		t.Error("closing an unknown event should report false")
	}
}
