// ABOUTME: SequenceEngine consumes scans and drives per-gate door-order state machines
// ABOUTME: A scan's ledger insert and every affected gate's transition commit in one transaction

package sequence

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gatewatch/gatewatch/internal/normalize"
	"github.com/gatewatch/gatewatch/internal/store"
)

// DefaultRedCardAfter is the door-1-to-door-2 window for two-door gates.
// Completions slower than this are flagged as red cards.
const DefaultRedCardAfter = 20 * time.Second

// TxRunner defines what the engine needs from storage: a transactional scope
// covering one whole scan.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Config carries the engine's tunables.
type Config struct {
	// RedCardAfter is the two-door timing window. Zero means DefaultRedCardAfter.
	RedCardAfter time.Duration
}

// Engine matches normalized scans against the gate catalog and advances each
// matched gate's cycle state, emitting an action event when a cycle completes.
type Engine struct {
	store        TxRunner
	redCardAfter time.Duration
	clock        func() time.Time
	logger       *slog.Logger
}

// New creates a sequence engine on top of the given store.
func New(st TxRunner, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	redCardAfter := cfg.RedCardAfter
	if redCardAfter <= 0 {
		redCardAfter = DefaultRedCardAfter
	}
	return &Engine{
		store:        st,
		redCardAfter: redCardAfter,
		clock:        time.Now,
		logger:       logger.With("component", "sequence"),
	}
}

// Ingest appends a scan to the ledger and runs the state machine for every
// gate the scan matches, all within one transaction. The scan is recorded
// whether or not it matches anything. Returns the new scan's id, or a
// ValidationError when the text trims to empty.
func (e *Engine) Ingest(ctx context.Context, rawText, source string) (int64, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return 0, store.Invalidf("qr_text is required")
	}

	src := strings.ToUpper(strings.TrimSpace(source))
	if src == "" {
		src = "UNKNOWN"
	}

	scannedAt := e.clock().UTC().Truncate(time.Second)
	matchText := normalize.Normalize(trimmed)

	var scanID int64
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		scanID, err = tx.InsertScan(ctx, trimmed, src, scannedAt)
		if err != nil {
			return err
		}
		return e.processScan(ctx, tx, matchText, scanID, scannedAt)
	})
	if err != nil {
		return 0, err
	}

	e.logger.Debug("ingested scan", "scan_id", scanID, "source", src)
	return scanID, nil
}

// processScan resolves the scan to doors and advances each matched gate
// independently. A single scan may complete one gate's cycle while only
// partially advancing another's.
func (e *Engine) processScan(ctx context.Context, tx *store.Tx, scannedText string, scanID int64, scannedAt time.Time) error {
	candidates := normalize.Candidates(scannedText)
	if len(candidates) == 0 {
		return nil
	}
	hints := normalize.GateHints(scannedText)

	matches, err := tx.MatchDoors(ctx, candidates, hints)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	matchedByGate := make(map[int64]map[int]bool)
	for _, m := range matches {
		if matchedByGate[m.GateID] == nil {
			matchedByGate[m.GateID] = make(map[int]bool)
		}
		matchedByGate[m.GateID][m.DoorNo] = true
	}

	gateIDs := make([]int64, 0, len(matchedByGate))
	for gateID := range matchedByGate {
		gateIDs = append(gateIDs, gateID)
		if err := tx.EnsureCycleState(ctx, gateID, scannedAt); err != nil {
			return err
		}
	}
	sort.Slice(gateIDs, func(i, j int) bool { return gateIDs[i] < gateIDs[j] })

	for _, gateID := range gateIDs {
		if err := e.advanceGate(ctx, tx, gateID, matchedByGate[gateID], scanID, scannedAt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) advanceGate(ctx context.Context, tx *store.Tx, gateID int64, matchedDoorNos map[int]bool, scanID int64, scannedAt time.Time) error {
	state, err := tx.CycleState(ctx, gateID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	requiredDoors, err := tx.RequiredDoorNos(ctx, gateID)
	if err != nil {
		return err
	}
	if len(requiredDoors) == 0 {
		return nil
	}

	doorCount := len(requiredDoors)
	expectedIndex := state.NextExpectedDoorNo
	if expectedIndex < 1 || expectedIndex > doorCount {
		expectedIndex = 1
	}
	expectedDoorNo := requiredDoors[expectedIndex-1]
	firstDoorNo := requiredDoors[0]

	if matchedDoorNos[expectedDoorNo] {
		if err := tx.RecordDoorScan(ctx, gateID, expectedDoorNo, scanID); err != nil {
			return err
		}
		if expectedIndex >= doorCount {
			return e.completeCycle(ctx, tx, gateID, doorCount, firstDoorNo, scanID, scannedAt)
		}
		return tx.SetNextExpectedDoor(ctx, gateID, expectedIndex+1, scannedAt)
	}

	// Wrong order: any partial progress is forfeited.
	if err := tx.ClearDoorState(ctx, gateID); err != nil {
		return err
	}

	if matchedDoorNos[firstDoorNo] {
		// The scan restarts the cycle from door 1.
		if err := tx.RecordDoorScan(ctx, gateID, firstDoorNo, scanID); err != nil {
			return err
		}
		return tx.SetNextExpectedDoor(ctx, gateID, 2, scannedAt)
	}

	e.logger.Debug("out-of-order scan reset gate", "gate_id", gateID, "scan_id", scanID)
	return tx.SetNextExpectedDoor(ctx, gateID, 1, scannedAt)
}

// completeCycle emits the action event and returns the gate to idle. Timing
// and red-card evaluation only apply to two-door gates; if door 1's scan
// cannot be resolved the elapsed time stays null and no red card is raised.
func (e *Engine) completeCycle(ctx context.Context, tx *store.Tx, gateID int64, doorCount, firstDoorNo int, scanID int64, scannedAt time.Time) error {
	isRedCard := false
	var elapsedSeconds *int64

	if doorCount == 2 {
		firstScanID, ok, err := tx.DoorScanID(ctx, gateID, firstDoorNo)
		if err != nil {
			return err
		}
		if ok {
			firstScanAt, found, err := tx.ScanTime(ctx, firstScanID)
			if err != nil {
				return err
			}
			if found {
				elapsed := int64(scannedAt.Sub(firstScanAt) / time.Second)
				if elapsed < 0 {
					elapsed = 0
				}
				elapsedSeconds = &elapsed
				isRedCard = elapsed > int64(e.redCardAfter/time.Second)
			}
		}
	}

	if err := tx.InsertActionEvent(ctx, gateID, scanID, scannedAt, isRedCard, elapsedSeconds); err != nil {
		return err
	}
	if err := tx.MarkCycleCompleted(ctx, gateID, scanID, scannedAt); err != nil {
		return err
	}
	if err := tx.ClearDoorState(ctx, gateID); err != nil {
		return err
	}

	e.logger.Info("cycle completed",
		"gate_id", gateID,
		"scan_id", scanID,
		"red_card", isRedCard,
	)
	return nil
}
