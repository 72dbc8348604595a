// ABOUTME: Data types and error taxonomy for gatewatch persistence
// ABOUTME: Defines Scan, Gate, Door, CycleState, ActionEvent and sentinel errors

package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateGate is returned when creating a gate whose code already exists.
var ErrDuplicateGate = errors.New("gate already exists")

// ErrDuplicateDoor is returned when a door number collides with an existing
// door of the same gate.
var ErrDuplicateDoor = errors.New("door already exists for gate")

// ValidationError marks input that was rejected before any mutation:
// empty gate codes, wrong door counts, duplicate door numbers, empty scan text.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Invalidf builds a ValidationError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is one of the uniqueness-conflict sentinels.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateGate) || errors.Is(err, ErrDuplicateDoor)
}

// Scan is one ingested scanner payload. Scans are immutable once created and
// are recorded whether or not they match any configured gate.
type Scan struct {
	ID        int64
	ScannedAt time.Time
	RawText   string
	Source    string
}

// Door is one required scan step within a gate. DoorNo is the 1-based position
// in the required order; DoorNumber is the canonical text a scan must match.
type Door struct {
	DoorNo     int
	DoorNumber string
	CreatedAt  time.Time
}

// Gate is a checkpoint whose doors must be scanned in order.
type Gate struct {
	ID        int64
	GateCode  string
	CreatedAt time.Time
	Doors     []Door
}

// DoorCount returns the number of configured doors.
func (g *Gate) DoorCount() int { return len(g.Doors) }

// CycleState tracks where in its door sequence a gate currently is.
// NextExpectedDoorNo is 1 when the gate is idle.
type CycleState struct {
	GateID              int64
	LastCompletedScanID int64
	NextExpectedDoorNo  int
	UpdatedAt           time.Time
}

// ActionEvent records one completed cycle. ClosedAt is nil while the event is
// still open. Door2ElapsedSeconds and the red-card flag are only meaningful
// for two-door gates.
type ActionEvent struct {
	ID                  int64
	GateID              int64
	GateCode            string
	Doors               []Door
	CompletedScanID     int64
	CompletedAt         time.Time
	ClosedAt            *time.Time
	IsRedCard           bool
	Door2ElapsedSeconds *int64
}

// GateSummary is the legacy dashboard aggregate over the raw scan ledger,
// grouped by scanned text independent of gate configuration.
type GateSummary struct {
	GateCode      string
	ScanCount     int64
	LastScannedAt time.Time
}

// DoorMatch is one (gate, door position) pair whose configured door number
// matched a scan candidate.
type DoorMatch struct {
	GateID int64
	DoorNo int
}
