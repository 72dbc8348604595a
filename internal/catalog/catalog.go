// ABOUTME: GateCatalog service: validated configuration of gates and ordered doors
// ABOUTME: Normalizes codes before storage so matching compares like with like

package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/gatewatch/gatewatch/internal/normalize"
	"github.com/gatewatch/gatewatch/internal/store"
)

// MinDoors and MaxDoors bound how many doors a gate may require.
const (
	MinDoors = 2
	MaxDoors = 6
)

// Store defines what the catalog needs from storage.
type Store interface {
	CreateGate(ctx context.Context, gateCode string, now time.Time) (*store.Gate, error)
	ReplaceDoors(ctx context.Context, gateID int64, doorNumbers []string, now time.Time) (*store.Gate, error)
	GetGate(ctx context.Context, gateID int64) (*store.Gate, error)
	ListGates(ctx context.Context, limit int) ([]*store.Gate, error)
}

// Service validates and normalizes gate configuration before it reaches
// storage. All writes discard any in-flight sequence progress for the gate.
type Service struct {
	store  Store
	clock  func() time.Time
	logger *slog.Logger
}

// New creates a catalog service.
func New(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		clock:  time.Now,
		logger: logger.With("component", "catalog"),
	}
}

// CreateGate registers a new gate under the normalized (uppercased) code.
// Returns a ValidationError for an empty code and ErrDuplicateGate for a
// taken one.
func (s *Service) CreateGate(ctx context.Context, gateCode string) (*store.Gate, error) {
	code := normalize.Normalize(gateCode)
	if code == "" {
		return nil, store.Invalidf("gate_code is required")
	}
	return s.store.CreateGate(ctx, code, s.clock())
}

// SetDoors replaces the gate's entire door set with the given ordered list.
// The list must hold 2-6 entries, each non-empty after normalization and
// unique within the list. Cycle progress resets to idle.
func (s *Service) SetDoors(ctx context.Context, gateID int64, doorNumbers []string) (*store.Gate, error) {
	if len(doorNumbers) < MinDoors || len(doorNumbers) > MaxDoors {
		return nil, store.Invalidf("door_numbers must contain between %d and %d items", MinDoors, MaxDoors)
	}

	normalized := make([]string, 0, len(doorNumbers))
	seen := make(map[string]bool, len(doorNumbers))
	for i, raw := range doorNumbers {
		value := normalize.Normalize(raw)
		if value == "" {
			return nil, store.Invalidf("door number %d is required", i+1)
		}
		if seen[value] {
			return nil, store.Invalidf("door numbers must be unique for the gate")
		}
		seen[value] = true
		normalized = append(normalized, value)
	}

	return s.store.ReplaceDoors(ctx, gateID, normalized, s.clock())
}

// Get returns one gate with its ordered doors.
func (s *Service) Get(ctx context.Context, gateID int64) (*store.Gate, error) {
	return s.store.GetGate(ctx, gateID)
}

// List returns gates with their doors, most recently created first.
func (s *Service) List(ctx context.Context, limit int) ([]*store.Gate, error) {
	return s.store.ListGates(ctx, limit)
}
