// ABOUTME: Tests for scan text normalization, candidate and hint generation
// ABOUTME: Exercises formatting drift cases seen on real QR payloads

package normalize

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t  ", ""},
		{"collapses runs", "  gate   a  -  1 ", "GATE A - 1"},
		{"uppercases", "door 2", "DOOR 2"},
		{"en dash", "GATE–1", "GATE-1"},
		{"em dash", "A—1", "A-1"},
		{"minus sign", "B−2", "B-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"gate a - 1", "DOOR–7", "  x   y  "}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestCandidatesEmpty(t *testing.T) {
	if got := Candidates(""); got != nil {
		t.Errorf("Candidates(\"\") = %v, want nil", got)
	}
	if got := Candidates("   "); got != nil {
		t.Errorf("Candidates(whitespace) = %v, want nil", got)
	}
}

func TestCandidatesNumericPadding(t *testing.T) {
	got := Candidates("7")
	for _, want := range []string{"7", "07", "007"} {
		if !slices.Contains(got, want) {
			t.Errorf("Candidates(\"7\") missing %q; got %v", want, got)
		}
	}
}

func TestCandidatesDoorDash(t *testing.T) {
	got := Candidates("Door-7")
	for _, want := range []string{"7", "07", "007", "DOOR 7", "DOOR7", "DOOR-7", "DOOR 07"} {
		if !slices.Contains(got, want) {
			t.Errorf("Candidates(\"Door-7\") missing %q; got %v", want, got)
		}
	}
}

func TestCandidatesCompactDoor(t *testing.T) {
	// "DOOR1" must reach a gate configured with "DOOR 1" and vice versa.
	got := Candidates("DOOR1")
	for _, want := range []string{"DOOR 1", "DOOR1", "1", "01"} {
		if !slices.Contains(got, want) {
			t.Errorf("Candidates(\"DOOR1\") missing %q; got %v", want, got)
		}
	}
}

func TestCandidatesDashSegments(t *testing.T) {
	got := Candidates("GATE A - 03")
	for _, want := range []string{"GATE A", "3", "03", "003", "GATE A-03"} {
		if !slices.Contains(got, want) {
			t.Errorf("Candidates(\"GATE A - 03\") missing %q; got %v", want, got)
		}
	}
}

func TestCandidatesSorted(t *testing.T) {
	got := Candidates("Door-7")
	if !slices.IsSorted(got) {
		t.Errorf("Candidates output not sorted: %v", got)
	}
	seen := make(map[string]bool)
	for _, c := range got {
		if seen[c] {
			t.Errorf("duplicate candidate %q", c)
		}
		seen[c] = true
	}
}

func TestGateHintsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "3", "DOOR1", "door 2"} {
		if got := GateHints(in); got != nil {
			t.Errorf("GateHints(%q) = %v, want nil", in, got)
		}
	}
}

func TestGateHintsShortCode(t *testing.T) {
	got := GateHints("G1 - DOOR A")
	if !slices.Contains(got, "G1") {
		t.Errorf("GateHints(\"G1 - DOOR A\") missing G1; got %v", got)
	}
}

func TestGateHintsGatePrefix(t *testing.T) {
	got := GateHints("GATE 12 - door 3")
	for _, want := range []string{"12", "G12", "GATE12", "GATE 12"} {
		if !slices.Contains(got, want) {
			t.Errorf("GateHints(\"GATE 12 - door 3\") missing %q; got %v", want, got)
		}
	}
}

func TestGateHintsBareLabel(t *testing.T) {
	// A plain door label that happens to look like a code still hints.
	got := GateHints("A1")
	if !slices.Contains(got, "A1") {
		t.Errorf("GateHints(\"A1\") missing A1; got %v", got)
	}
}
