// Package normalize turns raw QR payloads into matchable forms.
//
// Normalize canonicalizes text (whitespace, case, unicode dashes).
// Candidates expands a payload into every form an operator might have
// configured as a door number: dash-compacted, zero-padded, DOOR-prefixed,
// segment and tail variants. GateHints extracts tokens that look like gate
// codes so matching can be scoped when several gates share door labels.
//
// All functions are pure and safe for concurrent use.
package normalize
