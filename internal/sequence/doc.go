// Package sequence drives the per-gate door-order state machine.
//
// # Ingestion
//
// Engine.Ingest records one scan and advances every gate the scan matches,
// all inside a single database transaction. The scan is kept in the ledger
// even when it matches nothing.
//
// For each matched gate:
//
//   - A match on the next expected door advances the cycle; matching the
//     final door completes it.
//   - Any other match clears in-flight progress. If the scan matches the
//     gate's first door, the cycle restarts at door 2; otherwise the gate
//     returns to idle.
//
// # Completion and Red Cards
//
// Completing a cycle inserts an action event, keyed on (gate, completing
// scan) so replays cannot duplicate it, and resets the gate to idle. For
// two-door gates the door-1-to-door-2 elapsed time is recorded and the
// event is flagged as a red card when it exceeds the configured window
// (20s by default).
//
// The engine's clock is injectable, which the tests use to control elapsed
// time exactly.
package sequence
