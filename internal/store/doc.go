// Package store provides persistent storage for gatewatch using SQLite.
//
// # Data Models
//
//   - Scan: one immutable ledger entry per ingested QR payload
//   - Gate: a checkpoint identified by a unique gate code
//   - Door: one required scan step within a gate, ordered by door_no
//   - CycleState: per-gate pointer to the next expected door
//   - ActionEvent: a completed cycle, optionally flagged as a red card
//
// # Transactions
//
// Reads and catalog writes use plain methods on SQLiteStore. Scan ingestion
// goes through WithTx, which hands the caller a Tx scoped to one database
// transaction; the scan insert and every gate transition it causes commit or
// roll back together.
//
// # SQLite Configuration
//
// The store opens SQLite with:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//	PRAGMA busy_timeout=5000;
//
// Timestamps are stored as RFC3339 UTC text with whole-second precision.
//
// # Error Handling
//
// Sentinel errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateGate: gate code already taken
//   - ErrDuplicateDoor: door number collides within one gate
//
// ValidationError (built with Invalidf) marks rejected input; IsValidation
// and IsConflict classify errors for HTTP mapping. All methods accept
// context.Context.
//
// # Migrations
//
// Schema migrations are embedded SQL files under migrations/ and run
// automatically when the store opens.
package store
