// Package server exposes the gatewatch JSON API over HTTP.
//
// # Routes
//
//	POST /api/scan                 ingest one QR payload
//	GET  /api/scans                recent ledger entries, newest first
//	GET  /api/gate-summary         scan counts grouped by payload text
//	GET  /api/gates                gate catalog with ordered doors
//	POST /api/gates                create a gate
//	POST /api/gates/:id/doors      replace a gate's door sequence
//	GET  /api/actions              action events (open only by default)
//	POST /api/actions/:id/close    close an open action event
//	GET  /api/export.csv           scan ledger export, oldest first
//	GET  /healthz                  liveness probe
//
// # Errors
//
// Failures return {"error": "..."}: 400 for rejected input, 404 for unknown
// entities, 409 for uniqueness conflicts, 500 otherwise. Timestamps are
// returned both as RFC3339 UTC and as Singapore-time display strings
// (*_sgt fields).
package server
