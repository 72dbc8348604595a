// ABOUTME: HTTP API tests covering status codes, wire shapes, and CSV export
// ABOUTME: Drives the full stack with a real store behind httptest requests

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewatch/gatewatch/internal/catalog"
	"github.com/gatewatch/gatewatch/internal/sequence"
	"github.com/gatewatch/gatewatch/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := sequence.New(st, sequence.Config{}, logger)
	cat := catalog.New(st, logger)
	return New(engine, cat, st, logger)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	return rows
}

func createGateWithDoors(t *testing.T, srv *Server, code string, doors ...string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/gates", fmt.Sprintf(`{"gate_code":%q}`, code))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var gate map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gate))
	gateID := int64(gate["id"].(float64))

	if len(doors) > 0 {
		body, err := json.Marshal(map[string]any{"door_numbers": doors})
		require.NoError(t, err)
		rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/gates/%d/doors", gateID), string(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return gateID
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestScanEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"HELLO","source":"kiosk"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.NotZero(t, resp["scan_id"])

	rec = doJSON(t, srv, http.MethodGet, "/api/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeList(t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "HELLO", rows[0]["qr_text"])
	assert.Equal(t, "KIOSK", rows[0]["source"])
	assert.Contains(t, rows[0]["scanned_at_sgt"], "SGT")
}

func TestScanEndpointRejectsEmptyText(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "qr_text is required")
}

func TestCreateGate(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/gates", `{"gate_code":"g1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var gate map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gate))
	assert.Equal(t, "G1", gate["gate_code"])
	assert.EqualValues(t, 0, gate["door_count"])

	// Duplicate code conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/api/gates", `{"gate_code":"G1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Empty code is a validation failure.
	rec = doJSON(t, srv, http.MethodPost, "/api/gates", `{"gate_code":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetGateDoors(t *testing.T) {
	srv := newTestServer(t)
	gateID := createGateWithDoors(t, srv, "G1")

	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/gates/%d/doors", gateID),
		`{"door_numbers":["door 1","door 2"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var gate map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gate))
	assert.EqualValues(t, 2, gate["door_count"])

	doors := gate["doors"].([]any)
	first := doors[0].(map[string]any)
	assert.Equal(t, "DOOR 1", first["door_number"])
	assert.EqualValues(t, 1, first["door_no"])

	// Too few doors.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/gates/%d/doors", gateID),
		`{"door_numbers":["only one"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown gate.
	rec = doJSON(t, srv, http.MethodPost, "/api/gates/9999/doors",
		`{"door_numbers":["A1","A2"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanCompletesGateCycle(t *testing.T) {
	srv := newTestServer(t)
	createGateWithDoors(t, srv, "G1", "DOOR 1", "DOOR 2")

	for _, text := range []string{"door1", "DOOR-2"} {
		rec := doJSON(t, srv, http.MethodPost, "/api/scan", fmt.Sprintf(`{"qr_text":%q}`, text))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/actions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeList(t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "G1", rows[0]["gate_code"])
	assert.Equal(t, false, rows[0]["is_red_card"])
	assert.NotNil(t, rows[0]["door2_elapsed_seconds"])
	assert.Nil(t, rows[0]["closed_at"])
}

func TestCloseAction(t *testing.T) {
	srv := newTestServer(t)
	createGateWithDoors(t, srv, "G1", "A1", "A2")

	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"A1"}`)
	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"A2"}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/actions", "")
	rows := decodeList(t, rec)
	require.Len(t, rows, 1)
	eventID := int64(rows[0]["id"].(float64))

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/actions/%d/close", eventID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Closing again reports not found.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/actions/%d/close", eventID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Gone from the open listing, present with include_closed.
	rec = doJSON(t, srv, http.MethodGet, "/api/actions", "")
	assert.Len(t, decodeList(t, rec), 0)
	rec = doJSON(t, srv, http.MethodGet, "/api/actions?include_closed=1", "")
	rows = decodeList(t, rec)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0]["closed_at"])
}

func TestCloseActionUnknownID(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/actions/424242/close", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/actions/notanumber/close", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGateSummary(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"A1"}`)
	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"A1"}`)
	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"B9"}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/gate-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeList(t, rec)
	require.Len(t, rows, 2)

	counts := map[string]float64{}
	for _, row := range rows {
		counts[row["gate_code"].(string)] = row["scan_count"].(float64)
	}
	assert.EqualValues(t, 2, counts["A1"])
	assert.EqualValues(t, 1, counts["B9"])
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"FIRST"}`)
	doJSON(t, srv, http.MethodPost, "/api/scan", `{"qr_text":"SECOND"}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "qr_scans.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,scanned_at_sgt,qr_text,source", strings.TrimSpace(lines[0]))
	// Oldest first in the export.
	assert.Contains(t, lines[1], "FIRST")
	assert.Contains(t, lines[2], "SECOND")
}

func TestListLimitParsing(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 5; i++ {
		doJSON(t, srv, http.MethodPost, "/api/scan", fmt.Sprintf(`{"qr_text":"SCAN %d"}`, i))
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/scans?limit=2", "")
	assert.Len(t, decodeList(t, rec), 2)

	// Garbage and out-of-range limits fall back to sane values.
	rec = doJSON(t, srv, http.MethodGet, "/api/scans?limit=banana", "")
	assert.Len(t, decodeList(t, rec), 5)
	rec = doJSON(t, srv, http.MethodGet, "/api/scans?limit=-3", "")
	assert.Len(t, decodeList(t, rec), 1)
}
