// ABOUTME: JSON handlers for the gatewatch API
// ABOUTME: Maps store/engine errors onto HTTP status codes and wire shapes

package server

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gatewatch/gatewatch/internal/store"
)

const (
	defaultScanLimit   = 300
	defaultActionLimit = 200
	maxListLimit       = 5000
)

type errorBody struct {
	Error string `json:"error"`
}

type scanRequest struct {
	QRText string `json:"qr_text"`
	Source string `json:"source"`
}

type scanRow struct {
	ID           int64  `json:"id"`
	ScannedAt    string `json:"scanned_at"`
	ScannedAtSGT string `json:"scanned_at_sgt"`
	QRText       string `json:"qr_text"`
	Source       string `json:"source"`
}

type summaryRow struct {
	GateCode         string `json:"gate_code"`
	ScanCount        int64  `json:"scan_count"`
	LastScannedAt    string `json:"last_scanned_at"`
	LastScannedAtSGT string `json:"last_scanned_at_sgt"`
}

type doorRow struct {
	DoorNo     int    `json:"door_no"`
	DoorNumber string `json:"door_number"`
}

type gateRow struct {
	ID        int64     `json:"id"`
	GateCode  string    `json:"gate_code"`
	CreatedAt string    `json:"created_at"`
	DoorCount int       `json:"door_count"`
	Doors     []doorRow `json:"doors"`
}

type actionRow struct {
	ID                  int64     `json:"id"`
	GateID              int64     `json:"gate_id"`
	GateCode            string    `json:"gate_code"`
	Doors               []doorRow `json:"doors"`
	CompletedScanID     int64     `json:"completed_scan_id"`
	CompletedAt         string    `json:"completed_at"`
	CompletedAtSGT      string    `json:"completed_at_sgt"`
	ClosedAt            *string   `json:"closed_at"`
	ClosedAtSGT         *string   `json:"closed_at_sgt"`
	IsRedCard           bool      `json:"is_red_card"`
	Door2ElapsedSeconds *int64    `json:"door2_elapsed_seconds"`
}

type createGateRequest struct {
	GateCode string `json:"gate_code"`
}

type setDoorsRequest struct {
	DoorNumbers []string `json:"door_numbers"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleScan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
	}

	scanID, err := s.engine.Ingest(c.Request().Context(), req.QRText, req.Source)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "scan_id": scanID})
}

func (s *Server) handleListScans(c echo.Context) error {
	limit := queryLimit(c, defaultScanLimit)
	scans, err := s.store.ListScans(c.Request().Context(), limit)
	if err != nil {
		return s.writeError(c, err)
	}

	rows := make([]scanRow, 0, len(scans))
	for _, sc := range scans {
		rows = append(rows, scanRow{
			ID:           sc.ID,
			ScannedAt:    formatUTC(sc.ScannedAt),
			ScannedAtSGT: formatSGT(sc.ScannedAt),
			QRText:       sc.RawText,
			Source:       sc.Source,
		})
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleGateSummary(c echo.Context) error {
	limit := queryLimit(c, defaultScanLimit)
	summary, err := s.store.ListGateSummary(c.Request().Context(), limit)
	if err != nil {
		return s.writeError(c, err)
	}

	rows := make([]summaryRow, 0, len(summary))
	for _, g := range summary {
		rows = append(rows, summaryRow{
			GateCode:         g.GateCode,
			ScanCount:        g.ScanCount,
			LastScannedAt:    formatUTC(g.LastScannedAt),
			LastScannedAtSGT: formatSGT(g.LastScannedAt),
		})
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleListGates(c echo.Context) error {
	limit := queryLimit(c, defaultScanLimit)
	gates, err := s.catalog.List(c.Request().Context(), limit)
	if err != nil {
		return s.writeError(c, err)
	}

	rows := make([]gateRow, 0, len(gates))
	for _, g := range gates {
		rows = append(rows, gateToRow(g))
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleCreateGate(c echo.Context) error {
	var req createGateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
	}

	gate, err := s.catalog.CreateGate(c.Request().Context(), req.GateCode)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, gateToRow(gate))
}

func (s *Server) handleSetGateDoors(c echo.Context) error {
	gateID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Error: "gate not found"})
	}

	var req setDoorsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
	}

	gate, err := s.catalog.SetDoors(c.Request().Context(), gateID, req.DoorNumbers)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, gateToRow(gate))
}

func (s *Server) handleListActions(c echo.Context) error {
	limit := queryLimit(c, defaultActionLimit)
	includeClosed := boolParam(c.QueryParam("include_closed"))

	events, err := s.store.ListActionEvents(c.Request().Context(), limit, includeClosed)
	if err != nil {
		return s.writeError(c, err)
	}

	rows := make([]actionRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, actionRow{
			ID:                  ev.ID,
			GateID:              ev.GateID,
			GateCode:            ev.GateCode,
			Doors:               doorsToRows(ev.Doors),
			CompletedScanID:     ev.CompletedScanID,
			CompletedAt:         formatUTC(ev.CompletedAt),
			CompletedAtSGT:      formatSGT(ev.CompletedAt),
			ClosedAt:            formatUTCPtr(ev.ClosedAt),
			ClosedAtSGT:         formatSGTPtr(ev.ClosedAt),
			IsRedCard:           ev.IsRedCard,
			Door2ElapsedSeconds: ev.Door2ElapsedSeconds,
		})
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleCloseAction(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Error: "action event not found"})
	}

	closed, err := s.store.CloseActionEvent(c.Request().Context(), eventID, nowUTC())
	if err != nil {
		return s.writeError(c, err)
	}
	if !closed {
		return c.JSON(http.StatusNotFound, errorBody{Error: "action event not found or already closed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// handleExportCSV streams the scan ledger oldest-first as a CSV attachment.
func (s *Server) handleExportCSV(c echo.Context) error {
	scans, err := s.store.ListScans(c.Request().Context(), maxListLimit)
	if err != nil {
		return s.writeError(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "scanned_at_sgt", "qr_text", "source"}); err != nil {
		return s.writeError(c, err)
	}
	// ListScans returns newest-first; the export reads oldest-first.
	for i := len(scans) - 1; i >= 0; i-- {
		sc := scans[i]
		row := []string{
			strconv.FormatInt(sc.ID, 10),
			formatSGT(sc.ScannedAt),
			sc.RawText,
			sc.Source,
		}
		if err := w.Write(row); err != nil {
			return s.writeError(c, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return s.writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=qr_scans.csv`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case store.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case store.IsConflict(err):
		return c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "database error: " + err.Error()})
	}
}

func gateToRow(g *store.Gate) gateRow {
	return gateRow{
		ID:        g.ID,
		GateCode:  g.GateCode,
		CreatedAt: formatUTC(g.CreatedAt),
		DoorCount: g.DoorCount(),
		Doors:     doorsToRows(g.Doors),
	}
}

func doorsToRows(doors []store.Door) []doorRow {
	rows := make([]doorRow, 0, len(doors))
	for _, d := range doors {
		rows = append(rows, doorRow{DoorNo: d.DoorNo, DoorNumber: d.DoorNumber})
	}
	return rows
}

// queryLimit parses the limit query parameter, falling back to def and
// clamping the result to [1, maxListLimit].
func queryLimit(c echo.Context, def int) int {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	limit := def
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		return 1
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func boolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
