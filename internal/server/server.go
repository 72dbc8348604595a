// ABOUTME: HTTP API server for gatewatch built on echo
// ABOUTME: Owns routing, middleware, and lifecycle; handlers live in handlers.go

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gatewatch/gatewatch/internal/catalog"
	"github.com/gatewatch/gatewatch/internal/sequence"
	"github.com/gatewatch/gatewatch/internal/store"
)

// Server wires the sequence engine, gate catalog, and store behind the
// JSON API. HTTP framing stays here; the core packages never see echo.
type Server struct {
	echo    *echo.Echo
	engine  *sequence.Engine
	catalog *catalog.Service
	store   *store.SQLiteStore
	logger  *slog.Logger
}

// New creates the HTTP server and registers all routes.
func New(engine *sequence.Engine, cat *catalog.Service, st *store.SQLiteStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		engine:  engine,
		catalog: cat,
		store:   st,
		logger:  logger.With("component", "server"),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger)

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api")
	api.POST("/scan", s.handleScan)
	api.GET("/scans", s.handleListScans)
	api.GET("/gate-summary", s.handleGateSummary)
	api.GET("/gates", s.handleListGates)
	api.POST("/gates", s.handleCreateGate)
	api.POST("/gates/:id/doors", s.handleSetGateDoors)
	api.GET("/actions", s.handleListActions)
	api.POST("/actions/:id/close", s.handleCloseAction)
	api.GET("/export.csv", s.handleExportCSV)

	return s
}

// ServeHTTP makes Server a http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// requestLogger logs one line per request with the assigned request id.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Debug("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}
