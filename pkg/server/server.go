// Package server provides the HTTP surface of coordd.
//
// It exposes the coordination pipeline at POST /v1/coordinate, a health
// check at GET /health, and Prometheus metrics at GET /metrics, with
// graceful context-aware shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fyrsmithlabs/coordd/internal/broker"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/pipeline"
)

// Config holds the server's listen and shutdown settings.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	config      Config
	echo        *echo.Echo
	coordinator *pipeline.Coordinator
	broker      *broker.Broker
	logger      *logging.Logger
}

// HealthResponse is the JSON response for the /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CoordinateRequest is the JSON body for POST /v1/coordinate. Option
// fields are pointers so absent fields fall back to process defaults.
type CoordinateRequest struct {
	Message         string `json:"message"`
	SessionID       string `json:"session_id,omitempty"`
	DisablePolish   *bool  `json:"disable_polish,omitempty"`
	TimeBudgetMS    *int   `json:"time_budget_ms,omitempty"`
	EnrichmentLimit *int   `json:"enrichment_limit,omitempty"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates an HTTP server over the coordinator. respBroker is
// optional.
func NewServer(cfg Config, coordinator *pipeline.Coordinator, respBroker *broker.Broker, logger *logging.Logger) (*Server, error) {
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		config:      cfg,
		echo:        e,
		coordinator: coordinator,
		broker:      respBroker,
		logger:      logger,
	}
	s.registerRoutes()

	return s, nil
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.POST("/v1/coordinate", s.handleCoordinate)
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "coordd",
	})
}

// handleCoordinate handles POST /v1/coordinate requests.
func (s *Server) handleCoordinate(c echo.Context) error {
	var req CoordinateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	ctx = logging.WithRequestID(ctx, c.Response().Header().Get(echo.HeaderXRequestID))
	if req.SessionID != "" {
		ctx = logging.WithSessionID(ctx, req.SessionID)
	}

	opts := s.coordinator.Defaults()
	if req.DisablePolish != nil && *req.DisablePolish {
		opts.EnablePolish = false
	}
	if req.TimeBudgetMS != nil {
		opts.TimeBudget = time.Duration(*req.TimeBudgetMS) * time.Millisecond
	}
	if req.EnrichmentLimit != nil {
		opts.EnrichmentLimit = *req.EnrichmentLimit
	}

	resp, err := s.coordinator.Handle(ctx, req.Message, opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "coordination failed"})
	}

	if s.broker != nil && req.SessionID != "" {
		_ = s.broker.PublishResponse(ctx, req.SessionID, resp)
	}

	return c.JSON(http.StatusOK, resp)
}

// Start starts the HTTP server and blocks until the context is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown, or any other error
// encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
