package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driving"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// shutdownTimeout bounds graceful shutdown once the run context is cancelled.
const shutdownTimeout = 10 * time.Second

// Route paths.
const (
	PathRoot     = "/"
	PathHealth   = "/health"
	PathRetrieve = "/retrieve"
	PathMetrics  = "/metrics"
)

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by the root endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithMaxTopK sets the largest top_k accepted in a request body.
func WithMaxTopK(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxTopK = n
		}
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// Server exposes a RetrievalService over HTTP.
type Server struct {
	echo      *echo.Echo
	retrieval driving.RetrievalService
	metrics   http.Handler
	version   string
	maxTopK   int
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(retrieval driving.RetrievalService, opts ...Option) *Server {
	s := &Server{
		echo:      echo.New(),
		retrieval: retrieval,
		version:   "dev",
		maxTopK:   20,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = handleError

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("%s %s %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET(PathRoot, s.handleRoot)
	s.echo.GET(PathHealth, s.handleHealth)
	s.echo.POST(PathRetrieve, s.handleRetrieve)
	if s.metrics != nil {
		s.echo.GET(PathMetrics, echo.WrapHandler(s.metrics))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	logger.Info("HTTP server listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
