package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vault-rag/internal/logger"
)

const (
	serverName      = "vault-rag"
	shutdownTimeout = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients during initialisation.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithAllowlist restricts the exposed tools to names. Empty means all tools.
func WithAllowlist(names []string) Option {
	return func(s *Server) {
		s.allowlist = names
	}
}

// WithDenylist hides the named tools, even when they are allowlisted.
func WithDenylist(names []string) Option {
	return func(s *Server) {
		s.denylist = names
	}
}

// Server serves vault retrieval over MCP.
type Server struct {
	ports     *Ports
	server    *mcp.Server
	version   string
	allowlist []string
	denylist  []string
	tools     []string
}

// NewServer registers the exposed tools and the manifest resource.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingRetrievalService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	s.server = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: s.version}, nil)

	s.registerTools()
	s.registerResources()

	logger.Info("MCP server ready with %d tool(s): %v", len(s.tools), s.tools)
	return s, nil
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string {
	return slices.Clone(s.tools)
}

func (s *Server) exposed(name string) bool {
	if slices.Contains(s.denylist, name) {
		return false
	}
	return len(s.allowlist) == 0 || slices.Contains(s.allowlist, name)
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mcp http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down mcp http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
