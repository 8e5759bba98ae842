// Package mcp exposes the coordination pipeline and interaction memory as
// MCP tools over the stdio transport.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls internal services directly.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/coordd/internal/broker"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/memory"
	"github.com/fyrsmithlabs/coordd/internal/pipeline"
)

// Server exposes coordd over MCP.
type Server struct {
	mcp         *mcp.Server
	coordinator *pipeline.Coordinator
	store       memory.Store
	broker      *broker.Broker
	logger      *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "coordd")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Logger for structured logging
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "coordd",
		Version: "dev",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server over the given collaborators. store and
// respBroker are optional; their tools degrade or disappear when nil.
func NewServer(cfg *Config, coordinator *pipeline.Coordinator, store memory.Store, respBroker *broker.Broker) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:         mcpServer,
		coordinator: coordinator,
		store:       store,
		broker:      respBroker,
		logger:      cfg.Logger,
	}
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Close releases the memory store, if any.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("memory store close: %w", err)
	}
	return nil
}
