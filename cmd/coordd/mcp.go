package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/coordd/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run coordd as an MCP server on stdio",
	Long: `Run coordd as a Model Context Protocol server on the stdio
transport, exposing the coordinate, memory_search, and memory_store
tools. Intended to be launched by an MCP client, not interactively.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	deps, err := initDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "coordd",
		Version: version,
		Logger:  deps.logger.Named("mcp"),
	}, deps.coordinator, deps.store, deps.broker)
	if err != nil {
		return fmt.Errorf("initializing MCP server: %w", err)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
