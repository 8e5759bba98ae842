package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coordd HTTP daemon",
	Long: `Start the HTTP daemon exposing POST /v1/coordinate, GET /health,
and GET /metrics. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	deps, err := initDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv, err := server.NewServer(server.Config{
		Port:            deps.cfg.Server.Port,
		ShutdownTimeout: deps.cfg.Server.ShutdownTimeout,
	}, deps.coordinator, deps.broker, deps.logger.Named("http"))
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	deps.logger.Info(ctx, "starting HTTP server",
		zap.Int("port", deps.cfg.Server.Port),
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", deps.cfg.Server.Port)),
	)

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}

	deps.logger.Info(ctx, "server shutdown complete")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
