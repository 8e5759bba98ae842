package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/broker"
	"github.com/fyrsmithlabs/coordd/internal/config"
	"github.com/fyrsmithlabs/coordd/internal/embeddings"
	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/generate"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/memory"
	"github.com/fyrsmithlabs/coordd/internal/pipeline"
	"github.com/fyrsmithlabs/coordd/internal/polish"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

// dependencies holds everything a coordd process needs, wired once at
// startup and shared by the serve and mcp commands.
type dependencies struct {
	cfg         *config.Config
	logger      *logging.Logger
	coordinator *pipeline.Coordinator
	store       memory.Store
	broker      *broker.Broker
	natsConn    *nats.Conn
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		d.natsConn.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn(context.Background(), "memory store close failed", zap.Error(err))
		}
	}
	if d.logger != nil {
		_ = d.logger.Sync()
	}
}

// initDependencies loads configuration and wires the pipeline:
//
//  1. Config (file + env) and logger
//  2. Embedding service and interaction memory (unless provider "none")
//  3. Ollama generator for the polish stage
//  4. NATS broker (if configured)
//  5. The coordinator over all of the above
func initDependencies(ctx context.Context) (*dependencies, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	d := &dependencies{cfg: cfg, logger: logger}

	// Memory is optional: provider "none" runs the pipeline template-only.
	if cfg.Memory.Provider != memory.ProviderNone {
		embedder, err := embeddings.NewService(cfg.Embeddings)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("initializing embeddings: %w", err)
		}
		store, err := memory.NewStore(ctx, cfg.Memory, embedder, logger.Named("memory"))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("initializing memory store: %w", err)
		}
		d.store = store
	}

	generator, err := generate.NewOllamaGenerator(cfg.Generation)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("initializing generator: %w", err)
	}

	if cfg.Broker.Enabled() {
		b, nc, err := broker.Connect(cfg.Broker, logger.Named("broker"))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("initializing broker: %w", err)
		}
		d.broker = b
		d.natsConn = nc
	}

	registry, err := template.NewRegistry()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("validating templates: %w", err)
	}

	var searcher enrich.Searcher
	if d.store != nil {
		searcher = d.store
	}

	coordinator, err := pipeline.NewCoordinator(
		registry,
		enrich.NewEnricher(searcher, cfg.Pipeline.EnrichTimeout, logger.Named("enrich")),
		polish.NewPolisher(generator, 0, logger.Named("polish")),
		cfg.Pipeline.Options(),
		logger.Named("pipeline"),
	)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("initializing coordinator: %w", err)
	}
	d.coordinator = coordinator

	logger.Info(ctx, "dependencies initialized",
		zap.String("memory_provider", cfg.Memory.Provider),
		zap.Bool("broker_enabled", cfg.Broker.Enabled()),
		zap.Duration("time_budget", cfg.Pipeline.TimeBudget),
	)

	return d, nil
}
