// Package config provides configuration loading for coordd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables, with hardcoded defaults filling the gaps.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/coordd/internal/broker"
	"github.com/fyrsmithlabs/coordd/internal/embeddings"
	"github.com/fyrsmithlabs/coordd/internal/generate"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/memory"
	"github.com/fyrsmithlabs/coordd/internal/pipeline"
)

// Config holds the complete coordd configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Logging    logging.Config    `koanf:"logging"`
	Pipeline   PipelineConfig    `koanf:"pipeline"`
	Memory     memory.Config     `koanf:"memory"`
	Embeddings embeddings.Config `koanf:"embeddings"`
	Generation generate.Config   `koanf:"generation"`
	Broker     broker.Config     `koanf:"broker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// PipelineConfig holds the request-handling defaults. Individual requests
// may override them per call.
type PipelineConfig struct {
	// DisablePolish turns the polish stage off process-wide. Inverted so
	// the zero value keeps polish enabled.
	DisablePolish bool `koanf:"disable_polish"`

	TimeBudget      time.Duration `koanf:"time_budget"`
	EnrichmentLimit int           `koanf:"enrichment_limit"`

	// EnrichTimeout bounds each similarity search independently of the
	// request budget.
	EnrichTimeout time.Duration `koanf:"enrich_timeout"`
}

// Options converts the pipeline section into pipeline defaults.
func (c PipelineConfig) Options() pipeline.Options {
	return pipeline.Options{
		EnablePolish:    !c.DisablePolish,
		TimeBudget:      c.TimeBudget,
		EnrichmentLimit: c.EnrichmentLimit,
	}
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Pipeline.TimeBudget == 0 {
		cfg.Pipeline.TimeBudget = pipeline.DefaultOptions().TimeBudget
	}
	if cfg.Pipeline.EnrichmentLimit == 0 {
		cfg.Pipeline.EnrichmentLimit = pipeline.DefaultOptions().EnrichmentLimit
	}
	if cfg.Pipeline.EnrichTimeout == 0 {
		cfg.Pipeline.EnrichTimeout = 25 * time.Millisecond
	}

	cfg.Memory.ApplyDefaults()
	cfg.Embeddings.ApplyDefaults()
	cfg.Generation.ApplyDefaults()
	cfg.Broker.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Pipeline.TimeBudget < 0 {
		return fmt.Errorf("pipeline time budget cannot be negative")
	}
	if c.Pipeline.EnrichmentLimit < 0 {
		return fmt.Errorf("pipeline enrichment limit cannot be negative")
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	if err := c.Embeddings.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	return nil
}
