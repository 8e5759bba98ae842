package memory

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/coordd/internal/logging"
)

// Provider names for Config.Provider.
const (
	ProviderChromem = "chromem"
	ProviderQdrant  = "qdrant"
	ProviderNone    = "none"
)

// Config selects and configures the memory provider.
type Config struct {
	// Provider is one of "chromem", "qdrant", or "none".
	// Default: "chromem"
	Provider string `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderChromem
	}
	c.Chromem.ApplyDefaults()
	c.Qdrant.ApplyDefaults()
}

// Validate validates the provider selection.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderChromem, ProviderQdrant, ProviderNone:
		return nil
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
}

// NewStore builds the configured store. Provider "none" returns a nil
// Store, which disables enrichment and interaction persistence without
// any other behavior change.
func NewStore(ctx context.Context, config Config, embedder Embedder, logger *logging.Logger) (Store, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderChromem:
		return NewChromemStore(config.Chromem, embedder, logger)
	case ProviderQdrant:
		return NewQdrantStore(ctx, config.Qdrant, embedder, logger)
	default:
		return nil, nil
	}
}
