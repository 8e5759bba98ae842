// Package generate runs bounded text generation against a local Ollama
// server. It provides the polish stage its Generator collaborator.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/coordd/internal/polish"
)

// ErrInvalidConfig indicates configuration that cannot produce a client.
var ErrInvalidConfig = errors.New("invalid generation config")

// Rough character budget per generated token, used to convert the polish
// stage's max output length into a token cap.
const charsPerToken = 4

// Config holds configuration for the generation service.
type Config struct {
	// ServerURL is the Ollama server address.
	// Default: "http://localhost:11434"
	ServerURL string `koanf:"server_url"`

	// Model is the model name to generate with.
	// Default: "llama3.2"
	Model string `koanf:"model"`

	// Temperature controls sampling randomness. Polish wants low
	// variance, so the default is conservative.
	// Default: 0.3
	Temperature float64 `koanf:"temperature"`

	// RequestsPerSecond rate-limits generation calls so a burst of
	// pipeline requests cannot saturate the model server.
	// Default: 5
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size.
	// Default: 10
	Burst int `koanf:"burst"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "llama3.2"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature %v out of range [0, 2]", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

// OllamaGenerator generates text through an Ollama server, rate limited
// per process.
type OllamaGenerator struct {
	model       llms.Model
	limiter     *rate.Limiter
	temperature float64
}

// NewOllamaGenerator creates a generator for the configured server.
func NewOllamaGenerator(config Config) (*OllamaGenerator, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	model, err := ollama.New(
		ollama.WithServerURL(config.ServerURL),
		ollama.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	return newOllamaGenerator(model, config), nil
}

// newOllamaGenerator wires a generator around any llms.Model. Split out
// so tests can inject a fake model.
func newOllamaGenerator(model llms.Model, config Config) *OllamaGenerator {
	return &OllamaGenerator{
		model:       model,
		limiter:     rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		temperature: config.Temperature,
	}
}

// Generate produces at most maxLength characters of output for the
// prompt. The limiter wait respects ctx, so a pipeline deadline that
// expires while queued cancels the call before it reaches the server.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	maxTokens := maxLength / charsPerToken
	if maxTokens < 1 {
		maxTokens = 1
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generating: %w", err)
	}

	out = strings.TrimSpace(out)
	if len(out) > maxLength {
		out = strings.TrimSpace(out[:maxLength])
	}
	return out, nil
}

var _ polish.Generator = (*OllamaGenerator)(nil)
