package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/logging"
)

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/coordd/memory"
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// Collection is the collection name holding interactions.
	// Default: "coordd_interactions"
	Collection string `koanf:"collection"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/coordd/memory"
	}
	if c.Collection == "" {
		c.Collection = "coordd_interactions"
	}
}

// ChromemStore implements Store on chromem-go, an embeddable pure-Go
// vector database persisting to gob files. It needs no external service,
// which makes it the default memory provider.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	config     ChromemConfig
	logger     *logging.Logger
}

// NewChromemStore opens (or creates) the persistent database and the
// interaction collection.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *logging.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	config.ApplyDefaults()

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}

	s := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	// Always pass the embedding function; chromem-go falls back to its
	// OpenAI default when given nil for persisted collections.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}
	s.collection = collection

	logger.Info(context.Background(), "chromem memory store initialized",
		zap.String("path", path),
		zap.String("collection", config.Collection),
		zap.Bool("compress", config.Compress),
	)

	return s, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc adapts Embedder to chromem's callback type.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Remember persists one interaction.
func (s *ChromemStore) Remember(ctx context.Context, interaction Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	content := summaryText(interaction)
	embedding, err := s.embedder.EmbedQuery(ctx, content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	doc := chromem.Document{
		ID:      interaction.ID,
		Content: content,
		Metadata: map[string]string{
			"intent":     interaction.Intent,
			"response":   interaction.Response,
			"created_at": interaction.CreatedAt.Format(time.RFC3339),
		},
		Embedding: embedding,
	}

	// Concurrency of 1 since the embedding is already computed.
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("adding interaction: %w", err)
	}

	s.logger.Debug(ctx, "interaction remembered",
		zap.String("id", interaction.ID),
		zap.String("intent", interaction.Intent),
	)
	return nil
}

// Search returns up to limit similar interactions, highest similarity
// first (chromem orders results by similarity already).
func (s *ChromemStore) Search(ctx context.Context, query string, limit int) ([]enrich.Match, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	// chromem requires nResults <= document count.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	matches := make([]enrich.Match, len(results))
	for i, r := range results {
		matches[i] = enrich.Match{Text: r.Content, Score: r.Similarity}
	}

	s.logger.Debug(ctx, "memory searched",
		zap.Int("limit", limit),
		zap.Int("results", len(matches)),
	)
	return matches, nil
}

// Close is a no-op: chromem-go persists automatically.
func (s *ChromemStore) Close() error {
	return nil
}

var _ Store = (*ChromemStore)(nil)
