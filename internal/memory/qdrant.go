package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/logging"
)

// QdrantConfig configures the Qdrant-backed store. Qdrant is the provider
// for deployments where multiple coordd instances share one memory.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string `koanf:"host"`

	// Port is the Qdrant gRPC port (not the HTTP REST port).
	// Default: 6334
	Port int `koanf:"port"`

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool `koanf:"use_tls"`

	// APIKey is the optional authentication key.
	APIKey string `koanf:"api_key"`

	// Collection is the collection name holding interactions.
	// Default: "coordd_interactions"
	Collection string `koanf:"collection"`

	// VectorSize is the embedding dimension. Must match the embedder.
	// Default: 768
	VectorSize uint64 `koanf:"vector_size"`

	// RequestTimeout bounds individual requests.
	// Default: 30 seconds
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "coordd_interactions"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 768
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// Validate validates the configuration.
func (c *QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size is required", ErrInvalidConfig)
	}
	return nil
}

// QdrantStore implements Store against a Qdrant server over gRPC.
type QdrantStore struct {
	client   *qdrant.Client
	embedder Embedder
	config   QdrantConfig
	logger   *logging.Logger
}

// NewQdrantStore connects to Qdrant and ensures the interaction
// collection exists.
func NewQdrantStore(ctx context.Context, config QdrantConfig, embedder Embedder, logger *logging.Logger) (*QdrantStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	qdrantConfig := &qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		APIKey: config.APIKey,
	}
	if !config.UseTLS {
		qdrantConfig.GrpcOptions = append(qdrantConfig.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:   client,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	if err := s.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info(ctx, "qdrant memory store initialized",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("collection", config.Collection),
	)
	return s, nil
}

// ensureCollection creates the interaction collection if it is missing.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	_, err := s.client.GetCollectionInfo(ctx, s.config.Collection)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("checking collection %s: %w", s.config.Collection, err)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.config.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.config.Collection, err)
	}
	return nil
}

// Remember persists one interaction as a point with its metadata payload.
func (s *QdrantStore) Remember(ctx context.Context, interaction Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	content := summaryText(interaction)
	vector, err := s.embedder.EmbedQuery(ctx, content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(interaction.ID),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":       content,
				"intent":     interaction.Intent,
				"response":   interaction.Response,
				"created_at": interaction.CreatedAt.Format(time.RFC3339),
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting interaction: %w", err)
	}

	s.logger.Debug(ctx, "interaction remembered",
		zap.String("id", interaction.ID),
		zap.String("intent", interaction.Intent),
	)
	return nil
}

// Search embeds the query and runs a similarity query, returning matches
// highest score first (Qdrant's own ordering).
func (s *QdrantStore) Search(ctx context.Context, query string, limit int) ([]enrich.Match, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	matches := make([]enrich.Match, 0, len(results))
	for _, r := range results {
		text := r.Payload["text"].GetStringValue()
		if text == "" {
			continue
		}
		matches = append(matches, enrich.Match{Text: text, Score: r.Score})
	}

	s.logger.Debug(ctx, "memory searched",
		zap.Int("limit", limit),
		zap.Int("results", len(matches)),
	)
	return matches, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

var _ Store = (*QdrantStore)(nil)
