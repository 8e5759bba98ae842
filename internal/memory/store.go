// Package memory persists coordinated interactions and serves similarity
// search over them. It backs the enrichment stage of the pipeline.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
)

var (
	// ErrInvalidConfig indicates a memory configuration that cannot
	// produce a working store.
	ErrInvalidConfig = errors.New("invalid memory config")

	// ErrEmbeddingFailed wraps embedder errors so callers can
	// distinguish them from store errors.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// Interaction is one coordinated request/response pair worth remembering.
type Interaction struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Intent    string    `json:"intent"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the interaction memory boundary. Search satisfies
// enrich.Searcher so a Store can plug straight into the pipeline.
type Store interface {
	// Remember persists one interaction for future similarity search.
	Remember(ctx context.Context, interaction Interaction) error

	// Search returns up to limit interactions similar to the query,
	// highest similarity first.
	Search(ctx context.Context, query string, limit int) ([]enrich.Match, error)

	// Close releases store resources.
	Close() error
}

// Embedder converts text into a vector. Implementations live in the
// embeddings package; tests use deterministic fakes.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// summaryText flattens an interaction into the single line that search
// results carry. The message dominates because it is what future queries
// resemble.
func summaryText(in Interaction) string {
	if in.Intent == "" {
		return in.Message
	}
	return fmt.Sprintf("[%s] %s", in.Intent, in.Message)
}
