// Package enrich augments classified messages with similar prior
// interactions from an external similarity-search collaborator.
//
// Enrichment is best-effort: the collaborator may be slow, unreachable, or
// empty, and none of those conditions may fail the pipeline. Every error
// converts to an empty Result and is logged at diagnostic level.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/intent"
	"github.com/fyrsmithlabs/coordd/internal/logging"
)

// Match is one prior-interaction summary returned by the search
// collaborator.
type Match struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// Result holds zero or more matches. The zero value is a valid, empty
// result; the renderer must tolerate it.
type Result struct {
	Matches []Match
}

// Empty reports whether the result carries no matches.
func (r Result) Empty() bool {
	return len(r.Matches) == 0
}

// Searcher is the similarity-search collaborator boundary. Implementations
// are expected to be fallible and potentially slow; callers bound every
// call with a timeout.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Match, error)
}

// DefaultLimit is the number of matches requested when the caller passes a
// non-positive limit.
const DefaultLimit = 3

// Enricher queries the search collaborator with a slot-biased query.
type Enricher struct {
	searcher Searcher
	timeout  time.Duration
	logger   *logging.Logger
}

// NewEnricher creates an Enricher. searcher may be nil, in which case
// every Enrich call returns an empty Result (memory provider "none").
func NewEnricher(searcher Searcher, timeout time.Duration, logger *logging.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{searcher: searcher, timeout: timeout, logger: logger}
}

// Enrich runs one bounded search. The query is the message plus extracted
// slot values, biasing results toward slot-relevant matches. All errors
// and timeouts degrade to an empty Result.
func (e *Enricher) Enrich(ctx context.Context, message string, res intent.Result, limit int) Result {
	if e.searcher == nil {
		return Result{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	query := buildQuery(message, res)
	matches, err := e.searcher.Search(ctx, query, limit)
	if err != nil {
		e.logger.Debug(ctx, "enrichment unavailable, continuing without it",
			zap.String("intent", string(res.Intent)),
			zap.Error(err),
		)
		return Result{}
	}

	return Result{Matches: matches}
}

// buildQuery concatenates the message with detected slot values.
func buildQuery(message string, res intent.Result) string {
	parts := []string{message}
	parts = append(parts, res.Slots.Get(intent.SlotFramework)...)
	parts = append(parts, res.Slots.Get(intent.SlotTechnology)...)
	return strings.Join(parts, " ")
}
