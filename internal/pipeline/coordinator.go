// Package pipeline wires the classify → enrich → render → polish stages
// into a single coordinator and enforces the per-request time budget.
//
// The coordinator holds no cross-request mutable state: the rule table and
// template registry are read-only after startup, so Handle may be called
// from any number of goroutines concurrently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/intent"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/polish"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

// ErrEmptyMessage is returned for empty or whitespace-only input. This is
// the only error a caller of Handle can observe: every downstream stage
// degrades to a safe default instead of failing.
var ErrEmptyMessage = errors.New("message must not be empty")

// Options are the per-request knobs. Zero values are honored literally
// (TimeBudget 0 skips enrichment and polish); callers wanting the process
// defaults should start from the coordinator's Defaults.
type Options struct {
	// EnablePolish gates the optional tone rewrite.
	EnablePolish bool

	// TimeBudget is the soft budget for the whole request. If it is
	// exhausted before polish starts, polish is skipped entirely rather
	// than started and aborted mid-flight.
	TimeBudget time.Duration

	// EnrichmentLimit caps how many prior interactions are requested and
	// summarized. Non-positive falls back to enrich.DefaultLimit.
	EnrichmentLimit int
}

// DefaultOptions returns the built-in per-request defaults.
func DefaultOptions() Options {
	return Options{
		EnablePolish:    true,
		TimeBudget:      40 * time.Millisecond,
		EnrichmentLimit: enrich.DefaultLimit,
	}
}

// Coordinator orchestrates one message through the pipeline stages.
type Coordinator struct {
	classifier *intent.Classifier
	enricher   *enrich.Enricher
	registry   *template.Registry
	renderer   *template.Renderer
	polisher   *polish.Polisher
	defaults   Options
	logger     *logging.Logger
}

// NewCoordinator wires the pipeline. registry must be validated (as
// NewRegistry guarantees); enricher and polisher own the degradation
// behavior of their collaborators.
func NewCoordinator(
	registry *template.Registry,
	enricher *enrich.Enricher,
	polisher *polish.Polisher,
	defaults Options,
	logger *logging.Logger,
) (*Coordinator, error) {
	if registry == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if polisher == nil {
		return nil, fmt.Errorf("polisher is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Coordinator{
		classifier: intent.NewClassifier(),
		enricher:   enricher,
		registry:   registry,
		renderer:   template.NewRenderer(registry),
		polisher:   polisher,
		defaults:   defaults,
		logger:     logger,
	}, nil
}

// Defaults returns the process-level option defaults.
func (c *Coordinator) Defaults() Options {
	return c.defaults
}

// Handle runs one message through Classify → Enrich → Render → Polish.
//
// For well-formed input Handle always returns some response; degraded
// collaborators only lower the quality (template-only, unpolished), never
// the availability. Input validation is the single error path.
func (c *Coordinator) Handle(ctx context.Context, message string, opts Options) (template.Response, error) {
	if strings.TrimSpace(message) == "" {
		return template.Response{}, ErrEmptyMessage
	}

	start := time.Now()
	defer func() {
		HandleDuration.Observe(time.Since(start).Seconds())
	}()

	deadline := start.Add(opts.TimeBudget)

	res := c.classifier.Classify(message)
	RequestsTotal.WithLabelValues(string(res.Intent)).Inc()
	c.logger.Debug(ctx, "message classified",
		zap.String("intent", string(res.Intent)),
		zap.Int("slots", res.Slots.Len()),
	)

	limit := opts.EnrichmentLimit
	if limit <= 0 {
		limit = enrich.DefaultLimit
	}

	var enr enrich.Result
	enrichSkipped := time.Until(deadline) <= 0
	if !enrichSkipped {
		ectx, cancel := context.WithDeadline(ctx, deadline)
		enr = c.enricher.Enrich(ectx, message, res, limit)
		cancel()
	}
	recordEnrichment(enrichSkipped, enr.Empty())

	draft := c.renderer.Render(res, enr, limit)

	tpl, _ := c.registry.Get(res.Intent)
	remaining := time.Until(deadline)
	attempt := opts.EnablePolish && tpl.PolishRecommended && remaining > 0
	final := c.polisher.Polish(ctx, draft, attempt, remaining)
	recordPolish(attempt, final.UsedPolish)

	c.logger.Debug(ctx, "message handled",
		zap.String("intent", string(final.Intent)),
		zap.Bool("used_enrichment", final.UsedEnrichment),
		zap.Bool("used_polish", final.UsedPolish),
		zap.Duration("elapsed", time.Since(start)),
	)

	return final, nil
}
