// Package polish optionally rewrites a rendered draft for tone via an
// external text-generation collaborator.
//
// Polish is a pure enhancement and is never on the critical path for
// producing an answer. Any failure (error, timeout, empty or blank
// output) falls back to the unmodified draft, and the caller never
// observes an error from this stage.
package polish

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

// Generator is the text-generation collaborator boundary. Implementations
// are expected to be fallible, slow, and capable of producing low-quality
// or empty output.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxLength int) (string, error)
}

// DefaultMargin is the extra output headroom, in characters, granted
// beyond the draft's own length to bound generation cost.
const DefaultMargin = 200

// promptInstruction constrains the rewrite to tone only. The generation
// collaborator must not add or remove factual content.
const promptInstruction = "Rewrite the following assistant response with a friendlier, more natural tone. " +
	"Keep every fact, list item, and number unchanged. Do not add or remove information. " +
	"Respond with the rewritten text only.\n\n"

// Polisher issues bounded tone rewrites.
type Polisher struct {
	generator Generator
	margin    int
	logger    *logging.Logger
}

// NewPolisher creates a Polisher. generator may be nil, in which case
// Polish always returns the draft unchanged. margin <= 0 uses
// DefaultMargin.
func NewPolisher(generator Generator, margin int, logger *logging.Logger) *Polisher {
	if margin <= 0 {
		margin = DefaultMargin
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Polisher{generator: generator, margin: margin, logger: logger}
}

// Polish returns the draft rewritten for tone, or the draft unchanged.
//
// When enabled is false (polish disabled, template not recommended, or
// budget already exhausted upstream) the call is zero cost. Otherwise one
// generation call is issued, bounded by budget and by an output cap
// derived from the draft length.
func (p *Polisher) Polish(ctx context.Context, draft template.Response, enabled bool, budget time.Duration) template.Response {
	if !enabled || p.generator == nil || budget <= 0 {
		return draft
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	maxLength := len(draft.Text) + p.margin
	out, err := p.generator.Generate(ctx, promptInstruction+draft.Text, maxLength)
	if err != nil {
		p.logger.Debug(ctx, "polish unavailable, returning draft",
			zap.String("intent", string(draft.Intent)),
			zap.Error(err),
		)
		return draft
	}

	polished := strings.TrimSpace(out)
	if polished == "" {
		p.logger.Debug(ctx, "polish produced empty output, returning draft",
			zap.String("intent", string(draft.Intent)),
		)
		return draft
	}

	draft.Text = polished
	draft.UsedPolish = true
	return draft
}
