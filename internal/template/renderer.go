package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/intent"
)

// noneDetected is rendered for list slots that extracted nothing.
const noneDetected = "none detected"

// Response is the fully substituted response plus request metadata. It is
// created once per request by the renderer; the polish stage may replace
// Text and set UsedPolish, nothing else changes after rendering.
type Response struct {
	Intent         intent.Intent       `json:"intent"`
	Text           string              `json:"text"`
	Slots          map[string][]string `json:"slots"`
	UsedEnrichment bool                `json:"usedEnrichment"`
	UsedPolish     bool                `json:"usedPolish"`
}

// Renderer fills templates with slot values and enrichment data.
type Renderer struct {
	registry *Registry
}

// NewRenderer creates a renderer over a validated registry.
func NewRenderer(registry *Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render looks up the template for the classified intent and performs
// string substitution. limit caps how many enrichment matches appear in
// the summary (highest score first).
//
// Render is pure: same inputs, same output. The registry is validated at
// startup, so every placeholder resolves; a lookup miss cannot happen for
// intents emitted by the classifier.
func (r *Renderer) Render(res intent.Result, enr enrich.Result, limit int) Response {
	tpl, ok := r.registry.Get(res.Intent)
	if !ok {
		// Unreachable by construction; keep a visible trace if a future
		// intent lands without running Registry.Validate.
		panic(fmt.Sprintf("template: no template for intent %q", res.Intent))
	}

	subs := r.substitutions(res, enr, limit)
	body := placeholderPattern.ReplaceAllStringFunc(tpl.Body, func(m string) string {
		return subs[strings.Trim(m, "{}")]
	})

	return Response{
		Intent:         res.Intent,
		Text:           body,
		Slots:          res.Slots.Map(),
		UsedEnrichment: !enr.Empty(),
	}
}

// substitutions builds the full substitution map, applying documented
// defaults for absent slots.
func (r *Renderer) substitutions(res intent.Result, enr enrich.Result, limit int) map[string]string {
	projectType := res.Slots.First(intent.SlotProjectType)
	if projectType == "" {
		projectType = intent.DefaultProjectType
	}

	return map[string]string{
		keyProjectType:    projectType,
		keyFrameworks:     joinOrDefault(res.Slots.Get(intent.SlotFramework)),
		keyTechnologies:   joinOrDefault(res.Slots.Get(intent.SlotTechnology)),
		keySimilarCount:   strconv.Itoa(len(enr.Matches)),
		keySimilarSummary: summarize(enr.Matches, limit),
	}
}

func joinOrDefault(values []string) string {
	if len(values) == 0 {
		return noneDetected
	}
	return strings.Join(values, ", ")
}

// summarize renders up to limit matches, highest score first. The search
// collaborator promises no ordering beyond "higher score first if scores
// are present", so matches are re-sorted here before truncation.
func summarize(matches []enrich.Match, limit int) string {
	if len(matches) == 0 || limit <= 0 {
		return ""
	}

	sorted := make([]enrich.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	var b strings.Builder
	b.WriteString("\nMost relevant prior interactions:")
	for _, m := range sorted {
		b.WriteString(fmt.Sprintf("\n- %s (score %.2f)", m.Text, m.Score))
	}
	return b.String()
}
