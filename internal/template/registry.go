// Package template holds the intent-keyed response templates and renders
// deterministic draft responses from classifier output plus enrichment.
//
// The registry is loaded once at startup, validated, and never mutated
// afterwards, so it is safe to share across concurrent requests.
package template

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/coordd/internal/intent"
)

var (
	// ErrMissingTemplate indicates an intent with no registered template.
	ErrMissingTemplate = errors.New("missing template")

	// ErrUnknownPlaceholder indicates a template body referencing a
	// placeholder the renderer cannot substitute.
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
)

// Template is a parameterized response body associated with one intent.
type Template struct {
	Intent intent.Intent
	Body   string

	// PolishRecommended marks templates whose wording benefits from the
	// optional tone rewrite. Templates carrying only fixed phrasing
	// (status, clarifying questions) skip polish entirely.
	PolishRecommended bool
}

// Substitution keys the renderer can resolve. Startup validation rejects
// any template referencing a key outside this set.
const (
	keyProjectType    = "project_type"
	keyFrameworks     = "frameworks"
	keyTechnologies   = "technologies"
	keySimilarCount   = "similar_count"
	keySimilarSummary = "similar_summary"
)

// placeholderPattern matches {placeholder} references in template bodies.
var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

var knownKeys = map[string]bool{
	keyProjectType:    true,
	keyFrameworks:     true,
	keyTechnologies:   true,
	keySimilarCount:   true,
	keySimilarSummary: true,
}

// defaultTemplates is the built-in registry content, one template per
// intent including Unknown.
var defaultTemplates = []Template{
	{
		Intent: intent.ProjectPlanning,
		Body: "Let's plan your {project_type} project. " +
			"Frameworks detected: {frameworks}. Technologies detected: {technologies}. " +
			"I found {similar_count} similar prior interactions.{similar_summary} " +
			"Next step: confirm the requirements and I will draft a milestone plan.",
		PolishRecommended: true,
	},
	{
		Intent: intent.AgentTeamRequest,
		Body: "Assembling an agent team for your {project_type} work. " +
			"Frameworks in scope: {frameworks}. Technologies in scope: {technologies}. " +
			"{similar_count} related prior interactions informed this setup.{similar_summary}",
		PolishRecommended: true,
	},
	{
		Intent: intent.StatusQuery,
		Body: "Here is the current status for your {project_type} work. " +
			"Related prior interactions: {similar_count}.{similar_summary}",
		PolishRecommended: false,
	},
	{
		Intent: intent.Unknown,
		Body: "I could not match that request to a known action. Could you rephrase it? " +
			"For example: describe a project to build, ask for an agent team, or ask for status.",
		PolishRecommended: false,
	},
}

// Registry maps every intent to exactly one template.
type Registry struct {
	templates map[intent.Intent]Template
}

// NewRegistry builds the default registry and validates it. A validation
// failure here is a configuration invariant violation and must abort
// startup; it can never surface at request time.
func NewRegistry() (*Registry, error) {
	return newRegistry(defaultTemplates)
}

func newRegistry(templates []Template) (*Registry, error) {
	r := &Registry{templates: make(map[intent.Intent]Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.templates[t.Intent]; dup {
			return nil, fmt.Errorf("duplicate template for intent %q", t.Intent)
		}
		r.templates[t.Intent] = t
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the template for the given intent.
func (r *Registry) Get(in intent.Intent) (Template, bool) {
	t, ok := r.templates[in]
	return t, ok
}

// Validate enforces the total-coverage invariant (every intent has a
// template) and that every placeholder is a known substitution key.
func (r *Registry) Validate() error {
	for _, in := range intent.All() {
		t, ok := r.templates[in]
		if !ok {
			return fmt.Errorf("%w: intent %q has no template", ErrMissingTemplate, in)
		}
		for _, m := range placeholderPattern.FindAllStringSubmatch(t.Body, -1) {
			if !knownKeys[m[1]] {
				return fmt.Errorf("%w: template %q references {%s}", ErrUnknownPlaceholder, in, m[1])
			}
		}
	}
	return nil
}
