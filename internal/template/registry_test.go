package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coordd/internal/intent"
)

// Every intent in the enum must have exactly one template, including
// Unknown. This is the startup invariant the renderer relies on.
func TestRegistryTotalCoverage(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, in := range intent.All() {
		tpl, ok := r.Get(in)
		assert.True(t, ok, "intent %q must have a template", in)
		assert.Equal(t, in, tpl.Intent)
		assert.NotEmpty(t, tpl.Body)
	}
}

func TestRegistryRejectsMissingIntent(t *testing.T) {
	_, err := newRegistry([]Template{
		{Intent: intent.Unknown, Body: "what?"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTemplate)
}

func TestRegistryRejectsUnknownPlaceholder(t *testing.T) {
	templates := make([]Template, 0, len(defaultTemplates))
	for _, tpl := range defaultTemplates {
		if tpl.Intent == intent.StatusQuery {
			tpl.Body = "status is {nonexistent_key}"
		}
		templates = append(templates, tpl)
	}

	_, err := newRegistry(templates)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPlaceholder)
}

func TestRegistryRejectsDuplicateIntent(t *testing.T) {
	templates := append([]Template{}, defaultTemplates...)
	templates = append(templates, Template{Intent: intent.Unknown, Body: "again"})

	_, err := newRegistry(templates)
	require.Error(t, err)
}

func TestUnknownTemplateSkipsPolish(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tpl, ok := r.Get(intent.Unknown)
	require.True(t, ok)
	assert.False(t, tpl.PolishRecommended)
}
