package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/intent"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return NewRenderer(r)
}

func TestRenderSubstitutesSlots(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("I want to build a Vue.js dashboard for monitoring agents")
	require.Equal(t, intent.ProjectPlanning, res.Intent)

	out := renderer.Render(res, enrich.Result{}, 3)

	assert.Equal(t, intent.ProjectPlanning, out.Intent)
	assert.Contains(t, out.Text, "dashboard")
	assert.Contains(t, out.Text, "vue")
	assert.NotContains(t, out.Text, "{", "no unresolved placeholders")
	assert.False(t, out.UsedEnrichment)
	assert.False(t, out.UsedPolish)
	assert.Equal(t, []string{"vue"}, out.Slots[intent.SlotFramework])
}

func TestRenderAppliesSlotDefaults(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("let's start a new project")

	out := renderer.Render(res, enrich.Result{}, 3)

	assert.Contains(t, out.Text, intent.DefaultProjectType)
	assert.Contains(t, out.Text, "none detected")
}

func TestRenderSummarizesTopMatchesByScore(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("build an app")

	// Five matches, deliberately unsorted: the renderer must pick the
	// top three by score, highest first.
	enr := enrich.Result{Matches: []enrich.Match{
		{Text: "third", Score: 0.70},
		{Text: "first", Score: 0.95},
		{Text: "fifth", Score: 0.10},
		{Text: "second", Score: 0.90},
		{Text: "fourth", Score: 0.40},
	}}

	out := renderer.Render(res, enr, 3)

	assert.Contains(t, out.Text, "I found 5 similar prior interactions")
	assert.True(t, out.UsedEnrichment)

	summary := out.Text[strings.Index(out.Text, "Most relevant"):]
	assert.Equal(t, 3, strings.Count(summary, "\n- "), "summary must reference exactly limit entries")

	first := strings.Index(summary, "first")
	second := strings.Index(summary, "second")
	third := strings.Index(summary, "third")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.NotContains(t, summary, "fourth")
	assert.NotContains(t, summary, "fifth")
}

func TestRenderToleratesEmptyEnrichment(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("build an app")

	out := renderer.Render(res, enrich.Result{}, 3)

	assert.NotEmpty(t, out.Text)
	assert.Contains(t, out.Text, "0 similar prior interactions")
	assert.NotContains(t, out.Text, "Most relevant")
}

func TestRenderUnknownIntent(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("asdkjasd qweoiqwe")
	require.Equal(t, intent.Unknown, res.Intent)

	out := renderer.Render(res, enrich.Result{}, 3)

	assert.Contains(t, out.Text, "rephrase")
	assert.Empty(t, out.Slots)
}

// Rendering is pure: identical inputs produce identical output.
func TestRenderDeterministic(t *testing.T) {
	renderer := newTestRenderer(t)
	res := intent.NewClassifier().Classify("build a react app with redis")
	enr := enrich.Result{Matches: []enrich.Match{{Text: "prior", Score: 0.5}}}

	first := renderer.Render(res, enr, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, renderer.Render(res, enr, 3))
	}
}
