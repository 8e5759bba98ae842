package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/intent"
	"github.com/fyrsmithlabs/coordd/internal/polish"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

type fakeSearcher struct {
	matches []enrich.Match
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]enrich.Match, error) {
	return f.matches, f.err
}

type fakeGenerator struct {
	mu     sync.Mutex
	output string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.output, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestCoordinator(t *testing.T, searcher enrich.Searcher, generator polish.Generator) *Coordinator {
	t.Helper()
	registry, err := template.NewRegistry()
	require.NoError(t, err)

	c, err := NewCoordinator(
		registry,
		enrich.NewEnricher(searcher, 50*time.Millisecond, nil),
		polish.NewPolisher(generator, 0, nil),
		Options{EnablePolish: true, TimeBudget: time.Second, EnrichmentLimit: 3},
		nil,
	)
	require.NoError(t, err)
	return c
}

func TestHandleRejectsEmptyMessage(t *testing.T) {
	c := newTestCoordinator(t, &fakeSearcher{}, &fakeGenerator{})

	for _, message := range []string{"", "   ", "\t\n"} {
		_, err := c.Handle(context.Background(), message, c.Defaults())
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
}

func TestHandleProjectPlanningWithoutPolish(t *testing.T) {
	gen := &fakeGenerator{output: "never used"}
	c := newTestCoordinator(t, &fakeSearcher{}, gen)

	opts := c.Defaults()
	opts.EnablePolish = false
	resp, err := c.Handle(context.Background(), "I want to build a Vue.js dashboard for monitoring agents", opts)

	require.NoError(t, err)
	assert.Equal(t, intent.ProjectPlanning, resp.Intent)
	assert.Contains(t, resp.Text, "dashboard")
	assert.Contains(t, resp.Text, "vue")
	assert.NotContains(t, resp.Text, "{")
	assert.False(t, resp.UsedPolish)
	assert.Equal(t, 0, gen.callCount())
}

func TestHandleUnknownWithFailingGenerator(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("generation down")}
	c := newTestCoordinator(t, &fakeSearcher{}, gen)

	resp, err := c.Handle(context.Background(), "asdkjasd qweoiqwe", c.Defaults())

	require.NoError(t, err)
	assert.Equal(t, intent.Unknown, resp.Intent)
	assert.Contains(t, resp.Text, "rephrase")
	assert.False(t, resp.UsedPolish)
	// The unknown template never recommends polish, so the broken
	// generator is not even consulted.
	assert.Equal(t, 0, gen.callCount())
}

func TestHandleSurvivesSearcherFailure(t *testing.T) {
	c := newTestCoordinator(t, &fakeSearcher{err: errors.New("store down")}, &fakeGenerator{output: "polished"})

	resp, err := c.Handle(context.Background(), "build a react app", c.Defaults())

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.False(t, resp.UsedEnrichment)
}

func TestHandleZeroBudgetSkipsPolish(t *testing.T) {
	gen := &fakeGenerator{output: "never used"}
	c := newTestCoordinator(t, &fakeSearcher{}, gen)

	opts := c.Defaults()
	opts.TimeBudget = 0
	resp, err := c.Handle(context.Background(), "build a react app", opts)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text, "a rendered draft is still produced")
	assert.False(t, resp.UsedPolish)
	assert.Equal(t, 0, gen.callCount())
}

func TestHandleAppliesPolish(t *testing.T) {
	gen := &fakeGenerator{output: "Here's a friendlier plan for your project!"}
	c := newTestCoordinator(t, &fakeSearcher{}, gen)

	resp, err := c.Handle(context.Background(), "build a react app", c.Defaults())

	require.NoError(t, err)
	assert.True(t, resp.UsedPolish)
	assert.Equal(t, gen.output, resp.Text)
	assert.Equal(t, 1, gen.callCount())
}

func TestHandleEnrichmentFlowsIntoResponse(t *testing.T) {
	searcher := &fakeSearcher{matches: []enrich.Match{
		{Text: "planned a vue dashboard", Score: 0.9},
		{Text: "planned a react app", Score: 0.7},
	}}
	c := newTestCoordinator(t, searcher, &fakeGenerator{})

	opts := c.Defaults()
	opts.EnablePolish = false
	resp, err := c.Handle(context.Background(), "build a vue dashboard", opts)

	require.NoError(t, err)
	assert.True(t, resp.UsedEnrichment)
	assert.Contains(t, resp.Text, "2 similar prior interactions")
	assert.Contains(t, resp.Text, "planned a vue dashboard")
}

// Concurrent requests must not interleave through shared state: each
// response must match its own message.
func TestHandleConcurrentRequests(t *testing.T) {
	c := newTestCoordinator(t, &fakeSearcher{}, &fakeGenerator{})

	messages := map[string]intent.Intent{
		"build a vue dashboard":        intent.ProjectPlanning,
		"spin up backend agents":       intent.AgentTeamRequest,
		"what's the current status?":   intent.StatusQuery,
		"qwerqwer zxcvzxcv":            intent.Unknown,
		"assemble an agent team":       intent.AgentTeamRequest,
		"build a django api with redis": intent.ProjectPlanning,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(messages)*20)
	for msg, want := range messages {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(msg string, want intent.Intent) {
				defer wg.Done()
				opts := c.Defaults()
				opts.EnablePolish = false
				resp, err := c.Handle(context.Background(), msg, opts)
				if err != nil {
					errCh <- err
					return
				}
				if resp.Intent != want {
					errCh <- fmt.Errorf("message %q: got intent %q, want %q", msg, resp.Intent, want)
				}
			}(msg, want)
		}
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}
}
