package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/memory"
	"github.com/fyrsmithlabs/coordd/internal/pipeline"
	"github.com/fyrsmithlabs/coordd/internal/polish"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

// memStore is an in-memory Store fake with naive substring search.
type memStore struct {
	interactions []memory.Interaction
	searchErr    error
}

func (m *memStore) Remember(_ context.Context, in memory.Interaction) error {
	m.interactions = append(m.interactions, in)
	return nil
}

func (m *memStore) Search(_ context.Context, query string, limit int) ([]enrich.Match, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var matches []enrich.Match
	for _, in := range m.interactions {
		if len(matches) == limit {
			break
		}
		matches = append(matches, enrich.Match{Text: in.Message, Score: 0.5})
	}
	return matches, nil
}

func (m *memStore) Close() error { return nil }

func newTestServer(t *testing.T, store memory.Store) *Server {
	t.Helper()
	registry, err := template.NewRegistry()
	require.NoError(t, err)

	var searcher enrich.Searcher
	if store != nil {
		searcher = store
	}
	coordinator, err := pipeline.NewCoordinator(
		registry,
		enrich.NewEnricher(searcher, 50*time.Millisecond, nil),
		polish.NewPolisher(nil, 0, nil),
		pipeline.DefaultOptions(),
		nil,
	)
	require.NoError(t, err)

	s, err := NewServer(nil, coordinator, store, nil)
	require.NoError(t, err)
	return s
}

func TestNewServerRequiresCoordinator(t *testing.T) {
	_, err := NewServer(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestCoordinateTool(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store)

	out, err := s.coordinate(context.Background(), coordinateInput{
		Message: "I want to build a vue dashboard",
	})
	require.NoError(t, err)

	assert.Equal(t, "project_planning", out.Intent)
	assert.NotEmpty(t, out.Text)
	assert.Contains(t, out.Slots["framework"], "vue")

	// The interaction is remembered for future enrichment.
	require.Len(t, store.interactions, 1)
	assert.Equal(t, "I want to build a vue dashboard", store.interactions[0].Message)
	assert.Equal(t, "project_planning", store.interactions[0].Intent)
}

func TestCoordinateToolRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t, nil)

	_, err := s.coordinate(context.Background(), coordinateInput{Message: "   "})
	assert.ErrorIs(t, err, pipeline.ErrEmptyMessage)
}

func TestCoordinateToolOptionOverrides(t *testing.T) {
	s := newTestServer(t, nil)

	budget := 0
	out, err := s.coordinate(context.Background(), coordinateInput{
		Message:      "build a react app",
		TimeBudgetMS: &budget,
	})
	require.NoError(t, err)
	assert.False(t, out.UsedPolish)
	assert.NotEmpty(t, out.Text)
}

func TestMemorySearchTool(t *testing.T) {
	store := &memStore{interactions: []memory.Interaction{
		{Message: "planned a vue dashboard"},
		{Message: "planned a react app"},
	}}
	s := newTestServer(t, store)

	out, err := s.memorySearch(context.Background(), memorySearchInput{Query: "dashboard", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "planned a vue dashboard", out.Matches[0].Text)
}

func TestMemoryStoreTool(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store)

	out, err := s.memoryStore(context.Background(), memoryStoreInput{
		Message: "build a cli tool",
		Intent:  "project_planning",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	require.Len(t, store.interactions, 1)

	_, err = s.memoryStore(context.Background(), memoryStoreInput{})
	assert.Error(t, err)
}
