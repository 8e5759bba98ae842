package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/enrich"
	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/memory"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "coordinate",
		Description: "Classify a user message and return a coordinated response",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args coordinateInput) (*mcp.CallToolResult, coordinateOutput, error) {
		out, err := s.coordinate(ctx, args)
		if err != nil {
			return nil, coordinateOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: out.Text},
			},
		}, out, nil
	})

	// Memory tools only make sense with a store behind them.
	if s.store == nil {
		return
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_search",
		Description: "Search prior interactions by similarity",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memorySearchInput) (*mcp.CallToolResult, memorySearchOutput, error) {
		out, err := s.memorySearch(ctx, args)
		if err != nil {
			return nil, memorySearchOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("%d matches", out.Count)},
			},
		}, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_store",
		Description: "Store an interaction for future similarity search",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args memoryStoreInput) (*mcp.CallToolResult, memoryStoreOutput, error) {
		out, err := s.memoryStore(ctx, args)
		if err != nil {
			return nil, memoryStoreOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Interaction stored: %s", out.ID)},
			},
		}, out, nil
	})
}

// ===== COORDINATE =====

type coordinateInput struct {
	Message         string `json:"message" jsonschema:"required,User message to coordinate"`
	SessionID       string `json:"session_id,omitempty" jsonschema:"Session identifier for response broadcasting"`
	DisablePolish   bool   `json:"disable_polish,omitempty" jsonschema:"Skip the polish stage for this request"`
	TimeBudgetMS    *int   `json:"time_budget_ms,omitempty" jsonschema:"Soft time budget in milliseconds"`
	EnrichmentLimit *int   `json:"enrichment_limit,omitempty" jsonschema:"Maximum similar interactions to include"`
}

type coordinateOutput struct {
	Intent         string              `json:"intent" jsonschema:"Classified intent"`
	Text           string              `json:"text" jsonschema:"Response text"`
	Slots          map[string][]string `json:"slots" jsonschema:"Extracted slot values"`
	UsedEnrichment bool                `json:"usedEnrichment" jsonschema:"Whether similar interactions informed the response"`
	UsedPolish     bool                `json:"usedPolish" jsonschema:"Whether the polish stage rewrote the response"`
}

func (s *Server) coordinate(ctx context.Context, args coordinateInput) (coordinateOutput, error) {
	if args.SessionID != "" {
		ctx = logging.WithSessionID(ctx, args.SessionID)
	}

	opts := s.coordinator.Defaults()
	if args.DisablePolish {
		opts.EnablePolish = false
	}
	if args.TimeBudgetMS != nil {
		opts.TimeBudget = time.Duration(*args.TimeBudgetMS) * time.Millisecond
	}
	if args.EnrichmentLimit != nil {
		opts.EnrichmentLimit = *args.EnrichmentLimit
	}

	resp, err := s.coordinator.Handle(ctx, args.Message, opts)
	if err != nil {
		return coordinateOutput{}, err
	}

	// Persist the interaction so future requests can be enriched by it.
	// Best-effort: memory failures never fail the request.
	if s.store != nil {
		interaction := memory.Interaction{
			Message:  args.Message,
			Intent:   string(resp.Intent),
			Response: resp.Text,
		}
		if err := s.store.Remember(ctx, interaction); err != nil {
			s.logger.Warn(ctx, "failed to remember interaction",
				zap.String("intent", string(resp.Intent)),
				zap.Error(err),
			)
		}
	}

	if s.broker != nil && args.SessionID != "" {
		if err := s.broker.PublishResponse(ctx, args.SessionID, resp); err != nil {
			s.logger.Warn(ctx, "failed to publish response",
				zap.String("session_id", args.SessionID),
				zap.Error(err),
			)
		}
	}

	return coordinateOutput{
		Intent:         string(resp.Intent),
		Text:           resp.Text,
		Slots:          resp.Slots,
		UsedEnrichment: resp.UsedEnrichment,
		UsedPolish:     resp.UsedPolish,
	}, nil
}

// ===== MEMORY =====

type memorySearchInput struct {
	Query string `json:"query" jsonschema:"required,Similarity search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default: 3)"`
}

type memorySearchOutput struct {
	Matches []matchOutput `json:"matches" jsonschema:"Similar prior interactions"`
	Count   int           `json:"count" jsonschema:"Number of matches returned"`
}

type matchOutput struct {
	Text  string  `json:"text" jsonschema:"Interaction summary"`
	Score float32 `json:"score" jsonschema:"Similarity score"`
}

func (s *Server) memorySearch(ctx context.Context, args memorySearchInput) (memorySearchOutput, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = enrich.DefaultLimit
	}

	matches, err := s.store.Search(ctx, args.Query, limit)
	if err != nil {
		return memorySearchOutput{}, fmt.Errorf("memory search failed: %w", err)
	}

	out := memorySearchOutput{
		Matches: make([]matchOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		out.Matches[i] = matchOutput{Text: m.Text, Score: m.Score}
	}
	return out, nil
}

type memoryStoreInput struct {
	Message  string `json:"message" jsonschema:"required,Original user message"`
	Intent   string `json:"intent,omitempty" jsonschema:"Intent the message resolved to"`
	Response string `json:"response,omitempty" jsonschema:"Response that was given"`
}

type memoryStoreOutput struct {
	ID string `json:"id" jsonschema:"Stored interaction ID"`
}

func (s *Server) memoryStore(ctx context.Context, args memoryStoreInput) (memoryStoreOutput, error) {
	if args.Message == "" {
		return memoryStoreOutput{}, fmt.Errorf("message is required")
	}

	interaction := memory.Interaction{
		ID:       uuid.NewString(),
		Message:  args.Message,
		Intent:   args.Intent,
		Response: args.Response,
	}
	if err := s.store.Remember(ctx, interaction); err != nil {
		return memoryStoreOutput{}, fmt.Errorf("memory store failed: %w", err)
	}
	return memoryStoreOutput{ID: interaction.ID}, nil
}
