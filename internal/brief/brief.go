// Package brief turns a free-text company description into a concrete
// discovery strategy using the Anthropic API.
package brief

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

const systemPrompt = `You analyze B2B lead generation briefs. Given a description of the
businesses a sales team wants to reach, respond with JSON only:
{"vertical": "<business category to search for>",
 "region": "<city, state or metro area>",
 "search_terms": ["<2-5 alternative search phrasings>"]}
Pick the single best vertical and region. No prose outside the JSON.`

// Strategy is a parsed discovery plan.
type Strategy struct {
	Vertical    string   `json:"vertical"`
	Region      string   `json:"region"`
	SearchTerms []string `json:"search_terms"`
}

// Generator produces discovery strategies from briefs.
type Generator struct {
	client  anthropic.Client
	tracker *quota.Tracker
	model   string
}

// NewGenerator creates a Generator using the given model.
func NewGenerator(client anthropic.Client, tracker *quota.Tracker, model string) *Generator {
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &Generator{client: client, tracker: tracker, model: model}
}

// Generate converts a free-text brief into a Strategy. Unlike discovery
// sources, a failure here is an error: without a vertical and region the
// pipeline has nothing to run on.
func (g *Generator) Generate(ctx context.Context, briefText string) (*Strategy, error) {
	if strings.TrimSpace(briefText) == "" {
		return nil, eris.New("brief: description is required")
	}
	if !g.tracker.Acquire(ctx, "anthropic", 1) {
		return nil, eris.New("brief: anthropic quota exhausted")
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 512,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: briefText},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "brief: generate strategy")
	}
	resp.Usage.LogCost(g.model, "brief")

	strategy, err := parseStrategy(resp.Text())
	if err != nil {
		return nil, err
	}

	zap.L().Info("brief parsed",
		zap.String("vertical", strategy.Vertical),
		zap.String("region", strategy.Region),
		zap.Int("search_terms", len(strategy.SearchTerms)),
	)
	return strategy, nil
}

// parseStrategy extracts the JSON object from the model's reply, tolerating
// code fences or stray prose around it.
func parseStrategy(text string) (*Strategy, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, eris.Errorf("brief: no JSON object in model reply: %.80s", text)
	}

	var s Strategy
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return nil, eris.Wrap(err, "brief: parse strategy JSON")
	}
	if s.Vertical == "" || s.Region == "" {
		return nil, eris.New("brief: strategy missing vertical or region")
	}
	return &s, nil
}
