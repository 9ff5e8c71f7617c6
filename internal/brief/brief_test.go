package brief

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

type fakeAnthropic struct {
	reply string
	err   error
	calls int
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
	}, nil
}

func tracker(t *testing.T, limit int) *quota.Tracker {
	t.Helper()
	return quota.New(context.Background(), nil, map[string]config.ProviderQuota{
		"anthropic": {Limit: limit, Window: quota.WindowDaily},
	})
}

func TestGenerate_ParsesStrategy(t *testing.T) {
	client := &fakeAnthropic{reply: `{"vertical": "plumber", "region": "Springfield, IL", "search_terms": ["plumbing company", "drain cleaning"]}`}

	s, err := NewGenerator(client, tracker(t, 10), "").Generate(context.Background(),
		"We sell SaaS scheduling software to small residential plumbing companies around Springfield Illinois")

	require.NoError(t, err)
	assert.Equal(t, "plumber", s.Vertical)
	assert.Equal(t, "Springfield, IL", s.Region)
	assert.Len(t, s.SearchTerms, 2)
}

func TestGenerate_ToleratesCodeFences(t *testing.T) {
	client := &fakeAnthropic{reply: "```json\n{\"vertical\": \"hvac\", \"region\": \"Peoria, IL\"}\n```"}

	s, err := NewGenerator(client, tracker(t, 10), "").Generate(context.Background(), "hvac brief")

	require.NoError(t, err)
	assert.Equal(t, "hvac", s.Vertical)
}

func TestGenerate_QuotaExhausted(t *testing.T) {
	client := &fakeAnthropic{reply: `{}`}

	_, err := NewGenerator(client, tracker(t, 0), "").Generate(context.Background(), "a brief")

	assert.Error(t, err)
	assert.Zero(t, client.calls)
}

func TestGenerate_EmptyBrief(t *testing.T) {
	_, err := NewGenerator(&fakeAnthropic{}, tracker(t, 10), "").Generate(context.Background(), "   ")
	assert.Error(t, err)
}

func TestGenerate_MissingFields(t *testing.T) {
	client := &fakeAnthropic{reply: `{"vertical": "plumber"}`}
	_, err := NewGenerator(client, tracker(t, 10), "").Generate(context.Background(), "a brief")
	assert.Error(t, err)
}

func TestGenerate_NoJSON(t *testing.T) {
	client := &fakeAnthropic{reply: "I cannot help with that."}
	_, err := NewGenerator(client, tracker(t, 10), "").Generate(context.Background(), "a brief")
	assert.Error(t, err)
}
