package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/tavily"
)

type fakeTavily struct {
	resp  *tavily.SearchResponse
	calls int
}

func (f *fakeTavily) Search(_ context.Context, _ tavily.SearchRequest) (*tavily.SearchResponse, error) {
	f.calls++
	return f.resp, nil
}

func tavilyTracker(t *testing.T, limit int) *quota.Tracker {
	t.Helper()
	return quota.New(context.Background(), nil, map[string]config.ProviderQuota{
		"tavily": {Limit: limit, Window: quota.WindowMonthly},
	})
}

func TestResearcher_CollectsReputationSignals(t *testing.T) {
	client := &fakeTavily{resp: &tavily.SearchResponse{
		Results: []tavily.Result{
			{URL: "https://www.yelp.com/biz/a-co", Title: "A Co - Yelp", Content: "great service"},
			{URL: "https://www.bbb.org/a-co", Title: "A Co | BBB", Content: "accredited"},
			{URL: "https://forum.example.com/thread", Title: "warning", Content: "total scam, avoid this company"},
		},
	}}
	a := tierALead(t, "A Co", "https://a.example.com")

	NewResearcher(client, tavilyTracker(t, 100)).Enrich(context.Background(), []*model.Lead{a})

	assert.True(t, a.ResearchVerified)
	assert.Equal(t, 3, a.SourcesFound)
	assert.ElementsMatch(t, []string{"yelp.com", "bbb.org"}, a.ReviewSites)
	assert.ElementsMatch(t, []string{"scam", "avoid this"}, a.NegativeFlags)
	assert.True(t, a.RecentActivity)
	// 50 + 2*10 - 2*15
	assert.Equal(t, 40, a.ReputationScore)
}

func TestResearcher_SkipsLowerTiers(t *testing.T) {
	client := &fakeTavily{resp: &tavily.SearchResponse{}}
	b := newLead(t, "B Co", nil)
	b.SetScore(50, 65, 45)

	NewResearcher(client, tavilyTracker(t, 100)).Enrich(context.Background(), []*model.Lead{b})

	assert.Zero(t, client.calls)
	assert.False(t, b.ResearchVerified)
}

func TestResearcher_BatchPrecheck(t *testing.T) {
	client := &fakeTavily{resp: &tavily.SearchResponse{}}
	a := tierALead(t, "A Co", "https://a.example.com")
	b := tierALead(t, "B Co", "https://b.example.com")

	NewResearcher(client, tavilyTracker(t, 1)).Enrich(context.Background(), []*model.Lead{a, b})

	assert.Zero(t, client.calls)
	assert.Contains(t, a.Notes, "research skipped: insufficient quota for batch")
}

func TestResearcher_AdoptsVerifiedWebsite(t *testing.T) {
	client := &fakeTavily{resp: &tavily.SearchResponse{
		Results: []tavily.Result{
			{URL: "https://www.yelp.com/biz/abc-hvac", Title: "ABC HVAC - Yelp"},
			{URL: "https://abchvac.com/services", Title: "ABC HVAC | Heating & Cooling"},
		},
	}}
	a := tierALead(t, "ABC HVAC", "https://www.yelp.com/biz/abc-hvac")

	NewResearcher(client, tavilyTracker(t, 100)).Enrich(context.Background(), []*model.Lead{a})

	require.Equal(t, "https://abchvac.com/services", a.Website)
	assert.Contains(t, a.Notes, "website verified by research: https://abchvac.com/services")
}

func TestResearcher_KeepsExistingRealWebsite(t *testing.T) {
	client := &fakeTavily{resp: &tavily.SearchResponse{
		Results: []tavily.Result{
			{URL: "https://abchvac.com", Title: "ABC HVAC"},
		},
	}}
	a := tierALead(t, "ABC HVAC", "https://abc-heating.example.com")

	NewResearcher(client, tavilyTracker(t, 100)).Enrich(context.Background(), []*model.Lead{a})

	assert.Equal(t, "https://abc-heating.example.com", a.Website)
}

func TestVerifiedWebsite(t *testing.T) {
	results := []tavily.Result{
		{URL: "https://www.yelp.com/biz/abc-hvac"},
		{URL: "https://www.facebook.com/abchvac"},
		{URL: "https://forum.example.com/unrelated-thread"},
		{URL: "https://abchvac.com/contact"},
	}

	// Profile domains and non-matching URLs are skipped.
	assert.Equal(t, "https://abchvac.com/contact", verifiedWebsite(results, "ABC HVAC"))
	assert.Empty(t, verifiedWebsite(results, "Zenith Plumbing"))
	assert.Empty(t, verifiedWebsite(results, ""))

	assert.True(t, needsWebsite(""))
	assert.True(t, needsWebsite("https://www.yelp.com/biz/abc-hvac"))
	assert.False(t, needsWebsite("https://abchvac.com"))
}

func TestReputationScore_Clamps(t *testing.T) {
	assert.Equal(t, 100, reputationScore(8, 0))
	assert.Equal(t, 0, reputationScore(0, 5))
	assert.Equal(t, 50, reputationScore(0, 0))
}
