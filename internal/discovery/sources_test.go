package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/google"
	"github.com/sells-group/leadgen-cli/pkg/yelp"
)

// fakeYelp pages through a canned result set.
type fakeYelp struct {
	businesses []yelp.Business
	err        error
	calls      int
}

func (f *fakeYelp) SearchBusinesses(_ context.Context, params yelp.SearchParams) (*yelp.SearchResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	end := min(params.Offset+params.Limit, len(f.businesses))
	start := min(params.Offset, end)
	return &yelp.SearchResponse{
		Businesses: f.businesses[start:end],
		Total:      len(f.businesses),
	}, nil
}

type fakeGoogle struct {
	searchResp  *google.TextSearchResponse
	detailsResp *google.Place
	err         error
}

func (f *fakeGoogle) TextSearch(_ context.Context, _ string, _ int) (*google.TextSearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchResp, nil
}

func (f *fakeGoogle) PlaceDetails(_ context.Context, _ string) (*google.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detailsResp, nil
}

func makeBusinesses(n int) []yelp.Business {
	out := make([]yelp.Business, n)
	for i := range out {
		out[i] = yelp.Business{
			ID:           string(rune('a' + i%26)),
			Name:         "Biz " + string(rune('A'+i%26)),
			URL:          "https://www.yelp.com/biz/biz",
			DisplayPhone: "(217) 555-0134",
			Location:     yelp.Location{City: "Springfield", State: "IL"},
		}
	}
	return out
}

func TestYelpSource_PaginatesToMax(t *testing.T) {
	client := &fakeYelp{businesses: makeBusinesses(120)}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"yelp": {Limit: 500, Window: quota.WindowDaily},
	})

	src := NewYelpSource(client, tracker)
	leads := src.FetchLeads(context.Background(), Query{Vertical: "plumber", Region: "Springfield, IL", MaxResults: 75})

	assert.Len(t, leads, 75)
	assert.Equal(t, 2, client.calls, "75 results at page size 50 needs 2 pages")
	assert.Equal(t, 500-2, tracker.Remaining("yelp"), "one quota call per page")
}

func TestYelpSource_QuotaExhaustedMidSearch(t *testing.T) {
	client := &fakeYelp{businesses: makeBusinesses(120)}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"yelp": {Limit: 1, Window: quota.WindowDaily},
	})

	src := NewYelpSource(client, tracker)
	leads := src.FetchLeads(context.Background(), Query{Vertical: "plumber", Region: "Springfield, IL", MaxResults: 100})

	assert.Len(t, leads, 50, "collects the page it had budget for, then stops")
	assert.Equal(t, 1, client.calls)
}

func TestYelpSource_ErrorYieldsEmpty(t *testing.T) {
	client := &fakeYelp{err: errors.New("boom")}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"yelp": {Limit: 500, Window: quota.WindowDaily},
	})

	src := NewYelpSource(client, tracker)
	leads := src.FetchLeads(context.Background(), Query{Vertical: "plumber", Region: "Springfield, IL", MaxResults: 10})

	assert.Empty(t, leads)
}

func TestYelpSource_SkipsMalformedRecords(t *testing.T) {
	client := &fakeYelp{businesses: []yelp.Business{
		{ID: "ok", Name: "Good Biz", Location: yelp.Location{City: "Springfield"}},
		{ID: "bad", Name: "  "},
	}}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"yelp": {Limit: 500, Window: quota.WindowDaily},
	})

	src := NewYelpSource(client, tracker)
	leads := src.FetchLeads(context.Background(), Query{Vertical: "plumber", Region: "Springfield, IL", MaxResults: 10})

	require.Len(t, leads, 1)
	assert.Equal(t, "Good Biz", leads[0].BusinessName)
}

func TestPlacesSource_MapsFields(t *testing.T) {
	client := &fakeGoogle{searchResp: &google.TextSearchResponse{
		Places: []google.Place{{
			ID:                  "ChIJ123",
			DisplayName:         google.DisplayName{Text: "ABC Plumbing"},
			Rating:              4.4,
			UserRatingCount:     31,
			WebsiteURI:          "https://abcplumbing.example.com",
			NationalPhoneNumber: "(217) 555-0134",
			FormattedAddress:    "123 Main St, Springfield, IL 62701, USA",
			Types:               []string{"plumber"},
		}},
	}}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"google_places": {Limit: 2000, Window: quota.WindowMonthly},
	})

	src := NewPlacesSource(client, tracker)
	leads := src.FetchLeads(context.Background(), Query{Vertical: "plumber", Region: "Springfield, IL", MaxResults: 10})

	require.Len(t, leads, 1)
	got := leads[0]
	assert.Equal(t, "ChIJ123", got.PlaceID)
	assert.Equal(t, "Springfield", got.City)
	assert.Equal(t, "https://abcplumbing.example.com", got.Website)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 4.4, *got.Rating, 0.001)
	assert.Equal(t, MethodPlaces, got.DiscoveryMethod)
}

func TestPlacesSource_FillProfileByPlaceID(t *testing.T) {
	client := &fakeGoogle{detailsResp: &google.Place{
		ID:                  "ChIJ123",
		WebsiteURI:          "https://real-site.example.com",
		NationalPhoneNumber: "(217) 555-0177",
	}}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"google_places": {Limit: 2000, Window: quota.WindowMonthly},
	})
	src := NewPlacesSource(client, tracker)

	l := lead(t, "Gap Lead", func(l *model.Lead) {
		l.PlaceID = "ChIJ123"
	})
	src.FillProfile(context.Background(), l)

	assert.Equal(t, "https://real-site.example.com", l.Website)
	assert.Equal(t, "(217) 555-0177", l.Phone)
	assert.Contains(t, l.Notes, "website found via google places lookup")
}

func TestPlacesSource_FillProfileQuotaExhausted(t *testing.T) {
	client := &fakeGoogle{detailsResp: &google.Place{WebsiteURI: "https://should-not-appear.example.com"}}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"google_places": {Limit: 0, Window: quota.WindowMonthly},
	})
	src := NewPlacesSource(client, tracker)

	l := lead(t, "Gap Lead", func(l *model.Lead) { l.PlaceID = "ChIJ123" })
	src.FillProfile(context.Background(), l)

	assert.Empty(t, l.Website)
}

func TestPlacesSource_FillProfileErrorLeavesLeadUnchanged(t *testing.T) {
	client := &fakeGoogle{err: errors.New("boom")}
	tracker := testTracker(t, map[string]config.ProviderQuota{
		"google_places": {Limit: 2000, Window: quota.WindowMonthly},
	})
	src := NewPlacesSource(client, tracker)

	l := lead(t, "Gap Lead", func(l *model.Lead) { l.PlaceID = "ChIJ123"; l.Phone = "(217) 555-0100" })
	src.FillProfile(context.Background(), l)

	assert.Empty(t, l.Website)
	assert.Equal(t, "(217) 555-0100", l.Phone)
}
