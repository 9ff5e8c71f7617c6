package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")

		var body textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "plumber in Springfield, IL", body.TextQuery)
		assert.Equal(t, 20, body.MaxResultCount)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{
			Places: []Place{
				{
					ID:                  "ChIJabc123",
					DisplayName:         DisplayName{Text: "ABC Plumbing"},
					Rating:              4.5,
					UserRatingCount:     127,
					WebsiteURI:          "https://abcplumbing.example.com",
					NationalPhoneNumber: "(217) 555-0134",
					FormattedAddress:    "123 Main St, Springfield, IL 62701, USA",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), "plumber in Springfield, IL", 0)

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "ABC Plumbing", resp.Places[0].DisplayName.Text)
	assert.Equal(t, "https://abcplumbing.example.com", resp.Places[0].WebsiteURI)
	assert.Equal(t, 127, resp.Places[0].UserRatingCount)
}

func TestTextSearch_CapsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 20, body.MaxResultCount)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), "plumber", 500)
	require.NoError(t, err)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), "test query", 10)

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "403")
}

func TestPlaceDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/places/ChIJabc123", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "websiteUri")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Place{
			ID:                  "ChIJabc123",
			DisplayName:         DisplayName{Text: "ABC Plumbing"},
			WebsiteURI:          "https://abcplumbing.example.com",
			NationalPhoneNumber: "(217) 555-0134",
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := client.PlaceDetails(context.Background(), "ChIJabc123")

	require.NoError(t, err)
	assert.Equal(t, "https://abcplumbing.example.com", place.WebsiteURI)
	assert.Equal(t, "(217) 555-0134", place.NationalPhoneNumber)
}

func TestPlaceDetails_EmptyID(t *testing.T) {
	client := NewClient("test-key")
	place, err := client.PlaceDetails(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, place)
}
