package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `"ABC Plumbing" Springfield IL reviews`, body.Query)
		assert.Equal(t, "basic", body.SearchDepth)
		assert.Equal(t, 5, body.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Answer: "ABC Plumbing is a well-reviewed plumber in Springfield.",
			Results: []Result{
				{Title: "ABC Plumbing - BBB", URL: "https://www.bbb.org/abc", Content: "A+ rated", Score: 0.91},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{Query: `"ABC Plumbing" Springfield IL reviews`})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://www.bbb.org/abc", resp.Results[0].URL)
	assert.NotEmpty(t, resp.Answer)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := NewClient("test-key")
	resp, err := client.Search(context.Background(), SearchRequest{})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{Query: "anything"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "502")
}
