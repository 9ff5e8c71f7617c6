package hunter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "abcplumbing.example.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domainSearchResponse{
			Data: DomainSearchResult{
				Domain:  "abcplumbing.example.com",
				Pattern: "{first}",
				Emails: []Email{
					{Value: "joe@abcplumbing.example.com", Type: "personal", Confidence: 92, FirstName: "Joe"},
					{Value: "info@abcplumbing.example.com", Type: "generic", Confidence: 74},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	result, err := client.DomainSearch(context.Background(), "abcplumbing.example.com", 5)

	require.NoError(t, err)
	require.Len(t, result.Emails, 2)
	assert.Equal(t, "joe@abcplumbing.example.com", result.Emails[0].Value)
	assert.Equal(t, 92, result.Emails[0].Confidence)
}

func TestDomainSearch_EmptyDomain(t *testing.T) {
	client := NewClient("test-key")
	result, err := client.DomainSearch(context.Background(), "", 5)

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestDomainSearch_QuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors": [{"id": "too_many_requests"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	result, err := client.DomainSearch(context.Background(), "abcplumbing.example.com", 5)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "429")
}
