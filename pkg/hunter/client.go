// Package hunter wraps the Hunter.io Domain Search API for email discovery.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client performs Hunter.io API operations.
type Client interface {
	DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResult, error)
}

// DomainSearchResult is the data block of a domain-search response.
type DomainSearchResult struct {
	Domain  string  `json:"domain"`
	Pattern string  `json:"pattern"`
	Emails  []Email `json:"emails"`
}

// Email is a single address found for a domain. Confidence is 0-100.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

type domainSearchResponse struct {
	Data DomainSearchResult `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResult, error) {
	if domain == "" {
		return nil, eris.New("hunter: domain is required")
	}
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domain-search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("hunter: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result domainSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal response")
	}

	return &result.Data, nil
}
