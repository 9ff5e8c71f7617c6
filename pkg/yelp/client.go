// Package yelp wraps the Yelp Fusion API for local business discovery.
package yelp

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

const defaultBaseURL = "https://api.yelp.com/v3"

// Client performs Yelp Fusion API operations.
type Client interface {
	SearchBusinesses(ctx context.Context, params SearchParams) (*SearchResponse, error)
}

// SearchParams are the query parameters for a business search.
type SearchParams struct {
	Term     string
	Location string
	Limit    int
	Offset   int
	SortBy   string
}

// SearchResponse is the response from /businesses/search.
type SearchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// Business represents a business returned by the API.
type Business struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Phone        string     `json:"phone"`
	DisplayPhone string     `json:"display_phone"`
	Rating       float64    `json:"rating"`
	ReviewCount  int        `json:"review_count"`
	Price        string     `json:"price"`
	Categories   []Category `json:"categories"`
	Location     Location   `json:"location"`
}

// Category is a Yelp business category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Location holds a business address.
type Location struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
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

// NewClient creates a Yelp Fusion API client.
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

func (c *httpClient) SearchBusinesses(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("term", params.Term)
	q.Set("location", params.Location)
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.SortBy != "" {
		q.Set("sort_by", params.SortBy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/businesses/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("yelp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "yelp: unmarshal response")
	}

	return &result, nil
}
