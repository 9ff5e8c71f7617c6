// Package fetcher provides a rate-limited, retrying HTTP client used by
// the discovery scrapers and the website enrichment pipeline.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// userAgents is a small pool of desktop browser strings rotated across
// requests so scrape traffic does not present a single fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

// Options configures the HTTP fetcher.
type Options struct {
	// UserAgent pins a single User-Agent. Empty means rotate the built-in pool.
	UserAgent    string
	Timeout      time.Duration
	Retry        resilience.RetryConfig
	RateLimiters map[string]*rate.Limiter
	// DefaultLimit applies to hosts without an explicit limiter.
	DefaultLimit rate.Limit
	DefaultBurst int
	// MaxBodyBytes caps the response body read. Zero means 10 MiB.
	MaxBodyBytes int64
}

// DefaultRateLimiters returns the per-host limiters for the external APIs
// the pipeline talks to. Scraped business websites fall back to the
// default limiter, created per host on first use.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"api.yelp.com":          rate.NewLimiter(5, 5),
		"places.googleapis.com": rate.NewLimiter(10, 10),
		"api.hunter.io":         rate.NewLimiter(1, 2),
		"api.tavily.com":        rate.NewLimiter(2, 2),
		"maps.googleapis.com":   rate.NewLimiter(10, 10),
		"www.googleapis.com":    rate.NewLimiter(10, 10),
	}
}

// HTTPFetcher fetches URLs with per-host rate limiting, User-Agent
// rotation, and transient-aware retries.
type HTTPFetcher struct {
	client   *http.Client
	opts     Options
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	uaIndex  atomic.Uint64
}

// New creates an HTTPFetcher with the given options.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 2
	}
	if opts.DefaultBurst == 0 {
		opts.DefaultBurst = 2
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
	}
}

// Client exposes the underlying http.Client so API SDK wrappers can share
// the same transport and timeout.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

func (f *HTTPFetcher) userAgent() string {
	if f.opts.UserAgent != "" {
		return f.opts.UserAgent
	}
	i := f.uaIndex.Add(1)
	return userAgents[i%uint64(len(userAgents))]
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(f.opts.DefaultLimit, f.opts.DefaultBurst)
	f.limiters[host] = lim
	return lim
}

// Get fetches the URL and returns the response body, up to MaxBodyBytes.
// Transient failures (timeouts, connection resets, 429/5xx) are retried
// with exponential backoff; permanent statuses (401/403/404/410) fail
// immediately.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	b, _, err := f.GetWithFinalURL(ctx, rawURL)
	return b, err
}

// GetWithFinalURL is Get plus the post-redirect URL, which the website
// scraper uses to detect HTTPS upgrades.
func (f *HTTPFetcher) GetWithFinalURL(ctx context.Context, rawURL string) ([]byte, string, error) {
	type result struct {
		body     []byte
		finalURL string
	}

	cfg := f.opts.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("fetcher", "get")
	}

	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (result, error) {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return result{}, resilience.NewPermanentError(eris.Wrap(err, "fetcher: rate limiter wait"), 0)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return result{}, resilience.NewPermanentError(eris.Wrap(err, "fetcher: create request"), 0)
		}
		req.Header.Set("User-Agent", f.userAgent())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			return result{}, err
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusOK:
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return result{}, resilience.NewTransientError(eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
		default:
			return result{}, resilience.NewPermanentError(eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
		if err != nil {
			return result{}, eris.Wrap(err, "fetcher: read body")
		}
		finalURL := rawURL
		if resp.Request != nil && resp.Request.URL != nil {
			finalURL = resp.Request.URL.String()
		}
		return result{body: body, finalURL: finalURL}, nil
	})
	if err != nil {
		return nil, "", err
	}

	zap.L().Debug("fetched url",
		zap.String("url", rawURL),
		zap.Int("bytes", len(res.body)),
	)
	return res.body, res.finalURL, nil
}
