// Package enrich adds contact and research signals onto discovered leads.
// Enrichers are additive: they never remove a lead and never overwrite a
// field that already holds a value, except through the documented email
// merge rules and the replacement of a shared profile URL with a
// research-verified business website.
package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Enricher processes a lead batch. Output has the same length and order as
// the input; fields are merged in additively. Implementations contain
// their own failures; a lead whose enrichment fails passes through with a
// note appended.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, leads []*model.Lead) []*model.Lead
}

// domainOf extracts the lowercased host of a website URL, minus any
// leading www. Returns empty for unusable values.
func domainOf(website string) string {
	if website == "" {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(website))
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
