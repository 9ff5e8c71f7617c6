// Package discovery finds candidate businesses across search providers,
// deduplicates them, and produces the normalized lead list the rest of
// the pipeline works on.
package discovery

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Discovery method tags stamped on leads by their producing source.
const (
	MethodYelp   = "yelp_api"
	MethodPlaces = "google_places"
	MethodSample = "sample_data"
)

// Query describes one discovery request.
type Query struct {
	Vertical   string
	Region     string
	MaxResults int
}

// Source produces raw leads for a query. Implementations contain their
// own failures: quota exhaustion, network errors, and malformed responses
// all resolve to a short or empty result, never to an error.
type Source interface {
	// Name identifies the source in logs and discovery-method tags.
	Name() string
	// Provider is the quota-tracker provider key this source consumes,
	// or empty for free sources.
	Provider() string
	FetchLeads(ctx context.Context, query Query) []*model.Lead
}
