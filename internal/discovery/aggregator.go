package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
)

// ProfileFiller fills missing contact fields on a lead via a provider
// profile lookup. Failures must leave the lead unchanged.
type ProfileFiller interface {
	FillProfile(ctx context.Context, lead *model.Lead)
}

// Result is what one aggregation run produced.
type Result struct {
	Leads      []*model.Lead
	Duplicates int
}

// Aggregator queries sources in priority order, backfills with synthetic
// data, deduplicates, and normalizes into the final candidate list.
type Aggregator struct {
	sources  []Source
	fallback Source
	profile  ProfileFiller
	tracker  *quota.Tracker
	excluded []string
}

// NewAggregator creates an Aggregator. sources are queried in the given
// priority order; fallback backfills any shortfall. profile may be nil.
func NewAggregator(sources []Source, fallback Source, profile ProfileFiller, tracker *quota.Tracker, excludedDomains []string) *Aggregator {
	return &Aggregator{
		sources:  sources,
		fallback: fallback,
		profile:  profile,
		tracker:  tracker,
		excluded: excludedDomains,
	}
}

// Discover runs the full aggregation pass for one query.
func (a *Aggregator) Discover(ctx context.Context, query Query) *Result {
	var raw []*model.Lead
	primary := ""
	if len(a.sources) > 0 {
		primary = a.sources[0].Name()
	}

	for _, src := range a.sources {
		if provider := src.Provider(); provider != "" && !a.tracker.CanUse(provider, 1) {
			zap.L().Warn("skipping source, quota exhausted",
				zap.String("source", src.Name()),
				zap.String("provider", provider),
			)
			continue
		}
		leads := src.FetchLeads(ctx, query)
		raw = append(raw, leads...)
		if len(raw) >= query.MaxResults {
			break
		}
	}

	// Backfill so downstream stages always have data to work on.
	if len(raw) < query.MaxResults && a.fallback != nil {
		shortfall := query.MaxResults - len(raw)
		zap.L().Info("backfilling with synthetic leads", zap.Int("count", shortfall))
		q := query
		q.MaxResults = shortfall
		raw = append(raw, a.fallback.FetchLeads(ctx, q)...)
	}

	for _, lead := range raw {
		if lead.DiscoveryMethod == "" {
			lead.DiscoveryMethod = "unknown"
		}
	}

	// Records from secondary sources often carry a profile-page URL but
	// no real website; fill gaps before dedup so domain keys can match.
	if a.profile != nil {
		for _, lead := range raw {
			if lead.DiscoveryMethod != primary && lead.DiscoveryMethod != MethodSample {
				a.profile.FillProfile(ctx, lead)
			}
		}
	}

	dedup := NewDeduper(a.excluded)
	var unique []*model.Lead
	for _, lead := range raw {
		if dedup.Add(lead) {
			unique = append(unique, lead)
		}
	}

	for _, lead := range unique {
		normalize(lead)
	}

	if len(unique) > query.MaxResults {
		unique = unique[:query.MaxResults]
	}

	zap.L().Info("aggregation complete",
		zap.Int("raw", len(raw)),
		zap.Int("unique", len(unique)),
		zap.Int("duplicates", dedup.Duplicates()),
	)
	return &Result{Leads: unique, Duplicates: dedup.Duplicates()}
}

// normalize rewrites fields in place; it never drops a record.
func normalize(lead *model.Lead) {
	lead.BusinessName = strings.TrimSpace(lead.BusinessName)
	lead.Phone = strings.TrimSpace(lead.Phone)
	if lead.Website != "" {
		w := strings.ToLower(strings.TrimSpace(lead.Website))
		if !strings.Contains(w, "://") {
			w = "https://" + w
		}
		lead.Website = w
	}
}
