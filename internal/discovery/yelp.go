package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/yelp"
)

const yelpPageSize = 50

// YelpSource discovers leads through the Yelp Fusion business search.
type YelpSource struct {
	client  yelp.Client
	tracker *quota.Tracker
}

// NewYelpSource creates a YelpSource.
func NewYelpSource(client yelp.Client, tracker *quota.Tracker) *YelpSource {
	return &YelpSource{client: client, tracker: tracker}
}

func (s *YelpSource) Name() string     { return MethodYelp }
func (s *YelpSource) Provider() string { return "yelp" }

// FetchLeads pages through search results until the query's max or the
// provider's result set is exhausted. Each page costs one quota call.
func (s *YelpSource) FetchLeads(ctx context.Context, query Query) []*model.Lead {
	var leads []*model.Lead

	for offset := 0; len(leads) < query.MaxResults; offset += yelpPageSize {
		if !s.tracker.Acquire(ctx, s.Provider(), 1) {
			zap.L().Warn("yelp quota exhausted mid-search",
				zap.Int("collected", len(leads)),
			)
			break
		}

		limit := min(yelpPageSize, query.MaxResults-len(leads))
		resp, err := s.client.SearchBusinesses(ctx, yelp.SearchParams{
			Term:     query.Vertical,
			Location: query.Region,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			zap.L().Error("yelp search failed",
				zap.String("vertical", query.Vertical),
				zap.String("region", query.Region),
				zap.Error(err),
			)
			break
		}

		for _, biz := range resp.Businesses {
			if lead := s.toLead(biz, query); lead != nil {
				leads = append(leads, lead)
			}
		}

		if len(resp.Businesses) < limit || offset+yelpPageSize >= resp.Total {
			break
		}
	}

	zap.L().Info("yelp discovery complete",
		zap.String("vertical", query.Vertical),
		zap.Int("leads", len(leads)),
	)
	return leads
}

// toLead maps one business onto a lead. Malformed records (no name) are
// skipped without failing the batch.
func (s *YelpSource) toLead(biz yelp.Business, query Query) *model.Lead {
	lead, err := model.NewLead(biz.Name)
	if err != nil {
		zap.L().Warn("skipping malformed yelp record",
			zap.String("id", biz.ID),
			zap.Error(err),
		)
		return nil
	}

	lead.DiscoveryMethod = MethodYelp
	lead.SourceURL = strings.SplitN(biz.URL, "?", 2)[0]
	lead.City = biz.Location.City
	lead.Region = biz.Location.State
	lead.Phone = biz.DisplayPhone
	if lead.Phone == "" {
		lead.Phone = biz.Phone
	}
	lead.PriceLevel = biz.Price
	if biz.Rating > 0 {
		r := biz.Rating
		lead.Rating = &r
	}
	if biz.ReviewCount > 0 {
		rc := biz.ReviewCount
		lead.ReviewCount = &rc
	}
	for _, c := range biz.Categories {
		lead.Categories = append(lead.Categories, c.Title)
	}
	if lead.Region == "" {
		lead.Region = query.Region
	}
	lead.AddNote("discovered via yelp search")
	return lead
}
