package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// PlacesSource discovers leads through Google Places text search. It also
// serves as the profile-lookup provider the aggregator uses to fill
// website and phone gaps on records from other sources.
type PlacesSource struct {
	client  google.Client
	tracker *quota.Tracker
}

// NewPlacesSource creates a PlacesSource.
func NewPlacesSource(client google.Client, tracker *quota.Tracker) *PlacesSource {
	return &PlacesSource{client: client, tracker: tracker}
}

func (s *PlacesSource) Name() string     { return MethodPlaces }
func (s *PlacesSource) Provider() string { return "google_places" }

func (s *PlacesSource) FetchLeads(ctx context.Context, query Query) []*model.Lead {
	if !s.tracker.Acquire(ctx, s.Provider(), 1) {
		zap.L().Warn("google places quota exhausted, skipping search")
		return nil
	}

	resp, err := s.client.TextSearch(ctx, query.Vertical+" in "+query.Region, query.MaxResults)
	if err != nil {
		zap.L().Error("google places search failed",
			zap.String("vertical", query.Vertical),
			zap.String("region", query.Region),
			zap.Error(err),
		)
		return nil
	}

	var leads []*model.Lead
	for _, place := range resp.Places {
		if lead := s.toLead(place, query); lead != nil {
			leads = append(leads, lead)
		}
	}

	zap.L().Info("google places discovery complete",
		zap.String("vertical", query.Vertical),
		zap.Int("leads", len(leads)),
	)
	return leads
}

func (s *PlacesSource) toLead(place google.Place, query Query) *model.Lead {
	lead, err := model.NewLead(place.DisplayName.Text)
	if err != nil {
		zap.L().Warn("skipping malformed places record",
			zap.String("place_id", place.ID),
			zap.Error(err),
		)
		return nil
	}

	lead.DiscoveryMethod = MethodPlaces
	lead.PlaceID = place.ID
	lead.Website = place.WebsiteURI
	lead.Phone = place.NationalPhoneNumber
	lead.City = cityFromAddress(place.FormattedAddress)
	lead.Region = query.Region
	lead.PriceLevel = place.PriceLevel
	if place.Rating > 0 {
		r := place.Rating
		lead.Rating = &r
	}
	if place.UserRatingCount > 0 {
		rc := place.UserRatingCount
		lead.ReviewCount = &rc
	}
	lead.Categories = append(lead.Categories, place.Types...)
	lead.AddNote("discovered via google places search")
	return lead
}

// FillProfile looks the lead up on Places and fills missing website and
// phone fields. Failures leave the lead unchanged.
func (s *PlacesSource) FillProfile(ctx context.Context, lead *model.Lead) {
	if lead.Website != "" && lead.Phone != "" {
		return
	}
	if !s.tracker.Acquire(ctx, s.Provider(), 1) {
		zap.L().Debug("google places quota exhausted, skipping profile lookup",
			zap.String("business", lead.BusinessName),
		)
		return
	}

	place, err := s.lookup(ctx, lead)
	if err != nil {
		zap.L().Warn("profile lookup failed",
			zap.String("business", lead.BusinessName),
			zap.Error(err),
		)
		return
	}
	if place == nil {
		return
	}

	if lead.Website == "" && place.WebsiteURI != "" {
		lead.Website = place.WebsiteURI
		lead.AddNote("website found via google places lookup")
	}
	if lead.Phone == "" && place.NationalPhoneNumber != "" {
		lead.Phone = place.NationalPhoneNumber
	}
	if lead.PlaceID == "" {
		lead.PlaceID = place.ID
	}
}

func (s *PlacesSource) lookup(ctx context.Context, lead *model.Lead) (*google.Place, error) {
	if lead.PlaceID != "" {
		return s.client.PlaceDetails(ctx, lead.PlaceID)
	}

	query := lead.BusinessName
	if lead.City != "" {
		query += " " + lead.City
	}
	resp, err := s.client.TextSearch(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}
	return &resp.Places[0], nil
}

// cityFromAddress pulls the locality out of a formatted US address like
// "123 Main St, Springfield, IL 62701, USA".
func cityFromAddress(addr string) string {
	parts := strings.Split(addr, ",")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-3])
}
