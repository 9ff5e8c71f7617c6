// Package notion syncs scored leads into a Notion CRM database. The
// client is bound to one lead database and exposes only the lead
// operations the exporter performs.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client performs lead operations against the bound CRM database.
type Client interface {
	// FindLeadByName returns the page whose title matches the business
	// name exactly, or nil when none exists.
	FindLeadByName(ctx context.Context, businessName string) (*notionapi.Page, error)
	CreateLead(ctx context.Context, lead LeadPage) (*notionapi.Page, error)
	UpdateLead(ctx context.Context, pageID string, lead LeadPage) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*leadClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *leadClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// leadClient implements Client against one lead database.
type leadClient struct {
	inner   *notionapi.Client
	dbID    notionapi.DatabaseID
	limiter *rate.Limiter
}

// NewClient creates a Client bound to the lead database dbID. API calls
// are throttled to 3 req/s (Notion's rate limit) unless overridden.
func NewClient(token, dbID string, opts ...ClientOption) Client {
	c := &leadClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		dbID:    notionapi.DatabaseID(dbID),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *leadClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *leadClient) FindLeadByName(ctx context.Context, businessName string) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	resp, err := c.inner.Database.Query(ctx, c.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{
				Equals: businessName,
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: find lead %q", businessName))
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func (c *leadClient) CreateLead(ctx context.Context, lead LeadPage) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.dbID,
		},
		Properties: BuildLeadProperties(lead),
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: create lead %q", lead.BusinessName))
	}
	return page, nil
}

func (c *leadClient) UpdateLead(ctx context.Context, pageID string, lead LeadPage) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.inner.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: BuildLeadProperties(lead),
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: update lead page %s", pageID))
	}
	return page, nil
}
