package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
)

// LeadPage is the subset of lead fields synced to the CRM database.
type LeadPage struct {
	BusinessName string
	City         string
	Website      string
	Phone        string
	Email        string
	Score        float64
	Tier         string
	Notes        []string
}

// BuildLeadProperties maps a lead onto the CRM database's property schema.
// The target database must have matching property names and types.
func BuildLeadProperties(lead LeadPage) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: lead.BusinessName}}},
		},
		"Score": notionapi.NumberProperty{Number: lead.Score},
		"Tier": notionapi.SelectProperty{
			Select: notionapi.Option{Name: lead.Tier},
		},
	}
	if lead.City != "" {
		props["City"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: lead.City}}},
		}
	}
	if lead.Website != "" {
		props["Website"] = notionapi.URLProperty{URL: lead.Website}
	}
	if lead.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: lead.Phone}
	}
	if lead.Email != "" {
		props["Email"] = notionapi.EmailProperty{Email: lead.Email}
	}
	if len(lead.Notes) > 0 {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: strings.Join(lead.Notes, "; ")}}},
		}
	}
	return props
}

// UpsertLead updates the existing CRM page for the lead, or creates a new
// one when none exists yet.
func UpsertLead(ctx context.Context, c Client, lead LeadPage) (*notionapi.Page, error) {
	existing, err := c.FindLeadByName(ctx, lead.BusinessName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return c.CreateLead(ctx, lead)
	}
	return c.UpdateLead(ctx, string(existing.ID), lead)
}
