// Package export writes the final scored lead list to tabular files, a
// plaintext summary report, and optionally a Notion CRM database.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// headers is the column layout shared by the CSV and XLSX writers. Every
// lead field must be representable here as a scalar or joined string.
var headers = []string{
	"business_name", "tier", "score", "city", "region",
	"website", "phone", "email", "all_emails", "email_confidence", "emails_verified",
	"has_contact_form", "has_booking", "has_emergency_service", "has_financing", "uses_https",
	"tech_stack", "rating", "review_count", "price_level", "categories",
	"research_verified", "reputation_score", "sources_found", "review_sites", "negative_flags",
	"discovery_method", "source_url", "place_id", "scraped_at", "notes",
}

func leadRow(l *model.Lead) []string {
	return []string{
		l.BusinessName,
		l.Tier,
		strconv.FormatFloat(l.Score, 'f', 1, 64),
		l.City,
		l.Region,
		l.Website,
		l.Phone,
		l.Email,
		strings.Join(l.Emails, ", "),
		strconv.Itoa(l.EmailConfidence),
		strconv.FormatBool(l.EmailsVerified),
		ternary(l.HasContactForm),
		ternary(l.HasBooking),
		ternary(l.HasEmergencyService),
		ternary(l.HasFinancing),
		ternary(l.UsesHTTPS),
		strings.Join(l.TechStack, ", "),
		floatPtr(l.Rating),
		intPtr(l.ReviewCount),
		l.PriceLevel,
		strings.Join(l.Categories, ", "),
		strconv.FormatBool(l.ResearchVerified),
		strconv.Itoa(l.ReputationScore),
		strconv.Itoa(l.SourcesFound),
		strings.Join(l.ReviewSites, ", "),
		strings.Join(l.NegativeFlags, ", "),
		l.DiscoveryMethod,
		l.SourceURL,
		l.PlaceID,
		l.ScrapedAt.UTC().Format(time.RFC3339),
		strings.Join(l.Notes, "; "),
	}
}

// ternary renders the three flag states distinctly so "checked and false"
// never reads the same as "never checked".
func ternary(p *bool) string {
	if p == nil {
		return "unknown"
	}
	return strconv.FormatBool(*p)
}

func floatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 1, 64)
}

func intPtr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds an export file name from the run's naming context, e.g.
// leads_plumber_springfield-il_2026-08-28.csv.
func Filename(vertical, region string, at time.Time, ext string) string {
	return fmt.Sprintf("leads_%s_%s_%s.%s",
		slug(vertical), slug(region), at.Format("2006-01-02"), ext)
}

func slug(s string) string {
	s = slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
