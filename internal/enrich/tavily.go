package enrich

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/tavily"
)

// reviewSiteDomains are hosts that count as independent review presence.
var reviewSiteDomains = []string{
	"yelp.com", "google.com", "bbb.org", "facebook.com",
	"angi.com", "homeadvisor.com", "trustpilot.com", "nextdoor.com",
}

// negativeKeywords flag reputation risks in research snippets.
var negativeKeywords = []string{
	"scam", "fraud", "lawsuit", "complaint filed", "unlicensed",
	"rip-off", "ripoff", "do not use", "avoid this",
}

// profileDomains never count as a business's own website.
var profileDomains = []string{"yelp.com", "google.com", "facebook.com"}

// Researcher is the tier-gated reputation research pass backed by web
// search. Like EmailFinder it runs only on top-tier leads after scoring.
type Researcher struct {
	client  tavily.Client
	tracker *quota.Tracker
}

// NewResearcher creates a Researcher.
func NewResearcher(client tavily.Client, tracker *quota.Tracker) *Researcher {
	return &Researcher{client: client, tracker: tracker}
}

func (r *Researcher) Name() string { return "tavily_research" }

func (r *Researcher) Enrich(ctx context.Context, leads []*model.Lead) []*model.Lead {
	var eligible []*model.Lead
	for _, lead := range leads {
		if lead.Tier == model.TierA {
			eligible = append(eligible, lead)
		}
	}
	if len(eligible) == 0 {
		return leads
	}

	if !r.tracker.CanUse("tavily", len(eligible)) {
		zap.L().Warn("tavily quota insufficient for batch",
			zap.Int("eligible", len(eligible)),
			zap.Int("remaining", r.tracker.Remaining("tavily")),
		)
		for _, lead := range eligible {
			lead.AddNote("research skipped: insufficient quota for batch")
		}
		return leads
	}

	for _, lead := range eligible {
		r.enrichOne(ctx, lead)
	}
	return leads
}

func (r *Researcher) enrichOne(ctx context.Context, lead *model.Lead) {
	if !r.tracker.Acquire(ctx, "tavily", 1) {
		lead.AddNote("research skipped: quota exhausted")
		return
	}

	query := fmt.Sprintf("%q %s reviews", lead.BusinessName, lead.City)
	resp, err := r.client.Search(ctx, tavily.SearchRequest{Query: query, MaxResults: 5})
	if err != nil {
		zap.L().Error("research search failed",
			zap.String("business", lead.BusinessName),
			zap.Error(err),
		)
		lead.AddNote("research failed: " + lead.BusinessName)
		return
	}

	lead.ResearchVerified = true
	lead.SourcesFound = len(resp.Results)

	for _, res := range resp.Results {
		if site := matchReviewSite(res.URL); site != "" && !containsString(lead.ReviewSites, site) {
			lead.ReviewSites = append(lead.ReviewSites, site)
		}
		content := strings.ToLower(res.Title + " " + res.Content)
		for _, kw := range negativeKeywords {
			if strings.Contains(content, kw) && !containsString(lead.NegativeFlags, kw) {
				lead.NegativeFlags = append(lead.NegativeFlags, kw)
			}
		}
	}

	if site := verifiedWebsite(resp.Results, lead.BusinessName); site != "" && needsWebsite(lead.Website) {
		lead.Website = site
		lead.AddNote("website verified by research: " + site)
	}

	lead.RecentActivity = lead.SourcesFound >= 3
	lead.ReputationScore = reputationScore(len(lead.ReviewSites), len(lead.NegativeFlags))
	lead.AddNote(fmt.Sprintf("research found %d sources, %d review sites, %d flags",
		lead.SourcesFound, len(lead.ReviewSites), len(lead.NegativeFlags)))
}

// verifiedWebsite returns the first result URL that looks like the
// business's own site: the URL contains the business name (compared with
// punctuation and spacing stripped) and is not a shared profile domain.
func verifiedWebsite(results []tavily.Result, businessName string) string {
	name := compactString(businessName)
	if name == "" {
		return ""
	}
	for _, res := range results {
		if !strings.Contains(compactString(res.URL), name) {
			continue
		}
		if isProfileDomain(domainOf(res.URL)) {
			continue
		}
		return res.URL
	}
	return ""
}

// needsWebsite reports whether current is absent or only a shared profile
// URL, so a research-verified site should replace it.
func needsWebsite(current string) bool {
	return current == "" || isProfileDomain(domainOf(current))
}

func isProfileDomain(domain string) bool {
	for _, p := range profileDomains {
		if domain == p || strings.HasSuffix(domain, "."+p) {
			return true
		}
	}
	return false
}

// compactString lowercases s and strips everything but letters and digits,
// so "ABC HVAC" matches inside "abchvac.com".
func compactString(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchReviewSite(rawURL string) string {
	domain := domainOf(rawURL)
	for _, site := range reviewSiteDomains {
		if domain == site || strings.HasSuffix(domain, "."+site) {
			return site
		}
	}
	return ""
}

// reputationScore is a 0-100 heuristic: a neutral base, credit for
// independent review presence, debits for negative findings.
func reputationScore(reviewSites, negativeFlags int) int {
	score := 50 + reviewSites*10 - negativeFlags*15
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
