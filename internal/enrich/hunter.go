package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
)

// verifiedConfidence is the Hunter confidence at or above which an address
// counts as verified.
const verifiedConfidence = 75

// EmailFinder is the tier-gated verified-email lookup. It runs only after
// scoring, touches only top-tier leads with a usable website, and
// consumes one quota call per lead.
type EmailFinder struct {
	client    hunter.Client
	tracker   *quota.Tracker
	perDomain int
}

// NewEmailFinder creates an EmailFinder requesting up to perDomain
// addresses per lookup.
func NewEmailFinder(client hunter.Client, tracker *quota.Tracker, perDomain int) *EmailFinder {
	if perDomain <= 0 {
		perDomain = 10
	}
	return &EmailFinder{client: client, tracker: tracker, perDomain: perDomain}
}

func (e *EmailFinder) Name() string { return "hunter_email" }

func (e *EmailFinder) Enrich(ctx context.Context, leads []*model.Lead) []*model.Lead {
	var eligible []*model.Lead
	for _, lead := range leads {
		if lead.Tier == model.TierA && domainOf(lead.Website) != "" {
			eligible = append(eligible, lead)
		}
	}
	if len(eligible) == 0 {
		return leads
	}

	// Fail fast when the whole batch cannot fit the remaining budget.
	if !e.tracker.CanUse("hunter", len(eligible)) {
		zap.L().Warn("hunter quota insufficient for batch",
			zap.Int("eligible", len(eligible)),
			zap.Int("remaining", e.tracker.Remaining("hunter")),
		)
		for _, lead := range eligible {
			lead.AddNote("email lookup skipped: insufficient quota for batch")
		}
		return leads
	}

	for _, lead := range eligible {
		e.enrichOne(ctx, lead)
	}
	return leads
}

func (e *EmailFinder) enrichOne(ctx context.Context, lead *model.Lead) {
	if !e.tracker.Acquire(ctx, "hunter", 1) {
		lead.AddNote("email lookup skipped: quota exhausted")
		return
	}

	domain := domainOf(lead.Website)
	result, err := e.client.DomainSearch(ctx, domain, e.perDomain)
	if err != nil {
		zap.L().Error("hunter lookup failed",
			zap.String("business", lead.BusinessName),
			zap.String("domain", domain),
			zap.Error(err),
		)
		lead.AddNote("email lookup failed: " + domain)
		return
	}

	if len(result.Emails) == 0 {
		lead.AddNote("email lookup found no addresses: " + domain)
		return
	}

	best := 0
	for _, em := range result.Emails {
		lead.AddEmails(em.Value)
		if em.Confidence > best {
			best = em.Confidence
		}
	}
	if best > lead.EmailConfidence {
		lead.EmailConfidence = best
	}
	if best >= verifiedConfidence {
		lead.EmailsVerified = true
	}
	lead.AddNote(fmt.Sprintf("email lookup found %d addresses (confidence %d)", len(result.Emails), best))
}
