package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scrape"
)

// Inspector is the website signal extractor, satisfied by scrape.Scraper.
type Inspector interface {
	Inspect(ctx context.Context, siteURL string) (*scrape.Signals, error)
}

// WebsiteEnricher inspects each lead's website for contact channels,
// service keywords, and platform fingerprints. Leads are processed
// concurrently; scrape targets are independent hosts, so fan-out is safe.
type WebsiteEnricher struct {
	inspector   Inspector
	concurrency int
}

// NewWebsiteEnricher creates a WebsiteEnricher running at most concurrency
// inspections at once.
func NewWebsiteEnricher(inspector Inspector, concurrency int) *WebsiteEnricher {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &WebsiteEnricher{inspector: inspector, concurrency: concurrency}
}

func (e *WebsiteEnricher) Name() string { return "website" }

// Enrich inspects every lead with a website. Each lead mutates only its
// own record, so no locking is needed across the group.
func (e *WebsiteEnricher) Enrich(ctx context.Context, leads []*model.Lead) []*model.Lead {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, lead := range leads {
		g.Go(func() error {
			e.enrichOne(gctx, lead)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("website enrichment complete", zap.Int("leads", len(leads)))
	return leads
}

func (e *WebsiteEnricher) enrichOne(ctx context.Context, lead *model.Lead) {
	if lead.Website == "" {
		lead.AddNote("website inspection skipped: no website")
		return
	}

	sig, err := e.inspector.Inspect(ctx, lead.Website)
	if err != nil {
		zap.L().Warn("website inspection failed",
			zap.String("business", lead.BusinessName),
			zap.String("website", lead.Website),
			zap.Error(err),
		)
		lead.AddNote("website inspection failed: " + lead.Website)
		return
	}

	// Checked signals graduate from unknown to a definite value.
	lead.HasContactForm = model.BoolPtr(sig.HasContactForm)
	lead.HasBooking = model.BoolPtr(sig.HasBooking)
	lead.HasEmergencyService = model.BoolPtr(sig.HasEmergencyService)
	lead.HasFinancing = model.BoolPtr(sig.HasFinancing)
	lead.UsesHTTPS = model.BoolPtr(sig.UsesHTTPS)

	lead.AddEmails(sig.Emails...)
	for _, tech := range sig.TechStack {
		if !containsString(lead.TechStack, tech) {
			lead.TechStack = append(lead.TechStack, tech)
		}
	}

	lead.AddNote(fmt.Sprintf("website inspected: %d emails, %d platforms", len(sig.Emails), len(sig.TechStack)))
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
