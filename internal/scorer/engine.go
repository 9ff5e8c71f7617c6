package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Breakdown itemizes the points awarded per signal for one lead.
type Breakdown struct {
	Components map[string]float64
	Total      float64
}

// Engine scores leads against a weight set.
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w}
}

// Score computes the raw score and its per-signal breakdown. Unknown
// ternary signals (nil pointers) contribute nothing.
func (e *Engine) Score(lead *model.Lead) Breakdown {
	w := e.weights
	b := Breakdown{Components: make(map[string]float64)}

	add := func(name string, pts float64) {
		b.Components[name] = pts
		b.Total += pts
	}

	if lead.Email != "" {
		add("email_found", w.EmailFound)
	}
	if len(lead.Emails) > 1 {
		add("multiple_emails", w.MultipleEmails)
	}
	if lead.Phone != "" {
		add("phone_found", w.PhoneFound)
	}
	if truthy(lead.HasContactForm) {
		add("contact_form", w.ContactForm)
	}

	if lead.Website != "" {
		add("website_present", w.WebsitePresent)
		// HTTPS and platform signals only mean something when a site exists.
		if truthy(lead.UsesHTTPS) {
			add("uses_https", w.UsesHTTPS)
		}
		if len(lead.TechStack) > 0 {
			add("modern_tech", w.ModernTech)
		}
	} else {
		add("no_website_penalty", -w.NoWebsitePenalty)
	}

	if truthy(lead.HasBooking) {
		add("online_booking", w.OnlineBooking)
	}
	if truthy(lead.HasEmergencyService) {
		add("emergency_service", w.EmergencyService)
	}
	if truthy(lead.HasFinancing) {
		add("financing", w.Financing)
	}

	return b
}

// Apply scores the lead and stamps its Score and Tier fields. The stored
// score is clamped to [0, 100] even when the raw total falls outside it.
func (e *Engine) Apply(lead *model.Lead) Breakdown {
	b := e.Score(lead)
	lead.SetScore(b.Total, e.weights.TierAThreshold, e.weights.TierBThreshold)
	zap.L().Debug("scored lead",
		zap.String("business", lead.BusinessName),
		zap.Float64("raw_score", b.Total),
		zap.Float64("score", lead.Score),
		zap.String("tier", lead.Tier),
	)
	return b
}

// ApplyAll re-scores every lead in place.
func (e *Engine) ApplyAll(leads []*model.Lead) {
	for _, lead := range leads {
		e.Apply(lead)
	}
}

func truthy(p *bool) bool {
	return p != nil && *p
}
