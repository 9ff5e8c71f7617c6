// Package scorer ranks leads by how reachable and sales-ready a business
// looks from its discovered profile and website signals.
package scorer

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights are the per-signal point values. Positive weights add to the
// score when the signal is present; NoWebsitePenalty subtracts.
type Weights struct {
	EmailFound       float64 `yaml:"email_found"`
	MultipleEmails   float64 `yaml:"multiple_emails"`
	PhoneFound       float64 `yaml:"phone_found"`
	ContactForm      float64 `yaml:"contact_form"`
	WebsitePresent   float64 `yaml:"website_present"`
	UsesHTTPS        float64 `yaml:"uses_https"`
	ModernTech       float64 `yaml:"modern_tech"`
	OnlineBooking    float64 `yaml:"online_booking"`
	EmergencyService float64 `yaml:"emergency_service"`
	Financing        float64 `yaml:"financing"`
	NoWebsitePenalty float64 `yaml:"no_website_penalty"`

	TierAThreshold float64 `yaml:"tier_a_threshold"`
	TierBThreshold float64 `yaml:"tier_b_threshold"`
}

// DefaultWeights returns the standard weight set.
func DefaultWeights() Weights {
	return Weights{
		EmailFound:       15,
		MultipleEmails:   5,
		PhoneFound:       10,
		ContactForm:      10,
		WebsitePresent:   10,
		UsesHTTPS:        5,
		ModernTech:       10,
		OnlineBooking:    12,
		EmergencyService: 8,
		Financing:        10,
		NoWebsitePenalty: 15,

		TierAThreshold: 65,
		TierBThreshold: 45,
	}
}

// LoadWeights reads a weight override file in YAML format. Fields absent
// from the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, eris.Wrap(err, "scorer: read weights file")
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, eris.Wrap(err, "scorer: parse weights file")
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

// Validate checks that the weight set is internally consistent.
func (w Weights) Validate() error {
	var errs []string

	signals := map[string]float64{
		"email_found":        w.EmailFound,
		"multiple_emails":    w.MultipleEmails,
		"phone_found":        w.PhoneFound,
		"contact_form":       w.ContactForm,
		"website_present":    w.WebsitePresent,
		"uses_https":         w.UsesHTTPS,
		"modern_tech":        w.ModernTech,
		"online_booking":     w.OnlineBooking,
		"emergency_service":  w.EmergencyService,
		"financing":          w.Financing,
		"no_website_penalty": w.NoWebsitePenalty,
	}
	for name, v := range signals {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if w.TierAThreshold <= w.TierBThreshold {
		errs = append(errs, "tier_a_threshold must be greater than tier_b_threshold")
	}
	if w.TierBThreshold < 0 || w.TierAThreshold > 100 {
		errs = append(errs, "tier thresholds must fall within [0, 100]")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: invalid weights: %v", errs)
	}
	return nil
}
