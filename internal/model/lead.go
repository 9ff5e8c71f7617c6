// Package model defines the core data structures shared across the pipeline.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Tier labels assigned by the scorer. Tier is always derived from Score,
// never set independently.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// Lead represents one candidate business contact accumulated across
// pipeline stages. Fields are only ever added to; notes are append-only so
// a human can audit how the record was built.
type Lead struct {
	// Bookkeeping. ID is opaque and never used for deduplication.
	ID        string    `json:"id"`
	ScrapedAt time.Time `json:"scraped_at"`

	// Provenance.
	DiscoveryMethod string `json:"discovery_method,omitempty"`
	SourceURL       string `json:"source_url,omitempty"`

	// Core business information.
	BusinessName string `json:"business_name"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	Website      string `json:"website,omitempty"`
	Phone        string `json:"phone,omitempty"`

	// Email findings. Email is the first-found primary candidate; Emails is
	// a duplicate-free set preserving first-found order.
	Email           string   `json:"email,omitempty"`
	Emails          []string `json:"emails,omitempty"`
	EmailConfidence int      `json:"email_confidence,omitempty"`
	EmailsVerified  bool     `json:"emails_verified,omitempty"`

	// Enrichment flags. nil means not-yet-checked, never defaulted to false.
	HasContactForm      *bool `json:"has_contact_form,omitempty"`
	HasBooking          *bool `json:"has_booking,omitempty"`
	HasEmergencyService *bool `json:"has_emergency_service,omitempty"`
	HasFinancing        *bool `json:"has_financing,omitempty"`
	UsesHTTPS           *bool `json:"uses_https,omitempty"`

	TechStack []string `json:"tech_stack,omitempty"`

	// Discovery provider metrics.
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	PriceLevel  string   `json:"price_level,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	PlaceID     string   `json:"place_id,omitempty"`

	// Deep research findings (tier-gated).
	ResearchVerified bool     `json:"research_verified,omitempty"`
	ReputationScore  int      `json:"reputation_score,omitempty"`
	RecentActivity   bool     `json:"recent_activity,omitempty"`
	SourcesFound     int      `json:"sources_found,omitempty"`
	ReviewSites      []string `json:"review_sites,omitempty"`
	NegativeFlags    []string `json:"negative_flags,omitempty"`

	// Derived by the scorer.
	Score float64 `json:"score"`
	Tier  string  `json:"tier,omitempty"`

	// Append-only processing annotations.
	Notes []string `json:"notes,omitempty"`
}

// NewLead constructs a Lead with a generated ID. An empty business name is a
// contract violation and escalates to the caller.
func NewLead(businessName string) (*Lead, error) {
	name := strings.TrimSpace(businessName)
	if name == "" {
		return nil, eris.New("model: lead requires a non-empty business name")
	}
	return &Lead{
		ID:           uuid.New().String(),
		ScrapedAt:    time.Now().UTC(),
		BusinessName: name,
	}, nil
}

// AddNote appends a processing annotation. Notes are never overwritten.
func (l *Lead) AddNote(note string) {
	l.Notes = append(l.Notes, note)
}

// AddEmails unions new addresses into the email set, preserving first-found
// order. The primary email is only set if none was previously recorded.
func (l *Lead) AddEmails(emails ...string) {
	for _, e := range emails {
		e = strings.TrimSpace(strings.ToLower(e))
		if e == "" {
			continue
		}
		if l.hasEmail(e) {
			continue
		}
		l.Emails = append(l.Emails, e)
		if l.Email == "" {
			l.Email = e
		}
	}
}

func (l *Lead) hasEmail(email string) bool {
	for _, e := range l.Emails {
		if e == email {
			return true
		}
	}
	return false
}

// SetScore clamps score into [0,100] and derives the tier label.
func (l *Lead) SetScore(score float64, tierAThreshold, tierBThreshold float64) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	l.Score = score
	switch {
	case score >= tierAThreshold:
		l.Tier = TierA
	case score >= tierBThreshold:
		l.Tier = TierB
	default:
		l.Tier = TierC
	}
}

// BoolPtr returns a pointer to b, for populating ternary flags.
func BoolPtr(b bool) *bool { return &b }
