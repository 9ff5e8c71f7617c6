// Package scrape inspects business websites for sales signals: contact
// channels, online booking, service keywords, and platform fingerprints.
package scrape

import (
	"regexp"
	"sort"
	"strings"
)

// Signals is everything Inspect learns from one website.
type Signals struct {
	UsesHTTPS           bool
	HasContactForm      bool
	HasBooking          bool
	HasEmergencyService bool
	HasFinancing        bool
	Emails              []string
	TechStack           []string
	ContactPageURL      string
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Asset filenames match the email pattern (logo@2x.png), so extracted
// candidates are filtered by suffix.
var bogusEmailSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

var bookingKeywords = []string{
	"book online", "book now", "schedule online", "schedule now",
	"request appointment", "book an appointment", "schedule service",
	"calendly", "housecall pro", "servicetitan",
}

var emergencyKeywords = []string{
	"24/7", "24 hours", "emergency service", "emergency repair",
	"same day service", "same-day service", "after hours",
}

var financingKeywords = []string{
	"financing", "finance options", "payment plans", "0% apr",
	"affirm", "greensky", "synchrony",
}

// techFingerprints maps substrings found in markup or asset URLs to the
// platform they identify.
var techFingerprints = map[string]string{
	"wp-content":       "WordPress",
	"wp-includes":      "WordPress",
	"wix.com":          "Wix",
	"parastorage.com":  "Wix",
	"squarespace.com":  "Squarespace",
	"squarespace-cdn":  "Squarespace",
	"cdn.shopify.com":  "Shopify",
	"webflow.com":      "Webflow",
	"godaddysites.com": "GoDaddy Website Builder",
	"weebly.com":       "Weebly",
	"duda.co":          "Duda",
	"dudaone":          "Duda",
}

func extractEmails(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(raw)
		if isBogusEmail(email) || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

func isBogusEmail(email string) bool {
	for _, suffix := range bogusEmailSuffixes {
		if strings.HasSuffix(email, suffix) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func detectTech(markup string) []string {
	seen := make(map[string]bool)
	var out []string
	for fingerprint, name := range techFingerprints {
		if strings.Contains(markup, fingerprint) && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	// Map iteration order is random; keep output stable.
	sort.Strings(out)
	return out
}
