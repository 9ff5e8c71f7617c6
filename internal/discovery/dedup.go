package discovery

import (
	"net/url"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Deduper detects duplicate leads across sources using a flat seen-set of
// candidate identifiers. The first-seen lead wins; later collisions are
// discarded, not merged.
type Deduper struct {
	seen       map[string]bool
	excluded   map[string]bool
	duplicates int
}

// NewDeduper creates a Deduper. excludedDomains are shared profile
// aggregator domains (review sites) that every record from a provider
// points at; they are never usable as dedup keys.
func NewDeduper(excludedDomains []string) *Deduper {
	excluded := make(map[string]bool, len(excludedDomains))
	for _, d := range excludedDomains {
		excluded[strings.ToLower(d)] = true
	}
	return &Deduper{
		seen:     make(map[string]bool),
		excluded: excluded,
	}
}

// Add reports whether the lead is new. On first sighting every candidate
// identifier is recorded, so a later record colliding on a different key
// dimension is still caught. A lead with zero usable identifiers can
// never be detected as a duplicate and is always kept.
func (d *Deduper) Add(lead *model.Lead) bool {
	ids := d.identifiers(lead)
	for _, id := range ids {
		if d.seen[id] {
			d.duplicates++
			return false
		}
	}
	for _, id := range ids {
		d.seen[id] = true
	}
	return true
}

// Duplicates returns how many leads Add has rejected.
func (d *Deduper) Duplicates() int {
	return d.duplicates
}

func (d *Deduper) identifiers(lead *model.Lead) []string {
	var ids []string

	if domain := registrableDomain(lead.Website); domain != "" && !d.excluded[domain] {
		ids = append(ids, "domain:"+domain)
	}

	name := strings.ToLower(strings.TrimSpace(lead.BusinessName))
	if phone := normalizePhone(lead.Phone); name != "" && phone != "" {
		ids = append(ids, "name_phone:"+name+":"+phone)
	} else if city := strings.ToLower(strings.TrimSpace(lead.City)); name != "" && city != "" {
		ids = append(ids, "name_city:"+name+":"+city)
	}

	if domain := registrableDomain(lead.SourceURL); lead.SourceURL != "" && domain != "" && !d.excluded[domain] {
		ids = append(ids, "url:"+lead.SourceURL)
	}

	return ids
}

// registrableDomain extracts the lowercased host of a URL, with any
// leading www stripped. Bare domains without a scheme are accepted.
func registrableDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	s := strings.TrimSpace(strings.ToLower(rawURL))
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// normalizePhone reduces a phone string to its trailing 10 digits so
// formatting and country-code differences do not defeat matching.
func normalizePhone(phone string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}
