package scrape

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher is the page-retrieval dependency, satisfied by fetcher.HTTPFetcher.
type Fetcher interface {
	GetWithFinalURL(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Scraper inspects websites for sales signals. Fetched pages are cached
// so re-runs within the TTL do not re-hit the same sites.
type Scraper struct {
	fetch Fetcher
	cache *gocache.Cache
}

type cachedPage struct {
	body     []byte
	finalURL string
}

// NewScraper creates a Scraper. A zero ttl disables page caching.
func NewScraper(f Fetcher, ttl time.Duration) *Scraper {
	var c *gocache.Cache
	if ttl > 0 {
		c = gocache.New(ttl, 2*ttl)
	}
	return &Scraper{fetch: f, cache: c}
}

func (s *Scraper) getPage(ctx context.Context, rawURL string) ([]byte, string, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(rawURL); ok {
			page := v.(cachedPage)
			return page.body, page.finalURL, nil
		}
	}
	body, finalURL, err := s.fetch.GetWithFinalURL(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	if s.cache != nil {
		s.cache.Set(rawURL, cachedPage{body: body, finalURL: finalURL}, gocache.DefaultExpiration)
	}
	return body, finalURL, nil
}

// Inspect fetches the site's homepage, extracts signals from it, and
// follows at most one contact page link for additional emails and forms.
func (s *Scraper) Inspect(ctx context.Context, siteURL string) (*Signals, error) {
	if siteURL == "" {
		return nil, eris.New("scrape: site url is required")
	}

	body, finalURL, err := s.getPage(ctx, siteURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch homepage")
	}

	sig := &Signals{}
	sig.UsesHTTPS = strings.HasPrefix(finalURL, "https://")

	page := parsePage(body)
	s.applyPage(sig, page, string(body))

	if contactURL := resolveContactURL(finalURL, page.contactHref); contactURL != "" {
		sig.ContactPageURL = contactURL
		contactBody, _, err := s.getPage(ctx, contactURL)
		if err != nil {
			// Contact page is best effort; homepage signals stand.
			zap.L().Debug("contact page fetch failed",
				zap.String("url", contactURL),
				zap.Error(err),
			)
		} else {
			s.applyPage(sig, parsePage(contactBody), string(contactBody))
		}
	}

	return sig, nil
}

func (s *Scraper) applyPage(sig *Signals, page *parsedPage, markup string) {
	lowerMarkup := strings.ToLower(markup)
	lowerText := strings.ToLower(page.text)

	sig.HasContactForm = sig.HasContactForm || page.hasForm
	sig.HasBooking = sig.HasBooking || containsAny(lowerText, bookingKeywords) || containsAny(lowerMarkup, bookingKeywords)
	sig.HasEmergencyService = sig.HasEmergencyService || containsAny(lowerText, emergencyKeywords)
	sig.HasFinancing = sig.HasFinancing || containsAny(lowerText, financingKeywords)

	for _, email := range append(extractEmails(page.text), page.mailtos...) {
		if !containsString(sig.Emails, email) {
			sig.Emails = append(sig.Emails, email)
		}
	}
	for _, tech := range detectTech(lowerMarkup) {
		if !containsString(sig.TechStack, tech) {
			sig.TechStack = append(sig.TechStack, tech)
		}
	}
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// parsedPage is the signal-relevant structure of one HTML document.
type parsedPage struct {
	text        string
	hasForm     bool
	mailtos     []string
	contactHref string
}

func parsePage(body []byte) *parsedPage {
	page := &parsedPage{}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// Treat unparseable markup as plain text.
		page.text = string(body)
		return page
	}

	var text strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteByte(' ')
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "form":
				page.hasForm = true
			case "a":
				href := attr(n, "href")
				lowerHref := strings.ToLower(href)
				if strings.HasPrefix(lowerHref, "mailto:") {
					addr := strings.SplitN(href[len("mailto:"):], "?", 2)[0]
					if addr = strings.ToLower(strings.TrimSpace(addr)); addr != "" && !isBogusEmail(addr) {
						page.mailtos = append(page.mailtos, addr)
					}
				} else if page.contactHref == "" && isContactLink(lowerHref, nodeText(n)) {
					page.contactHref = href
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.text = text.String()
	return page
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.ToLower(strings.TrimSpace(b.String()))
}

func isContactLink(href, linkText string) bool {
	return strings.Contains(href, "contact") || strings.Contains(linkText, "contact us") || linkText == "contact"
}

// resolveContactURL turns a contact link into an absolute same-host URL.
// Off-site contact links are ignored.
func resolveContactURL(pageURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host != base.Host {
		return ""
	}
	if resolved.String() == pageURL {
		return ""
	}
	return resolved.String()
}
