package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var excludedDomains = []string{"yelp.com", "google.com"}

func lead(t *testing.T, name string, mutate func(*model.Lead)) *model.Lead {
	t.Helper()
	l, err := model.NewLead(name)
	require.NoError(t, err)
	if mutate != nil {
		mutate(l)
	}
	return l
}

func TestDedup_NamePhoneAcrossSources(t *testing.T) {
	// Same business from two sources: a profile page URL vs the real site.
	a := lead(t, "ABC HVAC", func(l *model.Lead) {
		l.Phone = "905-555-0123"
		l.Website = "yelp.com/biz/abc-hvac"
	})
	b := lead(t, "ABC HVAC", func(l *model.Lead) {
		l.Phone = "(905) 555-0123"
		l.Website = "abchvac.com"
	})

	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(a))
	assert.False(t, d.Add(b), "should collide on name_phone despite different websites")
	assert.Equal(t, 1, d.Duplicates())
}

func TestDedup_SharedDomain(t *testing.T) {
	a := lead(t, "First Co", func(l *model.Lead) { l.Website = "https://www.firstco.example.com/home" })
	b := lead(t, "First Company LLC", func(l *model.Lead) { l.Website = "firstco.example.com" })

	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(a))
	assert.False(t, d.Add(b), "same registrable domain should collide")
}

func TestDedup_ExcludedDomainNeverKeys(t *testing.T) {
	// Two distinct businesses both pointing at the review site must not
	// collide on its domain.
	a := lead(t, "Alpha Roofing", func(l *model.Lead) {
		l.Website = "https://yelp.com/biz/alpha-roofing"
		l.SourceURL = "https://yelp.com/biz/alpha-roofing"
		l.City = "Springfield"
	})
	b := lead(t, "Beta Roofing", func(l *model.Lead) {
		l.Website = "https://yelp.com/biz/beta-roofing"
		l.SourceURL = "https://yelp.com/biz/beta-roofing"
		l.City = "Springfield"
	})

	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(a))
	assert.True(t, d.Add(b))
}

func TestDedup_NameCityFallback(t *testing.T) {
	a := lead(t, "Gamma Electric", func(l *model.Lead) { l.City = "Springfield" })
	b := lead(t, "gamma electric", func(l *model.Lead) { l.City = "SPRINGFIELD" })

	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(a))
	assert.False(t, d.Add(b))
}

func TestDedup_AllIdentifiersRecordedOnFirstSighting(t *testing.T) {
	// First record seen with both domain and phone keys; a later record
	// matching only the phone dimension is still caught.
	a := lead(t, "Delta Plumbing", func(l *model.Lead) {
		l.Website = "deltaplumbing.example.com"
		l.Phone = "217-555-0188"
	})
	b := lead(t, "Delta Plumbing", func(l *model.Lead) {
		l.Phone = "+1 (217) 555-0188"
	})

	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(a))
	assert.False(t, d.Add(b))
}

func TestDedup_ZeroIdentifiersAlwaysKept(t *testing.T) {
	d := NewDeduper(excludedDomains)
	assert.True(t, d.Add(lead(t, "Mystery Business", nil)))
	assert.True(t, d.Add(lead(t, "Mystery Business", nil)), "no usable identifiers, can never collide")
}

func TestDedup_Idempotent(t *testing.T) {
	leads := []*model.Lead{
		lead(t, "ABC HVAC", func(l *model.Lead) { l.Phone = "905-555-0123"; l.Website = "abchvac.example.com" }),
		lead(t, "ABC HVAC", func(l *model.Lead) { l.Phone = "905-555-0123" }),
		lead(t, "Other Co", func(l *model.Lead) { l.City = "Springfield" }),
	}

	d := NewDeduper(excludedDomains)
	var first []*model.Lead
	for _, l := range leads {
		if d.Add(l) {
			first = append(first, l)
		}
	}

	d2 := NewDeduper(excludedDomains)
	var second []*model.Lead
	for _, l := range first {
		if d2.Add(l) {
			second = append(second, l)
		}
	}

	assert.Equal(t, first, second)
	assert.Zero(t, d2.Duplicates())
}

func TestDedup_OrderStability(t *testing.T) {
	a := lead(t, "Kept First", func(l *model.Lead) { l.Phone = "217-555-0100" })
	b := lead(t, "kept first", func(l *model.Lead) { l.Phone = "217-555-0100"; l.Website = "keptfirst.example.com" })

	d := NewDeduper(excludedDomains)
	var out []*model.Lead
	for _, l := range []*model.Lead{a, b} {
		if d.Add(l) {
			out = append(out, l)
		}
	}
	require.Len(t, out, 1)
	assert.Same(t, a, out[0])
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "abchvac.com", registrableDomain("https://www.abchvac.com/about"))
	assert.Equal(t, "abchvac.com", registrableDomain("abchvac.com"))
	assert.Empty(t, registrableDomain(""))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "9055550123", normalizePhone("+1 (905) 555-0123"))
	assert.Equal(t, "9055550123", normalizePhone("905-555-0123"))
	assert.Empty(t, normalizePhone("ext only"))
}
