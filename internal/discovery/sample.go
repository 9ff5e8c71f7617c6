package discovery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var sampleNameParts = []string{
	"Summit", "Pioneer", "Capital", "Prairie", "Lakeside", "Heritage",
	"Allied", "Premier", "Cornerstone", "Redline", "Evergreen", "Metro",
}

// SampleSource generates synthetic leads so the pipeline always has data
// to exercise downstream stages when live providers are unconfigured or
// out of quota. Generation is seedable for reproducible tests.
type SampleSource struct {
	rng *rand.Rand
}

// NewSampleSource creates a SampleSource with the given seed.
func NewSampleSource(seed uint64) *SampleSource {
	return &SampleSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b9))}
}

func (s *SampleSource) Name() string     { return MethodSample }
func (s *SampleSource) Provider() string { return "" }

func (s *SampleSource) FetchLeads(_ context.Context, query Query) []*model.Lead {
	city := query.Region
	if i := strings.IndexByte(city, ','); i >= 0 {
		city = city[:i]
	}
	vertical := titleCase(query.Vertical)

	leads := make([]*model.Lead, 0, query.MaxResults)
	for i := 0; i < query.MaxResults; i++ {
		name := fmt.Sprintf("%s %s", sampleNameParts[i%len(sampleNameParts)], vertical)
		if i >= len(sampleNameParts) {
			name = fmt.Sprintf("%s #%d", name, i/len(sampleNameParts)+1)
		}
		lead, err := model.NewLead(name)
		if err != nil {
			continue
		}
		lead.DiscoveryMethod = MethodSample
		lead.City = strings.TrimSpace(city)
		lead.Region = query.Region
		lead.Phone = fmt.Sprintf("(217) 555-%04d", s.rng.IntN(10000))
		// Roughly a third of small local businesses have no website.
		if s.rng.IntN(3) > 0 {
			domain := strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example.com"
			lead.Website = "https://" + domain
		}
		lead.SourceURL = fmt.Sprintf("sample://lead/%d", i)
		if r := 3.0 + s.rng.Float64()*2; r > 0 {
			rr := float64(int(r*10)) / 10
			lead.Rating = &rr
		}
		lead.AddNote("synthetic sample lead")
		leads = append(leads, lead)
	}

	zap.L().Info("sample discovery complete", zap.Int("leads", len(leads)))
	return leads
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
