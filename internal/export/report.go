package export

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// TierCounts tallies leads per tier label.
func TierCounts(leads []*model.Lead) map[string]int {
	counts := make(map[string]int)
	for _, l := range leads {
		counts[l.Tier]++
	}
	return counts
}

// WriteReport writes a human-readable plaintext summary of the run.
func WriteReport(leads []*model.Lead, vertical, region, path string, at time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Lead Generation Report\n")
	fmt.Fprintf(&b, "======================\n\n")
	fmt.Fprintf(&b, "Vertical:  %s\n", vertical)
	fmt.Fprintf(&b, "Region:    %s\n", region)
	fmt.Fprintf(&b, "Generated: %s\n", at.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Leads:     %d\n\n", len(leads))

	counts := TierCounts(leads)
	fmt.Fprintf(&b, "Tier breakdown\n")
	for _, tier := range []string{model.TierA, model.TierB, model.TierC} {
		fmt.Fprintf(&b, "  %s: %d\n", tier, counts[tier])
	}
	b.WriteString("\n")

	sorted := make([]*model.Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	top := sorted
	if len(top) > 10 {
		top = top[:10]
	}
	fmt.Fprintf(&b, "Top leads\n")
	for i, l := range top {
		contact := l.Email
		if contact == "" {
			contact = l.Phone
		}
		if contact == "" {
			contact = "no contact found"
		}
		fmt.Fprintf(&b, "  %2d. [%s %5.1f] %s (%s) %s\n", i+1, l.Tier, l.Score, l.BusinessName, l.City, contact)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "export: write report")
	}
	return nil
}
