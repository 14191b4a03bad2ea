package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/scoring"
	"gorm.io/gorm"
)

// Digest is a point-in-time backlog summary: story counts per status and the
// top stories by WSJF result.
type Digest struct {
	GeneratedAt time.Time
	Counts      map[scoring.Status]int
	Top         []backlog.StoryReport
}

// BuildDigest assembles a digest over the full non-archived backlog.
func BuildDigest(gdb *gorm.DB, top int) (*Digest, error) {
	reports, _, err := backlog.Reports(gdb, backlog.ReportOpts{SortByResult: true})
	if err != nil {
		return nil, fmt.Errorf("notify: build digest: %w", err)
	}

	d := &Digest{
		GeneratedAt: time.Now(),
		Counts:      make(map[scoring.Status]int),
	}
	for _, r := range reports {
		d.Counts[r.Status]++
	}
	if top < 0 {
		top = 0
	}
	if top > len(reports) {
		top = len(reports)
	}
	d.Top = reports[:top]
	return d, nil
}

// Text renders the digest as plain lines, shared by all adapters.
func (d *Digest) Text() string {
	var b strings.Builder
	b.WriteString("Backlog digest\n")

	var parts []string
	for _, s := range scoring.AllStatuses {
		if n := d.Counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", s, n))
		}
	}
	if len(parts) == 0 {
		b.WriteString("No stories yet.\n")
		return b.String()
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n")

	if len(d.Top) > 0 {
		b.WriteString("Top by WSJF:\n")
		for i, r := range d.Top {
			result := "—"
			if r.Report.Result != nil {
				result = fmt.Sprintf("%.2f", *r.Report.Result)
			}
			fmt.Fprintf(&b, "%d. %s (%s) — %s\n", i+1, r.Story.Title, r.Status, result)
		}
	}
	return b.String()
}
