// Package notify pushes backlog events to chat platforms (Slack, Discord).
// Delivery is best-effort: the backlog never fails because a webhook did.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/askelund/storyrank/internal/scoring"
)

// Event is a story status transition worth announcing.
type Event struct {
	StoryID uint
	Title   string
	Epic    string
	From    scoring.Status
	To      scoring.Status
	Reason  string   // blocked reason, when To is blocked
	Result  *float64 // WSJF result at the time of the move, when computable
}

// Headline is the one-line summary used as the message title.
func (e Event) Headline() string {
	return fmt.Sprintf("%s moved to %s", e.Title, e.To)
}

// Body renders the detail lines under the headline.
func (e Event) Body() string {
	s := fmt.Sprintf("Epic: %s\nStatus: %s → %s", e.Epic, e.From, e.To)
	if e.Reason != "" {
		s += "\nReason: " + e.Reason
	}
	if e.Result != nil {
		s += fmt.Sprintf("\nWSJF: %.2f", *e.Result)
	}
	return s
}

// Severity classifies the transition for color hints.
func (e Event) Severity() string {
	switch e.To {
	case scoring.StatusBlocked:
		return "warning"
	case scoring.StatusDone:
		return "success"
	default:
		return "info"
	}
}

// Color returns the sidebar color for the event's severity.
func (e Event) Color() string {
	switch e.Severity() {
	case "warning":
		return "#e8a317"
	case "success":
		return "#36a64f"
	default:
		return "#439fe0"
	}
}

// Notifier is implemented by platform adapters.
type Notifier interface {
	// Send announces a status transition.
	Send(ctx context.Context, ev Event) error

	// SendDigest posts a periodic backlog summary.
	SendDigest(ctx context.Context, d *Digest) error

	// Close releases the platform connection.
	Close() error
}

// Announce fans an event out to all notifiers. Errors are logged, not
// returned: a failed notification must never roll back a kanban move.
func Announce(ctx context.Context, notifiers []Notifier, ev Event) {
	for _, n := range notifiers {
		if err := n.Send(ctx, ev); err != nil {
			log.Printf("notify: send %q: %v", ev.Headline(), err)
		}
	}
}

// CloseAll closes every notifier, logging failures.
func CloseAll(notifiers []Notifier) {
	for _, n := range notifiers {
		if err := n.Close(); err != nil {
			log.Printf("notify: close: %v", err)
		}
	}
}
