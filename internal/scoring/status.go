package scoring

import (
	"strings"
	"time"
)

// Status is a story's derived workflow stage.
type Status string

const (
	StatusIdea    Status = "idea"
	StatusReady   Status = "ready"
	StatusPlanned Status = "planned"
	StatusStarted Status = "started"
	StatusBlocked Status = "blocked"
	StatusDone    Status = "done"
)

// StatusOrder ranks statuses by workflow progression, for sorting.
var StatusOrder = map[Status]int{
	StatusIdea:    0,
	StatusReady:   1,
	StatusPlanned: 2,
	StatusStarted: 3,
	StatusBlocked: 4,
	StatusDone:    5,
}

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusIdea, StatusReady, StatusPlanned, StatusStarted, StatusBlocked, StatusDone,
}

// StatusInput carries the story fields the deriver looks at. Timestamps are
// judged on presence only; keeping them monotonic is the caller's job.
type StatusInput struct {
	Planned  *time.Time
	Started  *time.Time
	Finished *time.Time

	BlockedReason string

	HasGoal      bool
	HasWorkitems bool

	// HasUndefinedScore is true when any factor score for the story is
	// still undefined (answer nil for absolute factors, rank nil for
	// relative ones).
	HasUndefinedScore bool
}

// DeriveStatus maps a story's stored dates and flags to its workflow status.
// Checks run in fixed priority order; the first match wins:
// done > blocked > started > planned > ready > idea.
func DeriveStatus(in StatusInput) Status {
	switch {
	case in.Finished != nil:
		return StatusDone
	case strings.TrimSpace(in.BlockedReason) != "":
		return StatusBlocked
	case in.Started != nil:
		return StatusStarted
	case in.Planned != nil:
		return StatusPlanned
	case in.HasGoal && in.HasWorkitems && !in.HasUndefinedScore:
		return StatusReady
	default:
		return StatusIdea
	}
}
