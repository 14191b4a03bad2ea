package backlog

import (
	"fmt"

	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"gorm.io/gorm"
)

// Kanban column targets for Move.
const (
	TargetBacklog = "backlog"
	TargetPlanned = "planned"
	TargetDoing   = "doing"
	TargetBlocked = "blocked"
	TargetDone    = "done"
)

// validTargets guards Move against unknown column names.
var validTargets = map[string]bool{
	TargetBacklog: true,
	TargetPlanned: true,
	TargetDoing:   true,
	TargetBlocked: true,
	TargetDone:    true,
}

// Move applies a kanban drag to a story's stage timestamps and blocked
// reason, and records the changes in its history.
//
// Moving to backlog clears every stage timestamp; planned/doing/done stamp
// their timestamp and clear any blocked reason; blocked only sets the reason
// (default "Blocked") and leaves the timestamps as they were.
func Move(gdb *gorm.DB, storyID uint, target, blockedReason string) (*models.Story, error) {
	if !validTargets[target] {
		return nil, fmt.Errorf("backlog: invalid kanban target %q", target)
	}

	story, err := Get(gdb, storyID)
	if err != nil {
		return nil, err
	}

	oldStatus, err := StatusOf(gdb, story)
	if err != nil {
		return nil, err
	}
	oldPlanned, oldStarted, oldFinished, oldBlocked := story.Planned, story.Started, story.Finished, story.Blocked

	switch target {
	case TargetBacklog:
		story.Planned = nil
		story.Started = nil
		story.Finished = nil
		story.Blocked = ""
	case TargetPlanned:
		story.Planned = stamp()
		story.Blocked = ""
	case TargetDoing:
		story.Started = stamp()
		story.Blocked = ""
	case TargetBlocked:
		if blockedReason == "" {
			blockedReason = "Blocked"
		}
		story.Blocked = blockedReason
	case TargetDone:
		story.Finished = stamp()
		story.Blocked = ""
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Story{}).Where("id = ?", story.ID).
			Select("planned", "started", "finished", "blocked").
			Updates(map[string]interface{}{
				"planned":  story.Planned,
				"started":  story.Started,
				"finished": story.Finished,
				"blocked":  story.Blocked,
			}).Error; err != nil {
			return fmt.Errorf("backlog: move story %d: %w", story.ID, err)
		}

		newStatus, err := StatusOf(tx, story)
		if err != nil {
			return err
		}
		if oldStatus != newStatus {
			if err := TrackChange(tx, story.ID, "Status", string(oldStatus), string(newStatus)); err != nil {
				return err
			}
		}
		if err := trackTimeChange(tx, story.ID, "Planned", oldPlanned, story.Planned); err != nil {
			return err
		}
		if err := trackTimeChange(tx, story.ID, "Started", oldStarted, story.Started); err != nil {
			return err
		}
		if err := trackTimeChange(tx, story.ID, "Finished", oldFinished, story.Finished); err != nil {
			return err
		}
		if oldBlocked != story.Blocked {
			return TrackChange(tx, story.ID, "Blocked", oldBlocked, story.Blocked)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// TargetFor maps a derived status to its kanban column, with ok=false for
// idea stories, which are not shown on the board.
func TargetFor(status scoring.Status) (string, bool) {
	switch status {
	case scoring.StatusReady:
		return TargetBacklog, true
	case scoring.StatusPlanned:
		return TargetPlanned, true
	case scoring.StatusStarted:
		return TargetDoing, true
	case scoring.StatusBlocked:
		return TargetBlocked, true
	case scoring.StatusDone:
		return TargetDone, true
	default:
		return "", false
	}
}
