package backlog

import (
	"fmt"
	"time"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
)

// TrackChange records a story field change. Empty strings are stored as
// NULL so the history distinguishes "cleared" from "set to empty".
// No-op when old and new are equal.
func TrackChange(gdb *gorm.DB, storyID uint, field, oldValue, newValue string) error {
	if oldValue == newValue {
		return nil
	}
	entry := models.StoryHistory{
		StoryID:   storyID,
		Field:     field,
		OldValue:  nullable(oldValue),
		NewValue:  nullable(newValue),
		ChangedAt: time.Now(),
	}
	if err := gdb.Create(&entry).Error; err != nil {
		return fmt.Errorf("backlog: track %s change for story %d: %w", field, storyID, err)
	}
	return nil
}

// History returns a story's audit trail, newest first.
func History(gdb *gorm.DB, storyID uint) ([]models.StoryHistory, error) {
	var entries []models.StoryHistory
	if err := gdb.Where("story_id = ?", storyID).
		Order("changed_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("backlog: history for story %d: %w", storyID, err)
	}
	return entries, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// trackTimeChange records a timestamp change formatted as 2006-01-02 15:04.
func trackTimeChange(gdb *gorm.DB, storyID uint, field string, old, new *time.Time) error {
	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	}
	return TrackChange(gdb, storyID, field, format(old), format(new))
}
