package backlog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
)

// EpicSummary is one row on the epics overview: the epic plus story counts
// used for the archive confirmation.
type EpicSummary struct {
	Epic            models.Epic
	StoryCount      int64
	UnfinishedCount int64
}

// Epics lists epics with their story counts, ordered by title. Archived and
// active epics are separate views, matching the overview's archived toggle.
func Epics(gdb *gorm.DB, archived bool) ([]EpicSummary, error) {
	var epics []models.Epic
	err := gdb.Where("archived = ?", archived).Order("title").Find(&epics).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: list epics: %w", err)
	}

	out := make([]EpicSummary, 0, len(epics))
	for _, epic := range epics {
		row := EpicSummary{Epic: epic}
		err := gdb.Model(&models.Story{}).
			Where("epic_id = ?", epic.ID).
			Count(&row.StoryCount).Error
		if err != nil {
			return nil, fmt.Errorf("backlog: count stories for epic %d: %w", epic.ID, err)
		}
		err = gdb.Model(&models.Story{}).
			Where("epic_id = ? AND archived = ? AND finished IS NULL", epic.ID, false).
			Count(&row.UnfinishedCount).Error
		if err != nil {
			return nil, fmt.Errorf("backlog: count unfinished for epic %d: %w", epic.ID, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// ActiveEpics lists non-archived epics for filter dropdowns and story forms.
func ActiveEpics(gdb *gorm.DB) ([]models.Epic, error) {
	var epics []models.Epic
	err := gdb.Where("archived = ?", false).Order("title").Find(&epics).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: list active epics: %w", err)
	}
	return epics, nil
}

// CreateEpic creates an epic. The title is required.
func CreateEpic(gdb *gorm.DB, title, description string) (*models.Epic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("backlog: epic title is required")
	}
	epic := models.Epic{Title: title, Description: strings.TrimSpace(description)}
	if err := gdb.Create(&epic).Error; err != nil {
		return nil, fmt.Errorf("backlog: create epic: %w", err)
	}
	return &epic, nil
}

// UpdateEpic changes an epic's title and description.
func UpdateEpic(gdb *gorm.DB, id uint, title, description string) (*models.Epic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("backlog: epic title is required")
	}
	epic, err := GetEpic(gdb, id)
	if err != nil {
		return nil, err
	}
	epic.Title = title
	epic.Description = strings.TrimSpace(description)
	if err := gdb.Save(epic).Error; err != nil {
		return nil, fmt.Errorf("backlog: update epic %d: %w", id, err)
	}
	return epic, nil
}

// GetEpic loads one epic.
func GetEpic(gdb *gorm.DB, id uint) (*models.Epic, error) {
	var epic models.Epic
	if err := gdb.First(&epic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("backlog: epic %d not found", id)
		}
		return nil, fmt.Errorf("backlog: load epic %d: %w", id, err)
	}
	return &epic, nil
}

// ArchiveEpic archives an epic and cascades to its stories.
func ArchiveEpic(gdb *gorm.DB, id uint) error {
	if _, err := GetEpic(gdb, id); err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Epic{}).Where("id = ?", id).
			Update("archived", true).Error; err != nil {
			return fmt.Errorf("backlog: archive epic %d: %w", id, err)
		}
		if err := tx.Model(&models.Story{}).Where("epic_id = ?", id).
			Update("archived", true).Error; err != nil {
			return fmt.Errorf("backlog: archive stories of epic %d: %w", id, err)
		}
		return nil
	})
}

// UnarchiveEpic restores an epic. Its stories stay archived; they are
// unarchived one by one on their refine pages.
func UnarchiveEpic(gdb *gorm.DB, id uint) error {
	if _, err := GetEpic(gdb, id); err != nil {
		return err
	}
	err := gdb.Model(&models.Epic{}).Where("id = ?", id).
		Update("archived", false).Error
	if err != nil {
		return fmt.Errorf("backlog: unarchive epic %d: %w", id, err)
	}
	return nil
}

// DeleteEpic removes an epic and everything under it: stories, their score
// rows, dependencies, and history.
func DeleteEpic(gdb *gorm.DB, id uint) error {
	if _, err := GetEpic(gdb, id); err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		var storyIDs []uint
		if err := tx.Model(&models.Story{}).Where("epic_id = ?", id).
			Pluck("id", &storyIDs).Error; err != nil {
			return fmt.Errorf("backlog: stories of epic %d: %w", id, err)
		}
		if len(storyIDs) > 0 {
			if err := tx.Where("story_id IN ?", storyIDs).Delete(&models.FactorScore{}).Error; err != nil {
				return fmt.Errorf("backlog: delete scores of epic %d: %w", id, err)
			}
			if err := tx.Where("story_id IN ? OR depends_on_id IN ?", storyIDs, storyIDs).
				Delete(&models.StoryDependency{}).Error; err != nil {
				return fmt.Errorf("backlog: delete dependencies of epic %d: %w", id, err)
			}
			if err := tx.Where("story_id IN ?", storyIDs).Delete(&models.StoryHistory{}).Error; err != nil {
				return fmt.Errorf("backlog: delete history of epic %d: %w", id, err)
			}
			if err := tx.Exec("DELETE FROM story_labels WHERE story_id IN ?", storyIDs).Error; err != nil {
				return fmt.Errorf("backlog: delete label links of epic %d: %w", id, err)
			}
			if err := tx.Where("epic_id = ?", id).Delete(&models.Story{}).Error; err != nil {
				return fmt.Errorf("backlog: delete stories of epic %d: %w", id, err)
			}
		}
		if err := tx.Delete(&models.Epic{}, id).Error; err != nil {
			return fmt.Errorf("backlog: delete epic %d: %w", id, err)
		}
		return nil
	})
}
