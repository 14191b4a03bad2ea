// Package backlog provides story lifecycle operations over the database.
package backlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new story.
type CreateOpts struct {
	EpicID    uint
	EpicTitle string // used to find or create an epic when EpicID is 0
	Title     string
	Goal      string
	Workitems string
	LabelIDs  []uint
}

// UpdateOpts holds the editable story fields for the refine flow. Nil fields
// are left untouched.
type UpdateOpts struct {
	Title          *string
	EpicID         *uint
	Goal           *string
	Workitems      *string
	Blocked        *string
	ReviewRequired *bool
	Archived       *bool
}

// ListFilters holds optional filters for listing stories.
type ListFilters struct {
	EpicID          uint
	LabelIDs        []uint
	IncludeArchived bool
}

// Create creates a story and its undefined score rows, one per factor, so
// "not yet scored" is recorded explicitly from day one.
func Create(gdb *gorm.DB, opts CreateOpts) (*models.Story, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, fmt.Errorf("backlog: title is required")
	}

	epicID := opts.EpicID
	if epicID == 0 {
		if strings.TrimSpace(opts.EpicTitle) == "" {
			return nil, fmt.Errorf("backlog: epic is required")
		}
		epic := models.Epic{Title: opts.EpicTitle}
		if err := gdb.Where(models.Epic{Title: opts.EpicTitle}).FirstOrCreate(&epic).Error; err != nil {
			return nil, fmt.Errorf("backlog: find or create epic %q: %w", opts.EpicTitle, err)
		}
		epicID = epic.ID
	} else {
		var epic models.Epic
		if err := gdb.First(&epic, epicID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("backlog: epic %d not found", epicID)
			}
			return nil, fmt.Errorf("backlog: load epic %d: %w", epicID, err)
		}
	}

	story := models.Story{
		EpicID:    epicID,
		Title:     strings.TrimSpace(opts.Title),
		Goal:      strings.TrimSpace(opts.Goal),
		Workitems: opts.Workitems,
	}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&story).Error; err != nil {
			return fmt.Errorf("backlog: create story: %w", err)
		}
		if len(opts.LabelIDs) > 0 {
			var labels []models.Label
			if err := tx.Find(&labels, opts.LabelIDs).Error; err != nil {
				return fmt.Errorf("backlog: load labels: %w", err)
			}
			if err := tx.Model(&story).Association("Labels").Append(&labels); err != nil {
				return fmt.Errorf("backlog: attach labels: %w", err)
			}
		}
		return EnsureScoreRows(tx, story.ID)
	})
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// Get loads a story with its epic, labels, scores, and dependencies.
func Get(gdb *gorm.DB, id uint) (*models.Story, error) {
	var story models.Story
	err := gdb.
		Preload("Epic").
		Preload("Labels.Category").
		Preload("Scores.Answer").
		Preload("Dependencies.DependsOn").
		First(&story, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("backlog: story %d not found", id)
		}
		return nil, fmt.Errorf("backlog: load story %d: %w", id, err)
	}
	return &story, nil
}

// Update applies the given field changes and records one history entry per
// changed field.
func Update(gdb *gorm.DB, id uint, opts UpdateOpts) (*models.Story, error) {
	story, err := Get(gdb, id)
	if err != nil {
		return nil, err
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		apply := func(field, old, val string, set func()) error {
			if old == val {
				return nil
			}
			set()
			return TrackChange(tx, story.ID, field, old, val)
		}
		if opts.Title != nil {
			if strings.TrimSpace(*opts.Title) == "" {
				return fmt.Errorf("backlog: title cannot be empty")
			}
			if err := apply("Title", story.Title, *opts.Title, func() { story.Title = *opts.Title }); err != nil {
				return err
			}
		}
		if opts.EpicID != nil && *opts.EpicID != story.EpicID {
			var epic models.Epic
			if err := tx.First(&epic, *opts.EpicID).Error; err != nil {
				return fmt.Errorf("backlog: epic %d not found", *opts.EpicID)
			}
			if err := apply("Epic", story.Epic.Title, epic.Title, func() { story.EpicID = epic.ID }); err != nil {
				return err
			}
		}
		if opts.Goal != nil {
			if err := apply("Goal", story.Goal, *opts.Goal, func() { story.Goal = *opts.Goal }); err != nil {
				return err
			}
		}
		if opts.Workitems != nil {
			if err := apply("Workitems", story.Workitems, *opts.Workitems, func() { story.Workitems = *opts.Workitems }); err != nil {
				return err
			}
		}
		if opts.Blocked != nil {
			if err := apply("Blocked", story.Blocked, *opts.Blocked, func() { story.Blocked = *opts.Blocked }); err != nil {
				return err
			}
		}
		if opts.ReviewRequired != nil && *opts.ReviewRequired != story.ReviewRequired {
			if err := apply("Review required", fmt.Sprint(story.ReviewRequired), fmt.Sprint(*opts.ReviewRequired),
				func() { story.ReviewRequired = *opts.ReviewRequired }); err != nil {
				return err
			}
		}
		if opts.Archived != nil && *opts.Archived != story.Archived {
			if err := apply("Archived", fmt.Sprint(story.Archived), fmt.Sprint(*opts.Archived),
				func() { story.Archived = *opts.Archived }); err != nil {
				return err
			}
		}
		if err := tx.Omit("Labels", "Scores", "Dependencies", "History").Save(story).Error; err != nil {
			return fmt.Errorf("backlog: save story %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// List returns non-archived stories matching the filters, ordered by epic
// then title. Label filtering uses AND logic: a story must carry every
// selected label.
func List(gdb *gorm.DB, f ListFilters) ([]models.Story, error) {
	q := gdb.Model(&models.Story{}).
		Joins("JOIN epics ON epics.id = stories.epic_id").
		Preload("Epic").
		Preload("Labels.Category").
		Preload("Scores.Answer").
		Order("epics.title ASC, stories.title ASC")
	if !f.IncludeArchived {
		q = q.Where("stories.archived = ?", false)
	}
	if f.EpicID != 0 {
		q = q.Where("stories.epic_id = ?", f.EpicID)
	}
	for _, labelID := range f.LabelIDs {
		q = q.Where("stories.id IN (SELECT story_id FROM story_labels WHERE label_id = ?)", labelID)
	}

	var stories []models.Story
	if err := q.Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("backlog: list stories: %w", err)
	}
	return stories, nil
}

// SetAnswer records a story's answer for a factor. answerID nil resets the
// score to undefined. The answer must belong to the factor.
func SetAnswer(gdb *gorm.DB, storyID, factorID uint, answerID *uint) error {
	if answerID != nil {
		var answer models.Answer
		if err := gdb.First(&answer, *answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("backlog: answer %d not found", *answerID)
			}
			return fmt.Errorf("backlog: load answer %d: %w", *answerID, err)
		}
		if answer.FactorID != factorID {
			return fmt.Errorf("backlog: answer %d does not belong to factor %d", *answerID, factorID)
		}
	}

	var score models.FactorScore
	err := gdb.Where(models.FactorScore{StoryID: storyID, FactorID: factorID}).
		FirstOrCreate(&score).Error
	if err != nil {
		return fmt.Errorf("backlog: score row for story %d factor %d: %w", storyID, factorID, err)
	}
	if err := gdb.Model(&score).Update("answer_id", answerID).Error; err != nil {
		return fmt.Errorf("backlog: set answer: %w", err)
	}
	return nil
}

// EnsureScoreRows creates an undefined FactorScore for every factor the story
// does not have a row for yet.
func EnsureScoreRows(gdb *gorm.DB, storyID uint) error {
	var factors []models.Factor
	if err := gdb.Find(&factors).Error; err != nil {
		return fmt.Errorf("backlog: load factors: %w", err)
	}
	for _, f := range factors {
		score := models.FactorScore{StoryID: storyID, FactorID: f.ID}
		if err := gdb.Where(models.FactorScore{StoryID: storyID, FactorID: f.ID}).
			FirstOrCreate(&score).Error; err != nil {
			return fmt.Errorf("backlog: ensure score row for factor %d: %w", f.ID, err)
		}
	}
	return nil
}

// AddDependency records that story depends on dependsOn.
func AddDependency(gdb *gorm.DB, storyID, dependsOnID uint) error {
	if storyID == dependsOnID {
		return fmt.Errorf("backlog: a story cannot depend on itself")
	}
	var dep models.Story
	if err := gdb.First(&dep, dependsOnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("backlog: story %d not found", dependsOnID)
		}
		return fmt.Errorf("backlog: load story %d: %w", dependsOnID, err)
	}
	row := models.StoryDependency{StoryID: storyID, DependsOnID: dependsOnID}
	if err := gdb.Where(row).FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("backlog: add dependency: %w", err)
	}
	return TrackChange(gdb, storyID, "Dependency added", "", dep.Title)
}

// RemoveDependency deletes the dependency link if present.
func RemoveDependency(gdb *gorm.DB, storyID, dependsOnID uint) error {
	var dep models.Story
	if err := gdb.First(&dep, dependsOnID).Error; err == nil {
		if err := TrackChange(gdb, storyID, "Dependency removed", dep.Title, ""); err != nil {
			return err
		}
	}
	res := gdb.Where("story_id = ? AND depends_on_id = ?", storyID, dependsOnID).
		Delete(&models.StoryDependency{})
	if res.Error != nil {
		return fmt.Errorf("backlog: remove dependency: %w", res.Error)
	}
	return nil
}

// stamp returns the current time as a pointer for stage timestamps.
func stamp() *time.Time {
	now := time.Now()
	return &now
}
