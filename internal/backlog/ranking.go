package backlog

import (
	"errors"
	"fmt"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
)

// SaveRanks stores the relative ranking for a factor: stories in ranked order
// get ranks 1..N, stories in noScore get rank 0 ("does not apply"). Stories
// in neither list keep their current rank. Missing score rows are created.
func SaveRanks(gdb *gorm.DB, factorID uint, ranked, noScore []uint) error {
	var factor models.Factor
	if err := gdb.First(&factor, factorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("backlog: factor %d not found", factorID)
		}
		return fmt.Errorf("backlog: load factor %d: %w", factorID, err)
	}
	if factor.Mode != "relative" {
		return fmt.Errorf("backlog: factor %q is not in relative mode", factor.Name)
	}

	seen := make(map[uint]bool, len(ranked)+len(noScore))
	for _, id := range append(append([]uint{}, ranked...), noScore...) {
		if seen[id] {
			return fmt.Errorf("backlog: story %d listed twice in ranking", id)
		}
		seen[id] = true
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		setRank := func(storyID uint, rank int) error {
			score := models.FactorScore{StoryID: storyID, FactorID: factorID}
			if err := tx.Where(models.FactorScore{StoryID: storyID, FactorID: factorID}).
				FirstOrCreate(&score).Error; err != nil {
				return fmt.Errorf("backlog: score row for story %d: %w", storyID, err)
			}
			if err := tx.Model(&score).Update("relative_rank", rank).Error; err != nil {
				return fmt.Errorf("backlog: set rank for story %d: %w", storyID, err)
			}
			return nil
		}
		for i, storyID := range ranked {
			if err := setRank(storyID, i+1); err != nil {
				return err
			}
		}
		for _, storyID := range noScore {
			if err := setRank(storyID, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// RelativeFactors lists factors in relative mode with their sections, for
// the ranking page dropdown.
func RelativeFactors(gdb *gorm.DB) ([]models.Factor, error) {
	var factors []models.Factor
	err := gdb.Preload("Section").Preload("Answers", func(q *gorm.DB) *gorm.DB {
		return q.Order("answers.score ASC")
	}).
		Where("mode = ?", "relative").
		Joins("JOIN sections ON sections.id = factors.section_id").
		Order("sections.name ASC, factors.name ASC").
		Find(&factors).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: relative factors: %w", err)
	}
	return factors, nil
}

// RankedStories returns non-archived stories with their score rows for one
// factor, ordered by rank (unranked last), for the ranking page.
func RankedStories(gdb *gorm.DB, factorID uint) ([]models.FactorScore, error) {
	var rows []models.FactorScore
	err := gdb.Preload("Story").Preload("Answer").
		Joins("JOIN stories ON stories.id = factor_scores.story_id").
		Where("factor_scores.factor_id = ? AND stories.archived = ?", factorID, false).
		Order("factor_scores.relative_rank IS NULL ASC, factor_scores.relative_rank ASC, stories.title ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: ranked stories for factor %d: %w", factorID, err)
	}
	return rows, nil
}
