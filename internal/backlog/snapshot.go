package backlog

import (
	"fmt"

	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"gorm.io/gorm"
)

// LoadSections loads the full scoring configuration as an immutable snapshot
// for the scoring core: sections ordered by name, factors by name, answers by
// score.
func LoadSections(gdb *gorm.DB) ([]scoring.Section, error) {
	var sections []models.Section
	err := gdb.
		Preload("Factors", func(q *gorm.DB) *gorm.DB { return q.Order("factors.name ASC") }).
		Preload("Factors.Answers", func(q *gorm.DB) *gorm.DB { return q.Order("answers.score ASC") }).
		Order("name ASC").
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: load sections: %w", err)
	}

	out := make([]scoring.Section, 0, len(sections))
	for _, s := range sections {
		sec := scoring.Section{ID: s.ID, Name: s.Name, Kind: scoring.Kind(s.Kind)}
		for _, f := range s.Factors {
			factor := scoring.Factor{
				ID:          f.ID,
				Name:        f.Name,
				Description: f.Description,
				Mode:        scoring.Mode(f.Mode),
			}
			for _, a := range f.Answers {
				factor.Answers = append(factor.Answers, scoring.Answer{
					ID: a.ID, Score: a.Score, Description: a.Description,
				})
			}
			sec.Factors = append(sec.Factors, factor)
		}
		out = append(out, sec)
	}
	return out, nil
}

// ScoreRows converts a story's preloaded score rows to scoring inputs.
func ScoreRows(story *models.Story) []scoring.FactorScore {
	out := make([]scoring.FactorScore, 0, len(story.Scores))
	for _, fs := range story.Scores {
		row := scoring.FactorScore{FactorID: fs.FactorID, Rank: fs.Rank}
		if fs.Answer != nil {
			row.Answer = &scoring.Answer{
				ID:          fs.Answer.ID,
				Score:       fs.Answer.Score,
				Description: fs.Answer.Description,
			}
		}
		out = append(out, row)
	}
	return out
}

// RankedCounts returns, per factor, how many of the given stories hold a rank
// greater than zero. The story set matters: ranks are normalized against the
// stories actually present in a report.
func RankedCounts(gdb *gorm.DB, storyIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int)
	if len(storyIDs) == 0 {
		return counts, nil
	}
	type row struct {
		FactorID uint
		Count    int
	}
	var rows []row
	err := gdb.Model(&models.FactorScore{}).
		Select("factor_id, count(*) as count").
		Where("story_id IN ? AND relative_rank > 0", storyIDs).
		Group("factor_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: ranked counts: %w", err)
	}
	for _, r := range rows {
		counts[r.FactorID] = r.Count
	}
	return counts, nil
}

// HasUndefinedScore reports whether any factor still lacks a defined score
// for the story: relative factors need a rank (0 counts as defined, it means
// "does not apply"), absolute factors need an answer.
func HasUndefinedScore(gdb *gorm.DB, storyID uint) (bool, error) {
	var total int64
	if err := gdb.Model(&models.Factor{}).Count(&total).Error; err != nil {
		return false, fmt.Errorf("backlog: count factors: %w", err)
	}
	if total == 0 {
		return false, nil
	}

	var defined int64
	err := gdb.Model(&models.FactorScore{}).
		Joins("JOIN factors ON factors.id = factor_scores.factor_id").
		Where("factor_scores.story_id = ?", storyID).
		Where("(factors.mode = ? AND factor_scores.relative_rank IS NOT NULL) OR (factors.mode <> ? AND factor_scores.answer_id IS NOT NULL)",
			"relative", "relative").
		Count(&defined).Error
	if err != nil {
		return false, fmt.Errorf("backlog: count defined scores: %w", err)
	}
	return defined < total, nil
}

// StatusOf derives a story's workflow status.
func StatusOf(gdb *gorm.DB, story *models.Story) (scoring.Status, error) {
	undefined, err := HasUndefinedScore(gdb, story.ID)
	if err != nil {
		return "", err
	}
	return scoring.DeriveStatus(StatusInput(story, undefined)), nil
}

// StatusInput assembles the deriver input from a story row.
func StatusInput(story *models.Story, hasUndefinedScore bool) scoring.StatusInput {
	return scoring.StatusInput{
		Planned:           story.Planned,
		Started:           story.Started,
		Finished:          story.Finished,
		BlockedReason:     story.Blocked,
		HasGoal:           story.Goal != "",
		HasWorkitems:      story.Workitems != "",
		HasUndefinedScore: hasUndefinedScore,
	}
}
