package backlog

import (
	"fmt"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
)

// Housekeeping actions, as exposed on the dashboard.
const (
	CleanupOrphanScores       = "orphan_scores"
	CleanupStaleScores        = "stale_scores"
	CleanupOrphanDependencies = "orphan_dependencies"
	CleanupOrphanHistory      = "orphan_history"
)

// Cleanup runs one named housekeeping action and returns the number of rows
// deleted. Unknown actions are an error.
func Cleanup(gdb *gorm.DB, action string) (int64, error) {
	switch action {
	case CleanupOrphanScores:
		// Scores whose story no longer exists.
		res := gdb.Where("story_id NOT IN (SELECT id FROM stories)").Delete(&models.FactorScore{})
		return res.RowsAffected, wrapCleanup(action, res.Error)
	case CleanupStaleScores:
		// Scores for factors that were deleted from the configuration.
		res := gdb.Where("factor_id NOT IN (SELECT id FROM factors)").Delete(&models.FactorScore{})
		return res.RowsAffected, wrapCleanup(action, res.Error)
	case CleanupOrphanDependencies:
		res := gdb.Where("story_id NOT IN (SELECT id FROM stories) OR depends_on_id NOT IN (SELECT id FROM stories)").
			Delete(&models.StoryDependency{})
		return res.RowsAffected, wrapCleanup(action, res.Error)
	case CleanupOrphanHistory:
		res := gdb.Where("story_id NOT IN (SELECT id FROM stories)").Delete(&models.StoryHistory{})
		return res.RowsAffected, wrapCleanup(action, res.Error)
	default:
		return 0, fmt.Errorf("backlog: unknown cleanup action %q", action)
	}
}

// HousekeepingCounts reports how many rows each cleanup action would remove.
func HousekeepingCounts(gdb *gorm.DB) (map[string]int64, error) {
	counts := make(map[string]int64)
	queries := map[string]*gorm.DB{
		CleanupOrphanScores: gdb.Model(&models.FactorScore{}).
			Where("story_id NOT IN (SELECT id FROM stories)"),
		CleanupStaleScores: gdb.Model(&models.FactorScore{}).
			Where("factor_id NOT IN (SELECT id FROM factors)"),
		CleanupOrphanDependencies: gdb.Model(&models.StoryDependency{}).
			Where("story_id NOT IN (SELECT id FROM stories) OR depends_on_id NOT IN (SELECT id FROM stories)"),
		CleanupOrphanHistory: gdb.Model(&models.StoryHistory{}).
			Where("story_id NOT IN (SELECT id FROM stories)"),
	}
	for action, q := range queries {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("backlog: housekeeping count %s: %w", action, err)
		}
		counts[action] = n
	}
	return counts, nil
}

func wrapCleanup(action string, err error) error {
	if err != nil {
		return fmt.Errorf("backlog: cleanup %s: %w", action, err)
	}
	return nil
}
