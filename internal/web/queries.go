package web

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// rottingAfter is how long a planned or started story may sit untouched
// before the dashboard flags it.
const rottingAfter = 14 * 24 * time.Hour

// reportOptsFromQuery builds report options from the request query string.
// The tweak parameter has the form "factorID:score,factorID:score".
func reportOptsFromQuery(c *gin.Context, forceAbsolute bool) (backlog.ReportOpts, error) {
	opts := backlog.ReportOpts{
		ForceAbsolute: forceAbsolute,
		SortByResult:  true,
	}

	if raw := c.Query("epic"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return opts, fmt.Errorf("invalid epic %q", raw)
		}
		opts.EpicID = uint(id)
	}

	if raw := c.Query("status"); raw != "" {
		opts.Status = scoring.Status(raw)
	}

	if raw := c.Query("labels"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				return opts, fmt.Errorf("invalid label %q", part)
			}
			opts.LabelIDs = append(opts.LabelIDs, uint(id))
		}
	}

	if raw := c.Query("tweak"); raw != "" {
		tweaks, err := parseTweaks(raw)
		if err != nil {
			return opts, err
		}
		opts.Tweaks = tweaks
	}

	return opts, nil
}

func parseTweaks(raw string) (map[uint]float64, error) {
	tweaks := make(map[uint]float64)
	for _, part := range strings.Split(raw, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid tweak %q", part)
		}
		id, err := strconv.ParseUint(pair[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid tweak factor %q", pair[0])
		}
		score, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tweak score %q", pair[1])
		}
		tweaks[uint(id)] = score
	}
	return tweaks, nil
}

// needsScoring returns active stories with at least one undefined score.
func needsScoring(gdb *gorm.DB, sections []scoring.Section) ([]models.Story, error) {
	stories, err := backlog.List(gdb, backlog.ListFilters{})
	if err != nil {
		return nil, err
	}
	var out []models.Story
	for i := range stories {
		if scoring.HasUndefined(sections, backlog.ScoreRows(&stories[i])) {
			out = append(out, stories[i])
		}
	}
	return out, nil
}

// needsRefinement returns active stories missing a goal or workitems.
func needsRefinement(gdb *gorm.DB) ([]models.Story, error) {
	var stories []models.Story
	err := gdb.Preload("Epic").
		Where("archived = ?", false).
		Where("goal = '' OR workitems = ''").
		Order("title").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: list unrefined: %w", err)
	}
	return stories, nil
}

// rottingStories returns planned or started stories that have not moved
// in a while.
func rottingStories(gdb *gorm.DB) ([]models.Story, error) {
	cutoff := time.Now().Add(-rottingAfter)
	var stories []models.Story
	err := gdb.Preload("Epic").
		Where("archived = ?", false).
		Where("finished IS NULL").
		Where("(started IS NOT NULL AND started < ?) OR (started IS NULL AND planned IS NOT NULL AND planned < ?)", cutoff, cutoff).
		Order("title").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: list rotting: %w", err)
	}
	return stories, nil
}

// reviewRequired returns active stories flagged for review.
func reviewRequired(gdb *gorm.DB) ([]models.Story, error) {
	var stories []models.Story
	err := gdb.Preload("Epic").
		Where("archived = ? AND review_required = ?", false, true).
		Order("title").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("backlog: list review: %w", err)
	}
	return stories, nil
}

// allEpics feeds the filter dropdowns and story forms; archived epics are
// excluded so finished initiatives stop cluttering the pickers.
func allEpics(gdb *gorm.DB) ([]models.Epic, error) {
	return backlog.ActiveEpics(gdb)
}

func allLabels(gdb *gorm.DB) ([]models.Label, error) {
	var labels []models.Label
	if err := gdb.Preload("Category").Order("name").Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("backlog: list labels: %w", err)
	}
	return labels, nil
}

func allCategories(gdb *gorm.DB) ([]models.LabelCategory, error) {
	var categories []models.LabelCategory
	if err := gdb.Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("backlog: list categories: %w", err)
	}
	return categories, nil
}
