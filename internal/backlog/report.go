package backlog

import (
	"sort"

	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"gorm.io/gorm"
)

// ReportOpts filters and shapes a backlog-wide WSJF report.
type ReportOpts struct {
	EpicID   uint
	LabelIDs []uint

	// Status keeps only stories in the given derived status.
	Status scoring.Status

	// ForceAbsolute ignores per-factor modes (the classic report).
	ForceAbsolute bool

	// Tweaks substitutes effective scores by factor ID, what-if style.
	Tweaks map[uint]float64

	// SortByResult orders stories by descending WSJF result instead of
	// epic/title order.
	SortByResult bool
}

// StoryReport pairs a story with its derived status and score report.
type StoryReport struct {
	Story  models.Story
	Status scoring.Status
	Report scoring.Report
}

// Reports computes the WSJF report for every non-archived story matching the
// filters. Ranked counts are taken over the filtered story set, so relative
// normalization reflects the stories actually on the report.
func Reports(gdb *gorm.DB, opts ReportOpts) ([]StoryReport, []scoring.Section, error) {
	sections, err := LoadSections(gdb)
	if err != nil {
		return nil, nil, err
	}
	stories, err := List(gdb, ListFilters{EpicID: opts.EpicID, LabelIDs: opts.LabelIDs})
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
	}
	rankedCounts, err := RankedCounts(gdb, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]StoryReport, 0, len(stories))
	for i := range stories {
		story := stories[i]
		rows := ScoreRows(&story)
		status := scoring.DeriveStatus(StatusInput(&story, scoring.HasUndefined(sections, rows)))
		if opts.Status != "" && status != opts.Status {
			continue
		}
		rep, err := scoring.Compute(scoring.Input{
			Sections:      sections,
			Scores:        rows,
			RankedCounts:  rankedCounts,
			Tweaks:        opts.Tweaks,
			ForceAbsolute: opts.ForceAbsolute,
		})
		if err != nil {
			return nil, nil, err
		}
		out = append(out, StoryReport{Story: story, Status: status, Report: rep})
	}

	if opts.SortByResult {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Report.ResultOrZero() > out[j].Report.ResultOrZero()
		})
	}
	return out, sections, nil
}
