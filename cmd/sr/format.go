package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// showStory prints one story's fields, scores, and dependencies.
func showStory(cmd *cobra.Command, gdb *gorm.DB, id uint) error {
	story, err := backlog.Get(gdb, id)
	if err != nil {
		return err
	}
	status, err := backlog.StatusOf(gdb, story)
	if err != nil {
		return err
	}

	rows, _, err := backlog.Reports(gdb, backlog.ReportOpts{EpicID: story.EpicID})
	if err != nil {
		return err
	}
	var report *backlog.StoryReport
	for i := range rows {
		if rows[i].Story.ID == id {
			report = &rows[i]
			break
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (#%d)\n", story.Title, story.ID)
	fmt.Fprintf(out, "Epic:    %s\n", story.Epic.Title)
	fmt.Fprintf(out, "Status:  %s\n", status)
	if story.Goal != "" {
		fmt.Fprintf(out, "Goal:    %s\n", story.Goal)
	}
	if story.Blocked != "" {
		fmt.Fprintf(out, "Blocked: %s\n", story.Blocked)
	}
	if len(story.Labels) > 0 {
		fmt.Fprint(out, "Labels: ")
		for _, l := range story.Labels {
			fmt.Fprintf(out, " %s:%s", l.Category.Name, l.Name)
		}
		fmt.Fprintln(out)
	}

	if report != nil {
		fmt.Fprintln(out, "\nScores:")
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, section := range report.Report.Sections {
			avg := "-"
			if !section.NoData {
				avg = fmt.Sprintf("%.1f", section.Average)
			}
			fmt.Fprintf(w, "  %s (%s)\t%s\n", section.Name, section.Kind, avg)
			for _, factor := range section.Factors {
				score := "undefined"
				if factor.Score != nil {
					score = fmt.Sprintf("%.1f", *factor.Score)
				}
				fmt.Fprintf(w, "    %s\t%s\n", factor.Name, score)
			}
		}
		fmt.Fprintf(w, "  Total value\t%.1f\n", report.Report.TotalValue)
		fmt.Fprintf(w, "  Total cost\t%.1f\n", report.Report.TotalCost)
		fmt.Fprintf(w, "  WSJF\t%s\n", formatResult(report.Report.Result))
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(story.Dependencies) > 0 {
		fmt.Fprintln(out, "\nDepends on:")
		for _, dep := range story.Dependencies {
			fmt.Fprintf(out, "  #%d %s\n", dep.DependsOnID, dep.DependsOn.Title)
		}
	}

	if story.Workitems != "" {
		fmt.Fprintf(out, "\nWorkitems:\n%s\n", story.Workitems)
	}
	return nil
}
