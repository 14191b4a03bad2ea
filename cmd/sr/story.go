package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/spf13/cobra"
)

func newStoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Story management commands",
	}

	cmd.AddCommand(newStoryCreateCmd())
	cmd.AddCommand(newStoryListCmd())
	cmd.AddCommand(newStoryShowCmd())
	cmd.AddCommand(newStoryMoveCmd())
	return cmd
}

func newStoryCreateCmd() *cobra.Command {
	var (
		configPath string
		epic       string
		goal       string
		workitems  string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			story, err := backlog.Create(gdb, backlog.CreateOpts{
				EpicTitle: epic,
				Title:     args[0],
				Goal:      goal,
				Workitems: workitems,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created story %d: %s\n", story.ID, story.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().StringVarP(&epic, "epic", "e", "", "epic title (created when missing)")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "story goal")
	cmd.Flags().StringVarP(&workitems, "workitems", "w", "", "workitems, one per line")
	cmd.MarkFlagRequired("epic")
	return cmd
}

func newStoryListCmd() *cobra.Command {
	var (
		configPath string
		epicID     uint
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories with status and WSJF result",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rows, _, err := backlog.Reports(gdb, backlog.ReportOpts{EpicID: epicID})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEPIC\tTITLE\tSTATUS\tWSJF")
			for _, row := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					row.Story.ID, row.Story.Epic.Title, row.Story.Title,
					row.Status, formatResult(row.Report.Result))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().UintVar(&epicID, "epic", 0, "filter by epic ID")
	return cmd
}

func newStoryShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one story with its score breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid story id %q", args[0])
			}
			_, gdb, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return showStory(cmd, gdb, uint(id))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	return cmd
}

func newStoryMoveCmd() *cobra.Command {
	var (
		configPath string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "move <id> <backlog|planned|doing|blocked|done>",
		Short: "Move a story between kanban columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid story id %q", args[0])
			}
			_, gdb, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			story, err := backlog.Move(gdb, uint(id), args[1], reason)
			if err != nil {
				return err
			}
			status, err := backlog.StatusOf(gdb, story)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s (status: %s)\n", story.Title, args[1], status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().StringVar(&reason, "reason", "", "blocked reason (only with the blocked column)")
	return cmd
}

func formatResult(result *float64) string {
	if result == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *result)
}
