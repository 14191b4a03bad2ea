package main

import (
	"fmt"
	"os"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/scoring"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newReportCmd() *cobra.Command {
	var (
		configPath string
		epicID     uint
		status     string
		hybrid     bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the WSJF report",
		Long:  "Ranks stories by total value / total cost. By default all factors use their absolute answer scores; --hybrid honors each factor's configured mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, configPath, epicID, status, hybrid, noColor)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().UintVar(&epicID, "epic", 0, "filter by epic ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by derived status")
	cmd.Flags().BoolVar(&hybrid, "hybrid", false, "honor per-factor relative/absolute modes")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func runReport(cmd *cobra.Command, configPath string, epicID uint, status string, hybrid, noColor bool) error {
	_, gdb, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	rows, sections, err := backlog.Reports(gdb, backlog.ReportOpts{
		EpicID:        epicID,
		Status:        scoring.Status(status),
		ForceAbsolute: !hybrid,
		SortByResult:  true,
	})
	if err != nil {
		return err
	}

	useColors := !noColor && term.IsTerminal(int(os.Stdout.Fd()))
	resultColor := fmt.Sprint
	if useColors {
		resultColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	defer func() { _ = table.Close() }()

	headers := []string{"Rank", "Story", "Epic", "Status"}
	for _, section := range sections {
		headers = append(headers, fmt.Sprintf("%s (%s)", section.Name, section.Kind))
	}
	headers = append(headers, "Value", "Cost", "WSJF")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, row := range rows {
		cells := []string{
			fmt.Sprint(i + 1),
			row.Story.Title,
			row.Story.Epic.Title,
			string(row.Status),
		}
		for _, section := range row.Report.Sections {
			if section.NoData {
				cells = append(cells, "-")
			} else {
				cells = append(cells, fmt.Sprintf("%.1f", section.Average))
			}
		}
		cells = append(cells,
			fmt.Sprintf("%.1f", row.Report.TotalValue),
			fmt.Sprintf("%.1f", row.Report.TotalCost),
			resultColor(formatResult(row.Report.Result)),
		)
		data = append(data, cells)
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
