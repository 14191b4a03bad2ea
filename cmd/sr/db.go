package main

import (
	"fmt"

	"github.com/askelund/storyrank/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Storyrank database",
		Long:  "Migrates all tables and seeds the default WSJF scoring configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gdb, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.Seed(gdb); err != nil {
		return err
	}
	fmt.Fprintln(out, "Seeded default scoring configuration")

	fmt.Fprintln(out, "\nStoryrank database initialized successfully.")
	return nil
}

func newDBSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the default scoring configuration",
		Long:  "Installs the default sections, factors, and fibonacci answer scales. Existing rows are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBSeed(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	return cmd
}

func runDBSeed(cmd *cobra.Command, configPath string) error {
	_, gdb, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.Seed(gdb); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Seeded default scoring configuration")
	return nil
}
