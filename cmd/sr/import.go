package main

import (
	"fmt"
	"strings"

	"github.com/askelund/storyrank/internal/ghimport"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import stories from external trackers",
	}

	cmd.AddCommand(newImportGitHubCmd())
	return cmd
}

func newImportGitHubCmd() *cobra.Command {
	var (
		configPath string
		repo       string
	)

	cmd := &cobra.Command{
		Use:   "github",
		Short: "Import open GitHub issues as stories",
		Long:  "Creates one story per open issue under an epic named after the repository. Issue labels become backlog labels. Re-imports skip issues already present.",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, name, err := splitRepo(repo)
			if err != nil {
				return err
			}
			cfg, gdb, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			importer := ghimport.New(gdb, cfg.GitHub.Token)
			result, err := importer.Import(cmd.Context(), owner, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d stories from %s (%d already present)\n",
				result.Created, repo, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().StringVarP(&repo, "repo", "r", "", "repository as owner/name")
	cmd.MarkFlagRequired("repo")
	return cmd
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo must be owner/name, got %q", repo)
	}
	return parts[0], parts[1], nil
}
