package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/askelund/storyrank/internal/config"
	"github.com/askelund/storyrank/internal/notify"
	"github.com/askelund/storyrank/internal/notify/discord"
	"github.com/askelund/storyrank/internal/notify/slack"
	"github.com/askelund/storyrank/internal/web"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Storyrank web UI",
		Long:  "Launches the web UI: dashboard, story refinement, WSJF reports, kanban board, and relative ranking. Starts the digest scheduler when a digest cron is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storyrank.yaml", "path to Storyrank config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default: from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gdb, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		return err
	}
	defer notify.CloseAll(notifiers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Digest.Cron != "" && len(notifiers) > 0 {
		go runDigest(ctx, gdb, cfg, notifiers)
	}

	return web.Start(ctx, web.StartOpts{
		DB:        gdb,
		Port:      port,
		Out:       cmd.OutOrStdout(),
		Notifiers: notifiers,
	})
}

// buildNotifiers creates one adapter per configured chat platform.
func buildNotifiers(cfg *config.Config) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier
	if cfg.Notify.Slack.Token != "" {
		notifiers = append(notifiers, slack.New(cfg.Notify.Slack.Token, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Discord.Token != "" {
		d, err := discord.New(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		notifiers = append(notifiers, d)
	}
	return notifiers, nil
}

func runDigest(ctx context.Context, gdb *gorm.DB, cfg *config.Config, notifiers []notify.Notifier) {
	err := notify.RunDigestLoop(ctx, gdb, cfg.Digest.Cron, cfg.Digest.Top, notifiers)
	if err != nil && ctx.Err() == nil {
		log.Printf("digest scheduler stopped: %v", err)
	}
}
