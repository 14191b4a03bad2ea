// Package config provides YAML-based configuration loading for Storyrank.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Storyrank configuration, loaded from storyrank.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
	Digest   DigestConfig   `yaml:"digest"`
	GitHub   GitHubConfig   `yaml:"github"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string      `yaml:"driver"` // sqlite (default) or mysql
	Path   string      `yaml:"path"`   // sqlite file path
	MySQL  MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds connection settings for a MySQL backend.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// NotifyConfig configures outbound status-change notifications.
// Empty tokens disable the corresponding adapter.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials and target channel.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials and target channel.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// DigestConfig schedules the periodic backlog digest.
type DigestConfig struct {
	Cron string `yaml:"cron"` // 5-field cron expression, empty disables
	Top  int    `yaml:"top"`  // number of top-ranked stories to include
}

// GitHubConfig holds the token used by the issue importer.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists:
// a local sqlite database and the web server on port 8080.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "storyrank.db"
	}
	if c.Database.MySQL.Host == "" {
		c.Database.MySQL.Host = "127.0.0.1"
	}
	if c.Database.MySQL.Port == 0 {
		c.Database.MySQL.Port = 3306
	}
	if c.Database.MySQL.User == "" {
		c.Database.MySQL.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Digest.Top == 0 {
		c.Digest.Top = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("unknown database driver %q (want sqlite or mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.MySQL.Database == "" {
		errs = append(errs, "mysql database name is required")
	}
	if c.Notify.Slack.Token != "" && c.Notify.Slack.Channel == "" {
		errs = append(errs, "slack channel is required when a slack token is set")
	}
	if c.Notify.Discord.Token != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "discord channel_id is required when a discord token is set")
	}
	if c.Digest.Top < 0 {
		errs = append(errs, fmt.Sprintf("digest top must not be negative, got %d", c.Digest.Top))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
