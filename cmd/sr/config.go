package main

import (
	"fmt"
	"os"

	"github.com/askelund/storyrank/internal/config"
	"github.com/askelund/storyrank/internal/db"
	"gorm.io/gorm"
)

// loadConfig reads the config file, falling back to defaults when the file
// does not exist at the default path.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "storyrank.yaml" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// connectFromConfig loads the config and opens the database it names.
func connectFromConfig(path string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, gdb, nil
}
