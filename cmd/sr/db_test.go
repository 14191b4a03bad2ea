package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a sqlite config in a temp dir and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "storyrank.yaml")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n", filepath.Join(dir, "sr.db"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDBInitCmd_MigratesAndSeeds(t *testing.T) {
	configPath := writeConfig(t)
	out := runCmd(t, "db", "init", "-c", configPath)

	if !strings.Contains(out, "Migrated") {
		t.Errorf("expected migration output, got: %s", out)
	}
	if !strings.Contains(out, "Seeded default scoring configuration") {
		t.Errorf("expected seed output, got: %s", out)
	}
}

func TestDBSeedCmd_IsIdempotent(t *testing.T) {
	configPath := writeConfig(t)
	runCmd(t, "db", "init", "-c", configPath)
	out := runCmd(t, "db", "seed", "-c", configPath)

	if !strings.Contains(out, "Seeded default scoring configuration") {
		t.Errorf("expected seed output, got: %s", out)
	}
}

func TestDBInitCmd_BadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storyrank.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "init", "-c", path})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown database driver")
	}
}
