package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "storyrank.db" {
		t.Errorf("Path = %q, want storyrank.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Digest.Top != 5 {
		t.Errorf("Digest.Top = %d, want 5", cfg.Digest.Top)
	}
}

func TestParse_MySQL(t *testing.T) {
	data := []byte(`
database:
  driver: mysql
  mysql:
    host: db.internal
    database: backlog
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.MySQL.Host != "db.internal" {
		t.Errorf("Host = %q, want db.internal", cfg.Database.MySQL.Host)
	}
	if cfg.Database.MySQL.Port != 3306 {
		t.Errorf("Port = %d, want default 3306", cfg.Database.MySQL.Port)
	}
	if cfg.Database.MySQL.User != "root" {
		t.Errorf("User = %q, want default root", cfg.Database.MySQL.User)
	}
}

func TestParse_MySQLRequiresDatabase(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err == nil {
		t.Fatal("expected error for mysql without database name")
	}
	if !strings.Contains(err.Error(), "database name is required") {
		t.Errorf("error = %q, want database name message", err)
	}
}

func TestParse_UnknownDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestParse_SlackNeedsChannel(t *testing.T) {
	_, err := Parse([]byte("notify:\n  slack:\n    token: xoxb-123\n"))
	if err == nil {
		t.Fatal("expected error for slack token without channel")
	}
}

func TestParse_NegativeDigestTop(t *testing.T) {
	_, err := Parse([]byte("digest:\n  top: -3\n"))
	if err == nil {
		t.Fatal("expected error for negative digest top")
	}
	if !strings.Contains(err.Error(), "digest top") {
		t.Errorf("error = %q, want digest top message", err)
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("database: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.Driver != "sqlite" || cfg.Server.Port != 8080 {
		t.Errorf("Default() = %+v, want sqlite driver and port 8080", cfg)
	}
}
