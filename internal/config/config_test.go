package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Planner.Horizon != 7*24*time.Hour {
		t.Fatalf("horizon: got %v", cfg.Planner.Horizon)
	}
	if cfg.Radiko.URLTemplate == "" {
		t.Fatalf("url template should have a default")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radiko.yaml")
	body := []byte("server:\n  addr: 0.0.0.0:9000\nplanner:\n  tick_interval: 30s\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("RADIKO_DATABASE_PATH", filepath.Join(dir, "test.db"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Planner.TickInterval != 30*time.Second {
		t.Fatalf("tick: got %v", cfg.Planner.TickInterval)
	}
	if cfg.Database.Path != filepath.Join(dir, "test.db") {
		t.Fatalf("db path: got %q", cfg.Database.Path)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("blank database path should be rejected")
	}
}
