package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with absent file: %v", err)
	}
	if cfg.Sync.PollIntervalSeconds != 10 {
		t.Errorf("default poll interval = %d, want 10", cfg.Sync.PollIntervalSeconds)
	}
	if cfg.Sync.PageSize != 20 {
		t.Errorf("default page size = %d, want 20", cfg.Sync.PageSize)
	}
	if cfg.Server.APIPort != 8080 {
		t.Errorf("default api port = %d, want 8080", cfg.Server.APIPort)
	}
	if cfg.RemoteTimeout() != 15*time.Second {
		t.Errorf("default remote timeout = %v, want 15s", cfg.RemoteTimeout())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[data]
data_dir = "` + dir + `"

[remote]
base_url = "http://localhost:9925"
timeout_seconds = 3

[sync]
poll_interval_seconds = 30

[[accounts]]
email = "user1@tempmail.example"
schedule = "*/5 * * * *"
enabled = true

[[accounts]]
email = "user2@tempmail.example"
schedule = "0 * * * *"
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote.BaseURL != "http://localhost:9925" {
		t.Errorf("base_url = %q", cfg.Remote.BaseURL)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Errorf("poll interval = %v, want 30s", cfg.PollInterval())
	}
	if cfg.DatabasePath() != filepath.Join(dir, "tempvault.db") {
		t.Errorf("database path = %q", cfg.DatabasePath())
	}

	scheduled := cfg.ScheduledAccounts()
	if len(scheduled) != 1 || scheduled[0].Email != "user1@tempmail.example" {
		t.Errorf("scheduled accounts = %+v, want only user1", scheduled)
	}
}

func TestDefaultHomeEnvOverride(t *testing.T) {
	t.Setenv("TEMPVAULT_HOME", "/tmp/tv-home")
	if got := DefaultHome(); got != "/tmp/tv-home" {
		t.Errorf("DefaultHome = %q, want env override", got)
	}
}
