// Package config handles loading and managing tempvault configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the tempvault configuration.
type Config struct {
	Data     DataConfig        `toml:"data"`
	Remote   RemoteConfig      `toml:"remote"`
	Sync     SyncConfig        `toml:"sync"`
	View     ViewConfig        `toml:"view"`
	Server   ServerConfig      `toml:"server"`
	Accounts []AccountSchedule `toml:"accounts"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// RemoteConfig holds mailbox provider configuration.
type RemoteConfig struct {
	BaseURL        string  `toml:"base_url"`        // Provider endpoint, e.g. http://localhost:8025
	TimeoutSeconds int     `toml:"timeout_seconds"` // Per-request deadline
	RateLimitQPS   float64 `toml:"rate_limit_qps"`  // Outbound fetch rate
}

// SyncConfig holds inbox sync configuration.
type SyncConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"` // Fixed refresh interval
	PageSize            int `toml:"page_size"`             // Store page size for list fetches
	Concurrency         int `toml:"concurrency"`           // Max parallel account syncs
}

// ViewConfig holds windowed-list geometry for attached views.
type ViewConfig struct {
	ItemHeight     int `toml:"item_height"`     // Row height in pixels
	ViewportHeight int `toml:"viewport_height"` // Visible area height in pixels
	BufferRows     int `toml:"buffer_rows"`     // Overscan rows above and below
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort int `toml:"api_port"` // HTTP server port (default: 8080)
}

// AccountSchedule defines a cron sync schedule for a single account.
type AccountSchedule struct {
	Email    string `toml:"email"`    // Disposable address
	Schedule string `toml:"schedule"` // Cron expression (e.g., "*/5 * * * *")
	Enabled  bool   `toml:"enabled"`  // Whether scheduled sync is active
}

// DefaultHome returns the default tempvault home directory.
// Respects the TEMPVAULT_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("TEMPVAULT_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tempvault"
	}
	return filepath.Join(home, ".tempvault")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.tempvault/config.toml).
// The config file is optional; defaults apply when it is absent.
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			DataDir: homeDir,
		},
		Remote: RemoteConfig{
			TimeoutSeconds: 15,
			RateLimitQPS:   5,
		},
		Sync: SyncConfig{
			PollIntervalSeconds: 10,
			PageSize:            20,
			Concurrency:         4,
		},
		View: ViewConfig{
			ItemHeight:     72,
			ViewportHeight: 576,
			BufferRows:     3,
		},
		Server: ServerConfig{
			APIPort: 8080,
		},
		Accounts: []AccountSchedule{},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)

	return cfg, nil
}

// DatabasePath returns the path to the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.DataDir, "tempvault.db")
}

// EnsureHomeDir creates the data directory if it does not exist.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.Data.DataDir, 0755)
}

// RemoteTimeout returns the per-request deadline for provider fetches.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// PollInterval returns the fixed refresh interval for the watch loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sync.PollIntervalSeconds) * time.Second
}

// ScheduledAccounts returns accounts with scheduling enabled.
func (c *Config) ScheduledAccounts() []AccountSchedule {
	var scheduled []AccountSchedule
	for _, acc := range c.Accounts {
		if acc.Enabled && acc.Schedule != "" {
			scheduled = append(scheduled, acc)
		}
	}
	return scheduled
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
