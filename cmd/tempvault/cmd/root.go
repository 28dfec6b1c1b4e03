package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tempvault/tempvault/internal/config"
	"github.com/tempvault/tempvault/internal/remote"
	"github.com/tempvault/tempvault/internal/store"
	"github.com/tempvault/tempvault/internal/sync"
)

var (
	cfgFile string
	homeDir string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tempvault",
	Short: "Local cache for disposable email inboxes",
	Long: `tempvault mirrors disposable email inboxes into a local message cache
with search, filtering, and multi-view synchronization.

Messages survive provider expiry: once fetched they live in the local
database until explicitly cleared.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		if homeDir != "" {
			os.Setenv("TEMPVAULT_HOME", homeDir)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.Data.DataDir, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.tempvault/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "tempvault home directory (default ~/.tempvault)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openStore opens the message cache at the configured path.
func openStore() *store.Store {
	return store.New(cfg.DatabasePath())
}

// newRemote builds the provider client from config.
func newRemote() (*remote.Client, error) {
	if cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("no provider configured: set [remote] base_url in config.toml")
	}
	burst := int(cfg.Remote.RateLimitQPS)
	if burst < 1 {
		burst = 1
	}
	return remote.NewClient(cfg.Remote.BaseURL,
		remote.WithLogger(logger),
		remote.WithTimeout(cfg.RemoteTimeout()),
		remote.WithRateLimit(cfg.Remote.RateLimitQPS, burst),
	), nil
}

// newSyncer wires the provider client and store into a syncer.
func newSyncer(st *store.Store) (*sync.Syncer, error) {
	client, err := newRemote()
	if err != nil {
		return nil, err
	}
	return sync.New(client, st, logger), nil
}
