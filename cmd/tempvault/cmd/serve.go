package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempvault/tempvault/internal/api"
	"github.com/tempvault/tempvault/internal/broadcast"
	"github.com/tempvault/tempvault/internal/scheduler"
	"github.com/tempvault/tempvault/internal/scroll"
	"github.com/tempvault/tempvault/internal/sync"
	"github.com/tempvault/tempvault/internal/view"
)

var servePoll bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the cached inbox over HTTP, including a server-sent event stream
that propagates message updates to connected views.

With --poll, the current account is also synced on the configured poll
interval. Accounts with a cron schedule in config.toml are synced by the
scheduler regardless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		bus := broadcast.NewBus("tempvault", logger)
		v, err := view.New(st, bus, scroll.Config{
			PageSize:       cfg.Sync.PageSize,
			ItemHeight:     cfg.View.ItemHeight,
			ViewportHeight: cfg.View.ViewportHeight,
			Buffer:         cfg.View.BufferRows,
		}, logger)
		if err != nil {
			return fmt.Errorf("init view: %w", err)
		}
		defer v.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go v.Run(ctx)

		syncer, err := newSyncer(st)
		if err != nil {
			return err
		}

		var sched *scheduler.Scheduler
		if len(cfg.ScheduledAccounts()) > 0 {
			sched = scheduler.New(
				syncer.Sync,
				func(email string, inserted int) {
					if err := v.NotifyNewMessages(inserted); err != nil {
						logger.Warn("apply scheduled sync", "email", email, "error", err)
					}
				},
				logger,
			)
			scheduled, errs := sched.AddFromConfig(cfg)
			for _, err := range errs {
				logger.Warn("skipping schedule", "error", err)
			}
			if scheduled > 0 {
				sched.Start()
				defer func() { <-sched.Stop().Done() }()
			}
		}

		if servePoll {
			poller := sync.NewPoller(syncer, cfg.PollInterval(),
				st.CurrentAccount,
				func(inserted int) {
					if err := v.NotifyNewMessages(inserted); err != nil {
						logger.Warn("apply polled sync", "error", err)
					}
				},
				logger,
			)
			go poller.Run(ctx)
		}

		var apiSched api.SyncScheduler
		if sched != nil {
			apiSched = sched
		}
		srv := api.NewServer(cfg, st, v, syncer, apiSched, bus, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return fmt.Errorf("api server: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return cmd.Context().Err()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePoll, "poll", false, "also poll the current account on the configured interval")
	rootCmd.AddCommand(serveCmd)
}
