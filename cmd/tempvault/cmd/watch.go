package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tempvault/tempvault/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the provider on a fixed interval",
	Long: `Continuously sync the current account on the configured poll interval
(default 10s) until interrupted. A slow fetch may overlap the next tick;
the cache's dedup makes that harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		syncer, err := newSyncer(st)
		if err != nil {
			return err
		}

		poller := sync.NewPoller(syncer, cfg.PollInterval(),
			st.CurrentAccount,
			func(inserted int) {
				fmt.Printf("%d new messages\n", inserted)
			},
			logger,
		)
		poller.Run(cmd.Context())
		return cmd.Context().Err()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
