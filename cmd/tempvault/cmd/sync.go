package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync [email]",
	Short: "Fetch new messages from the provider into the local cache",
	Long: `Fetch the provider's current inbox snapshot and persist entries not
already cached. Already-seen messages are left untouched, so repeating a
sync never duplicates anything.

If no email is given, the current account is synced. Use --all to sync
every known account.

Examples:
  tempvault sync                     # Sync the current account
  tempvault sync you@tempmail.test   # Sync a specific address
  tempvault sync --all               # Sync all known accounts`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		syncer, err := newSyncer(st)
		if err != nil {
			return err
		}

		if syncAll {
			total, err := syncer.SyncAll(cmd.Context(), cfg.Sync.Concurrency)
			if err != nil {
				return fmt.Errorf("sync all accounts: %w", err)
			}
			fmt.Printf("Synced all accounts: %d new messages\n", total)
			return nil
		}

		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			email, err = st.CurrentAccount()
			if err != nil {
				return err
			}
		}
		if email == "" {
			return fmt.Errorf("no account selected: pass an email or run 'tempvault accounts use <email>'")
		}

		n, err := syncer.Sync(cmd.Context(), email)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %s: %d new messages\n", email, n)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every known account")
	rootCmd.AddCommand(syncCmd)
}
