package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Database: %s\n", cfg.DatabasePath())
		fmt.Printf("  Messages: %d\n", stats.MessageCount)
		fmt.Printf("  Unread:   %d\n", stats.UnreadCount)
		fmt.Printf("  Starred:  %d\n", stats.StarredCount)
		fmt.Printf("  Accounts: %d\n", stats.AccountCount)
		fmt.Printf("  Size:     %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))

		activity, err := st.RecentActivity(3)
		if err != nil {
			return err
		}
		if len(activity) > 0 {
			fmt.Println("\nRecent activity:")
			for _, a := range activity {
				fmt.Printf("  %s  %-8s  %s\n", a.OccurredAt, a.Kind, a.Detail)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
