package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete read messages from the cache",
	Long: `Delete every read message. Unread messages stay cached so nothing
unseen is lost. Use --all to wipe the whole cache, unread included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		if clearAll {
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Println("Cleared all messages.")
			return nil
		}

		n, err := st.DeleteRead()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d read messages\n", n)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "delete unread messages too")
	rootCmd.AddCommand(clearCmd)
}
