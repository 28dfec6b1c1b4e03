package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a backup document into the cache",
	Long: `Restore messages and accounts from a backup document created by export.
Existing messages with the same id are overwritten; everything else is
left alone. Pass - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}

		st := openStore()
		defer st.Close()

		n, err := st.Import(data)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d messages\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
