package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateKeepCurrent bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a fresh disposable address",
	Long: `Ask the provider for a fresh disposable address, add it to the known
accounts and switch to it. Use --keep-current to add it without switching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemote()
		if err != nil {
			return err
		}

		email, err := client.GenerateEmail(cmd.Context())
		if err != nil {
			return err
		}

		st := openStore()
		defer st.Close()

		if generateKeepCurrent {
			if err := st.AddAccount(email); err != nil {
				return err
			}
			fmt.Println(email)
			return nil
		}
		if err := st.SetCurrentAccount(email); err != nil {
			return err
		}
		fmt.Printf("Now using %s\n", email)
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateKeepCurrent, "keep-current", false, "add the address without switching to it")
	rootCmd.AddCommand(generateCmd)
}
