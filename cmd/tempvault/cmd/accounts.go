package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage known disposable addresses",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known addresses in insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		accounts, err := st.Accounts()
		if err != nil {
			return err
		}
		current, err := st.CurrentAccount()
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts. Run 'tempvault generate' to create one.")
			return nil
		}
		for _, a := range accounts {
			marker := "  "
			if a.Email == current {
				marker = "* "
			}
			fmt.Println(marker + a.Email)
		}
		return nil
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add an address to the known set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()
		if err := st.AddAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Added %s\n", args[0])
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove an address",
	Long: `Remove an address from the known set. If it was the current account,
the first remaining account takes over.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()
		if err := st.RemoveAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <email>",
	Short: "Make an address the current account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()
		if err := st.SetCurrentAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Now using %s\n", args[0])
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsUseCmd)
	rootCmd.AddCommand(accountsCmd)
}
