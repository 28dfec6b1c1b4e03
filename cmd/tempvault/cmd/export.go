package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cache to a backup document",
	Long: `Write every cached message, the known accounts and the current account
to a JSON backup document. The document round-trips through import
without loss.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		doc, err := st.Export()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode backup: %w", err)
		}
		data = append(data, '\n')

		if exportOutput == "" || exportOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		fmt.Printf("Exported %d messages to %s\n", len(doc.Messages), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "backup file path (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
