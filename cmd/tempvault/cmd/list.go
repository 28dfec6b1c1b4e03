package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
)

var (
	listSection string
	listStatus  string
	listSender  string
	listKeyword string
	listFrom    string
	listTo      string
	listLimit   int
	listOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached messages",
	Long: `List cached messages, most recently received first.

Sections partition by read state: --section read is the inbox view,
--section unread the updates view. Filters combine with AND.

Examples:
  tempvault list --section unread
  tempvault list --sender newsletter --from 2024-01-01
  tempvault list --status starred --limit 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer st.Close()

		f := filter.State{
			Status:   filter.Status(listStatus),
			DateFrom: listFrom,
			DateTo:   listTo,
			Sender:   listSender,
			Keyword:  listKeyword,
		}
		f.Active = !f.IsEmpty()
		section := model.Section(listSection)

		total, err := st.Count(f, section)
		if err != nil {
			return err
		}
		msgs, err := st.Page(listLimit, listOffset, f, section)
		if err != nil {
			return err
		}

		if total == 0 {
			fmt.Println("No messages.")
			return nil
		}
		for _, m := range msgs {
			printMessageLine(m)
		}
		fmt.Printf("\n%d of %d messages\n", len(msgs), total)
		return nil
	},
}

func printMessageLine(m model.Message) {
	flags := make([]string, 0, 3)
	if !m.IsRead {
		flags = append(flags, "unread")
	}
	if m.Starred {
		flags = append(flags, "star")
	}
	if m.HasAttachments {
		flags = append(flags, "attach")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " [" + strings.Join(flags, ",") + "]"
	}
	fmt.Printf("%s  %-30s  %s%s\n", m.CreatedAt, truncate(m.From, 30), truncate(m.Subject, 60), suffix)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func init() {
	listCmd.Flags().StringVar(&listSection, "section", "", "restrict to a section: read or unread")
	listCmd.Flags().StringVar(&listStatus, "status", "", "status filter: read, unread, starred, unstarred, attachments")
	listCmd.Flags().StringVar(&listSender, "sender", "", "sender substring filter")
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "subject and body substring filter")
	listCmd.Flags().StringVar(&listFrom, "from", "", "earliest date (YYYY-MM-DD, inclusive)")
	listCmd.Flags().StringVar(&listTo, "to", "", "latest date (YYYY-MM-DD, inclusive)")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum messages to print")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "matches to skip")
	rootCmd.AddCommand(listCmd)
}
