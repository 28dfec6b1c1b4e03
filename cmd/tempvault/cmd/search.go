package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/searchidx"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached messages",
	Long: `Search sender, subject and body of every cached message.

The index is built in memory from the cache at startup. Terms of two or
more characters match whole words and parts of longer words.

Examples:
  tempvault search invoice
  tempvault search "password reset"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		st := openStore()
		defer st.Close()

		msgs, err := st.GetAll()
		if err != nil {
			return err
		}

		ix := searchidx.New()
		ix.Build(msgs)

		ids := ix.Query(query)
		if len(ids) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		var hits []model.Message
		for _, m := range msgs {
			if _, ok := ids[m.ID]; ok {
				hits = append(hits, m)
			}
		}
		sort.Slice(hits, func(i, j int) bool {
			ti, oki := model.ParseCreatedAt(hits[i].CreatedAt)
			tj, okj := model.ParseCreatedAt(hits[j].CreatedAt)
			if !oki || !okj {
				return hits[i].CreatedAt > hits[j].CreatedAt
			}
			return tj.Before(ti)
		})

		for _, m := range hits {
			printMessageLine(m)
		}
		fmt.Printf("\n%d matches\n", len(hits))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
