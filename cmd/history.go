package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past quiz results",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		label, _ := cmd.Flags().GetString("label")
		clearAll, _ := cmd.Flags().GetBool("clear")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := st.ResultRepo()

		if clearAll {
			n, err := repo.Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Printf("Removed %d results.\n", n)
			return nil
		}

		results, err := repo.QueryResults(ctx, store.QueryOpts{Limit: limit, Label: label})
		if err != nil {
			return fmt.Errorf("query results: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No results yet. Run `persona` to take the quiz.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-10s  %-5s  %-4s  %s\n",
			"Seq", "Time", "Label", "Conf", "Via", "Answers")
		fmt.Println(strings.Repeat("─", 60))
		for _, r := range results {
			answers := make([]string, len(r.Answers))
			for i, a := range r.Answers {
				answers[i] = fmt.Sprint(a)
			}
			fmt.Printf("%-5d  %-16s  %-10s  %.2f  %-4s  %s\n",
				r.Sequence,
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Label,
				r.Confidence,
				r.Source,
				strings.Join(answers, ","),
			)
		}

		counts, err := repo.LabelCounts(ctx)
		if err != nil {
			return fmt.Errorf("count labels: %w", err)
		}
		fmt.Println()
		for _, c := range counts {
			fmt.Printf("  %-10s %d\n", c.Label, c.Count)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of results to show")
	historyCmd.Flags().String("label", "", "Only show results with this label")
	historyCmd.Flags().Bool("clear", false, "Delete all stored results")
}
