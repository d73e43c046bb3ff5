package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/chart"
	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/store"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a personality from canonical answers without the TUI",
	Example: "  persona predict --answers 0,0,1,2,0\n" +
		"  persona predict --answers 2,2,2,2,2 --json --chart result.html",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("answers")
		asJSON, _ := cmd.Flags().GetBool("json")
		chartPath, _ := cmd.Flags().GetString("chart")
		noSave, _ := cmd.Flags().GetBool("no-save")

		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		bundle, err := loadBundle()
		if err != nil {
			return err
		}
		questions, err := loadQuestions()
		if err != nil {
			return err
		}

		// Canonical answers go through an unshuffled engine.
		engine := quiz.NewEngine(questions, inference.NewPredictor(bundle), quiz.WithShuffler(quiz.IdentityShuffler))
		res, err := runAnswers(engine, answers)
		if err != nil {
			return err
		}

		if !noSave {
			recordCLIResult(cmd.Context(), bundle.Meta.PairID, res)
		}

		if chartPath != "" {
			if err := chart.WriteFile(chartPath, res, chart.DefaultTitle); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
		}

		if asJSON {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("Your Personality: %s\n", res.Label)
		fmt.Println(insight.Describe(res.Label))
		fmt.Println()
		fmt.Println("Prediction confidence:")
		for _, lp := range res.Distribution {
			fmt.Printf("  %-10s %s %.2f\n", lp.Label, bar(lp.Probability, 20), lp.Probability)
		}
		if chartPath != "" {
			fmt.Printf("\nChart saved to %s\n", chartPath)
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().String("answers", "", "Comma-separated canonical answers, one per question (0-2)")
	predictCmd.Flags().Bool("json", false, "Print the result as JSON")
	predictCmd.Flags().String("chart", "", "Write an HTML confidence chart to this file")
	predictCmd.Flags().Bool("no-save", false, "Do not record the result in history")
	_ = predictCmd.MarkFlagRequired("answers")
}

// parseAnswers splits "0,1,2" into integers. Range checks are left to the
// engine.
func parseAnswers(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	answers := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid answer %q: %w", p, err)
		}
		answers = append(answers, n)
	}
	return answers, nil
}

// runAnswers submits every answer and returns the completed result.
func runAnswers(engine *quiz.Engine, answers []int) (*inference.Result, error) {
	_, total := engine.Progress()
	if len(answers) != total {
		return nil, fmt.Errorf("need %d answers, got %d", total, len(answers))
	}
	for _, a := range answers {
		if _, err := engine.Submit(a); err != nil {
			return nil, err
		}
	}
	res, ok := engine.Result()
	if !ok {
		return nil, fmt.Errorf("quiz did not complete")
	}
	return res, nil
}

// recordCLIResult stores res in history. Failures are reported but never
// fail the command.
func recordCLIResult(ctx context.Context, pairID string, res *inference.Result) {
	st, err := openStore()
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer st.Close()
	rec := history.NewRecorder(st.ResultRepo(), store.SourceCLI, pairID, logger)
	if err := rec.Record(ctx, uuid.NewString(), res); err != nil {
		fmt.Fprintln(os.Stderr, "Result not saved to history:", err)
	}
}

// bar renders p as a fixed-width block bar.
func bar(p float64, width int) string {
	filled := int(p*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
