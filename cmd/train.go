package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/dataset"
	"github.com/abhisek/persona/internal/model"
	"github.com/abhisek/persona/internal/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the personality model from a labeled CSV dataset",
	Long: "Reads a CSV with columns Q1..Q5 (answers 0-2) and Personality,\n" +
		"fits a decision tree and writes the model and label codec artifacts.",
	Annotations: map[string]string{consoleLogAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := trainer.Train(cmd.Context(), trainer.Config{
			DataPath: cfg.Train.Data,
			Paths:    modelPaths(),
			Params: model.TreeParams{
				MaxDepth:        cfg.Train.MaxDepth,
				MinSamplesSplit: cfg.Train.MinSamplesSplit,
				MinSamplesLeaf:  cfg.Train.MinSamplesLeaf,
			},
			Logger: logger.Named("trainer"),
		})
		if err != nil {
			var dlErr *dataset.DataLoadError
			if errors.As(err, &dlErr) {
				return fmt.Errorf("training aborted, no model written:\n%w", err)
			}
			return fmt.Errorf("train: %w", err)
		}

		fmt.Println("✅ Model trained and saved!")
		fmt.Println()
		fmt.Printf("  Rows:        %d\n", report.Rows)
		fmt.Printf("  Labels:      %s\n", strings.Join(report.Classes, ", "))
		fmt.Printf("  Accuracy:    %.2f (training set)\n", report.Accuracy)
		fmt.Printf("  Tree:        depth %d, %d leaves\n", report.Depth, report.Leaves)
		fmt.Printf("  Pair ID:     %s\n", report.PairID)
		fmt.Printf("  Model:       %s\n", report.Paths.Model)
		fmt.Printf("  Codec:       %s\n", report.Paths.Codec)
		return nil
	},
}

func init() {
	trainCmd.Flags().String("data", "", "Training CSV (default quiz_dataset.csv)")
	trainCmd.Flags().Int("max-depth", 0, "Maximum tree depth, 0 for unlimited")
}
