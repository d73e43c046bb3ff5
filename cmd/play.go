package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/app"
	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take the personality quiz",
	RunE:  runPlay,
}

// runPlay loads the model, opens the store and launches the TUI.
func runPlay(cmd *cobra.Command, _ []string) error {
	bundle, err := loadBundle()
	if err != nil {
		return err
	}
	questions, err := loadQuestions()
	if err != nil {
		return err
	}

	opts := app.Options{
		Bundle:    bundle,
		Questions: questions,
		ChartDir:  chartDir(),
		Logger:    logger,
	}

	// History is optional; the quiz still works without it.
	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "History unavailable:", err)
		logger.Warn("store unavailable", zap.Error(err))
	} else {
		defer st.Close()
		opts.Results = st.ResultRepo()
	}

	var events store.EventRepo
	if st != nil {
		events = st.EventRepo()
	}
	provider, _, err := openLLM(cmd, events)
	if err != nil {
		logger.Info("AI insight disabled", zap.Error(err))
	} else {
		opts.Insight = insight.NewService(provider, questions, insight.DefaultConfig(), logger)
	}

	return app.Run(opts)
}
