package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/config"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/logging"
	"github.com/abhisek/persona/internal/model"
	"github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/store"
)

// consoleLogAnnotation marks commands that also log to stderr.
const consoleLogAnnotation = "persona/console-log"

var rootCmd = &cobra.Command{
	Use:   "persona",
	Short: "Personality quiz in your terminal",
	Long: "Persona asks five quick questions and predicts whether you lean\n" +
		"Introvert, Extrovert, Ambivert or Omnivert using a decision tree\n" +
		"trained on quiz answers.",
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runPlay,
}

// Process-wide state set up before any command runs.
var (
	cfg      *config.Config
	logger   = zap.NewNop()
	closeLog = func() error { return nil }
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/persona/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides PERSONA_DB)")
	pf.String("model", "", "Path to the trained model artifact")
	pf.String("codec", "", "Path to the label codec artifact")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("questions", "", "YAML question bank replacing the built-in questions")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and opens the log file.
func setup(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("config")
	c, err := config.Load(file, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c

	opts := logging.Options{
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	if cmd.Annotations[consoleLogAnnotation] == "true" {
		opts.Console = os.Stderr
	}
	l, closeFn, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger, closeLog = l, closeFn
	logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config_file", cfg.File),
		zap.String("db", cfg.DB))
	return nil
}

func teardown(*cobra.Command, []string) error {
	return closeLog()
}

// modelPaths returns the configured artifact locations.
func modelPaths() model.Paths {
	return model.Paths{Model: cfg.Model.Path, Codec: cfg.Model.Codec}
}

// loadBundle reads the trained artifact pair, pointing at `persona train`
// when it is missing or broken.
func loadBundle() (*model.Bundle, error) {
	b, err := model.LoadBundle(modelPaths())
	if err != nil {
		var loadErr *model.ArtifactLoadError
		if errors.As(err, &loadErr) {
			logger.Error("model load failed", zap.String("path", loadErr.Path), zap.Error(loadErr.Err))
		}
		return nil, fmt.Errorf("%w\n\nRun `persona train` to build the model first.", err)
	}
	logger.Info("model loaded",
		zap.String("pair_id", b.Meta.PairID),
		zap.Strings("classes", b.Codec.Classes()))
	return b, nil
}

// loadQuestions returns the configured question bank.
func loadQuestions() (quiz.QuestionSet, error) {
	if cfg.Quiz.Questions == "" {
		return quiz.DefaultQuestions(), nil
	}
	qs, err := quiz.LoadQuestions(cfg.Quiz.Questions)
	if err != nil {
		return quiz.QuestionSet{}, fmt.Errorf("load questions %s: %w", cfg.Quiz.Questions, err)
	}
	return qs, nil
}

// openStore opens the history database, creating its directory.
func openStore() (*store.Store, error) {
	if err := store.EnsureDir(cfg.DB); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// chartDir is where exported charts are written.
func chartDir() string {
	return filepath.Dir(cfg.DB)
}

// openLLM builds the narrative provider from the llm.* settings. events may
// be nil.
func openLLM(cmd *cobra.Command, events store.EventRepo) (llm.Provider, llm.Settings, error) {
	return llm.Open(cmd.Context(), llm.Settings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
		Attempts: cfg.LLM.Attempts,
	}, events, logger)
}
