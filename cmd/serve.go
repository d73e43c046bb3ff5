package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/server"
	"github.com/abhisek/persona/internal/store"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Serve the quiz over an HTTP JSON API",
	Annotations: map[string]string{consoleLogAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := loadBundle()
		if err != nil {
			return err
		}
		questions, err := loadQuestions()
		if err != nil {
			return err
		}

		var results store.ResultRepo
		st, err := openStore()
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			defer st.Close()
			results = st.ResultRepo()
		}

		opts := server.DefaultOptions()
		opts.SessionTTL = cfg.Server.SessionTTL
		opts.ReadTimeout = cfg.Server.ReadTimeout
		opts.WriteTimeout = cfg.Server.WriteTimeout

		srv := server.New(bundle, questions, results, logger, opts)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Serving persona on %s\n", cfg.Server.Addr)
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}
