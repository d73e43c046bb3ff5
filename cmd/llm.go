package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the AI insight provider",
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured LLM provider and request counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		events := st.EventRepo()

		provider, settings, err := openLLM(cmd, events)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			fmt.Println("Provider:  none")
			fmt.Println("Set llm.provider in the config, PERSONA_LLM_PROVIDER, or one of")
			fmt.Println("GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY")
			fmt.Println("to enable AI insight on the result screen.")
		case err != nil:
			fmt.Fprintln(os.Stderr, "Provider misconfigured:", err)
		default:
			fmt.Printf("Provider:  %s (%s)\n", settings.Provider, provider.Model())
			fmt.Printf("Timeout:   %s, %d attempts\n", settings.Timeout, settings.Attempts)
		}

		total, err := events.CountLLMRequests(ctx, "")
		if err != nil {
			return fmt.Errorf("count requests: %w", err)
		}
		narratives, err := events.CountLLMRequests(ctx, insight.Purpose)
		if err != nil {
			return fmt.Errorf("count requests: %w", err)
		}
		fmt.Printf("Requests:  %d total, %d insight\n", total, narratives)
		return nil
	},
}

func init() {
	llmCmd.AddCommand(llmStatusCmd)
}
