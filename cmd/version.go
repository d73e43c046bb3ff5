package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/release"
)

// version is set via -ldflags at build time.
var version = release.DevVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("persona", version)

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		st, err := release.NewChecker().Check(ctx, version)
		if err != nil {
			return err
		}
		if st.Newer {
			fmt.Printf("Newer release %s available: %s\n", st.Latest, st.URL)
		} else {
			fmt.Println("Already running the latest release.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Also look up the latest release")
}
