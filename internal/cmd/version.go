package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/iocontext"
	"github.com/artlens/artlens/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

// checkForUpdate is replaced in tests.
var checkForUpdate = update.CheckForUpdate

func newVersionCmd() *cobra.Command {
	var noCheck bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if !noCheck {
				result = checkForUpdate(cmd.Context(), version)
			}

			if isJSON(cmd) {
				payload := map[string]any{"version": version}
				if result != nil {
					payload["update"] = result
				}
				return printJSON(cmd, payload)
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			_, _ = fmt.Fprintf(ioStreams.Out, "artlens version %s\n", version)
			if notice := result.Notice(); notice != "" {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "\n%s\n", notice)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "Skip the release check")
	return cmd
}
