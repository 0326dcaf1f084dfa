package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [project[:config]...]",
		Short: "Build projects incrementally",
		Long: "Build the given configurations and everything they reference. " +
			"Without arguments the active configuration of every project is built.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			jobs, _ := cmd.Flags().GetInt("jobs")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				Targets: args,
				Full:    full,
				Jobs:    jobs,
			})
		},
	}
	cmd.Flags().BoolP("full", "f", false, "Ignore previous build states and rebuild everything")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of concurrent builders (0 uses the workspace setting)")
	return cmd
}
