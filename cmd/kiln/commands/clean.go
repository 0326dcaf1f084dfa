package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [project[:config]...]",
		Short: "Clean build outputs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _ := cmd.Flags().GetBool("state")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Targets: args,
				State:   state,
			})
		},
	}

	cmd.Flags().BoolP("state", "s", false, "Also remove the persisted build state")

	return cmd
}
