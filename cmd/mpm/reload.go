package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Drop cached repository catalogue state and re-probe every source",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ctx.Container.Repositories().Reload()
			available := ctx.Container.Repositories().ListAvailable(ctx.Context)
			fmt.Printf("Reloaded; %d plugin(s) available across reachable sources\n", len(available))
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newReloadCmd())
}
