package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a plugin's manifest entry (leaves any installed file in place)",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}
			if err := ctx.Container.Lifecycle().Remove(ctx.Context, pn); err != nil {
				return err
			}
			fmt.Printf("Removed %s from the manifest\n", pn)
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newRemoveCmd())
}
