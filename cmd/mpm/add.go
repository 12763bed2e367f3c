package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> [<version>]",
		Short: "Declare a plugin as managed at a version requirement",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}

			raw := "latest"
			if len(args) == 2 {
				raw = args[1]
			}
			requirement := values.ParseVersionSpecifier(raw)

			if err := ctx.Container.Lifecycle().Add(ctx.Context, pn, requirement); err != nil {
				return err
			}
			fmt.Printf("Added %s (%s)\n", pn, requirement.Format())
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newAddCmd())
}
