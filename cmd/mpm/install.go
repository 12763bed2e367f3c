package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [<name>]",
		Short: "Download and place the artifact for one or every managed plugin",
		Args:  cobra.MaximumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				pn, err := values.NewPluginName(args[0])
				if err != nil {
					return err
				}
				result, err := ctx.Container.Lifecycle().Install(ctx.Context, pn)
				if err != nil {
					return err
				}
				if result.Removed != "" {
					fmt.Printf("Installed %s (removed stale file %s)\n", result.Name, result.Removed)
				} else {
					fmt.Printf("Installed %s\n", result.Name)
				}
				return nil
			}

			result, err := ctx.Container.Lifecycle().InstallAll(ctx.Context)
			if err != nil {
				return err
			}
			for _, name := range result.Installed {
				fmt.Printf("Installed %s\n", name)
			}
			for _, name := range result.Removed {
				fmt.Printf("Removed stale file %s\n", name)
			}
			for name, ferr := range result.Failed {
				fmt.Printf("Failed %s: %v\n", name, ferr)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d plugin(s) failed to install", len(result.Failed))
			}
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newInstallCmd())
}
