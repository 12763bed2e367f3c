package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
)

func newUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Delete a managed plugin's file, manifest entry, and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(fmt.Sprintf("Uninstall %s? This deletes its file, manifest entry, and metadata.", pn))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}

			result, err := ctx.Container.Lifecycle().Uninstall(ctx.Context, pn)
			if err != nil {
				return err
			}
			if result.DeletedFile != "" {
				fmt.Printf("Uninstalled %s (deleted %s)\n", result.Name, result.DeletedFile)
			} else {
				fmt.Printf("Uninstalled %s (no matching file found on disk)\n", result.Name)
			}
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newUninstallCmd())
}
