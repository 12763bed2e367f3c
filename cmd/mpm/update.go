package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domainservices "github.com/morinoparty/mpm/internal/domain/services"
	"github.com/morinoparty/mpm/internal/domain/values"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [<name>]",
		Short: "Check for and install newer upstream versions of managed plugins",
		Long: `With no argument, update checks every managed plugin for a newer
upstream version, takes a best-effort backup if anything is outdated, and
installs every outdated and unlocked plugin, followed by a Sync fan-out
for any plugin bound to one that was just updated. With <name>, only that
plugin is reinstalled at the version already recorded as current, and its
recorded latest version is refreshed; its current version is not moved.`,
		Args: cobra.MaximumNArgs(1),
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
				fmt.Printf("Updated %s\n", result.Name)
				return nil
			}

			results, err := ctx.Container.Lifecycle().Update(ctx.Context, ctx.Logger, domainservices.SemverComparer{}, ctx.Container.PluginDir())
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				switch {
				case r.Err != nil:
					fmt.Printf("Failed %s: %v\n", r.Name, r.Err)
					failed++
				case r.Cancelled:
					fmt.Printf("Cancelled %s\n", r.Name)
				case r.Skipped:
					fmt.Printf("Skipped %s (locked)\n", r.Name)
				case r.Installed:
					fmt.Printf("Updated %s\n", r.Name)
				}
			}
			if len(results) == 0 {
				fmt.Println("Everything is up to date")
			}
			if failed > 0 {
				return fmt.Errorf("%d plugin(s) failed to update", failed)
			}
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newUpdateCmd())
}
