package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var managedOnly, unmanagedOnly, lockedOnly, allFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the plugins declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			manifest, err := ctx.Container.Manifests().Load(ctx.Context, ctx.Container.ManifestPath())
			if err != nil {
				return err
			}

			showManaged := managedOnly || allFlag || (!unmanagedOnly && !lockedOnly)
			showUnmanaged := unmanagedOnly || allFlag || (!managedOnly && !lockedOnly)

			for _, name := range manifest.WithSortedKeys() {
				spec := manifest.Plugins[name]
				if spec.IsUnmanaged() {
					if showUnmanaged {
						fmt.Printf("%-30s unmanaged\n", name)
					}
					continue
				}

				locked := false
				if md, found, _ := ctx.Container.Metadata().Load(ctx.Context, name); found {
					locked = md.Settings.Lock
				}
				if lockedOnly && !locked {
					continue
				}
				if !showManaged && !lockedOnly {
					continue
				}

				status := spec.Requirement().Format()
				if locked {
					status += " [locked]"
				}
				fmt.Printf("%-30s %s\n", name, status)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&managedOnly, "managed", false, "show only managed plugins")
	cmd.Flags().BoolVar(&unmanagedOnly, "unmanaged", false, "show only unmanaged plugins")
	cmd.Flags().BoolVar(&lockedOnly, "locked", false, "show only locked plugins")
	cmd.Flags().BoolVar(&allFlag, "all", false, "show every plugin (default)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newListCmd())
}
