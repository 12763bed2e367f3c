package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domainservices "github.com/morinoparty/mpm/internal/domain/services"
)

func newOutdatedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outdated [<name>]",
		Short: "Show managed plugins with a newer upstream version available",
		Args:  cobra.MaximumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			entries, err := ctx.Container.Lifecycle().CheckAllOutdated(ctx.Context, domainservices.SemverComparer{})
			if err != nil {
				return err
			}

			var filter string
			if len(args) == 1 {
				filter = args[0]
			}

			any := false
			for _, e := range entries {
				if filter != "" && e.Name != filter {
					continue
				}
				if !e.NeedsUpdate {
					continue
				}
				any = true
				fmt.Printf("%-30s %s -> %s\n", e.Name, e.Current, e.Latest)
			}
			if !any {
				fmt.Println("Everything is up to date")
			}
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newOutdatedCmd())
}
