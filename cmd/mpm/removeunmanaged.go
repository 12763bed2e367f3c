package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveUnmanagedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-unmanaged",
		Short: "Delete every artifact not declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ok, err := confirm("Delete every plugin file not declared in the manifest?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}
			count, err := ctx.Container.Lifecycle().RemoveUnmanaged(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d unmanaged artifact(s)\n", count)
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newRemoveUnmanagedCmd())
}
