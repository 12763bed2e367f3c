package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
)

func newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock <name>",
		Short: "Pin a managed plugin so update skips it",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}
			if err := ctx.Container.Lifecycle().Lock(ctx.Context, pn); err != nil {
				return err
			}
			fmt.Printf("Locked %s\n", pn)
			return nil
		}),
	}
	return cmd
}

func newUnlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock <name>",
		Short: "Clear a managed plugin's lock so update considers it again",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}
			if err := ctx.Container.Lifecycle().Unlock(ctx.Context, pn); err != nil {
				return err
			}
			fmt.Printf("Unlocked %s\n", pn)
			return nil
		}),
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newLockCmd())
	rootCmd.AddCommand(newUnlockCmd())
}
