package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore, or prune snapshots of the plugin directory",
	}
	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDeleteCmd())
	cmd.AddCommand(newBackupCleanupCmd())
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Archive the current plugin directory",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			info, err := ctx.Container.Backups().Create(ctx.Context, entities.BackupManual, ctx.Container.PluginDir())
			if err != nil {
				return err
			}
			fmt.Printf("Created backup %s (%s, %d plugin(s), %d bytes)\n", info.ID, info.FileName, len(info.PluginsIncluded), info.SizeBytes)
			return nil
		}),
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived backups, newest first",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			backups, err := ctx.Container.Backups().List(ctx.Context)
			if err != nil {
				return err
			}
			sort.SliceStable(backups, func(i, j int) bool {
				return backups[i].CreatedAt.After(backups[j].CreatedAt)
			})
			if len(backups) == 0 {
				fmt.Println("No backups found")
				return nil
			}
			for _, b := range backups {
				fmt.Printf("%-20s %-10s %s  %d plugin(s)\n", b.ID, b.Reason, b.CreatedAt.Format("2006-01-02 15:04:05"), len(b.PluginsIncluded))
			}
			return nil
		}),
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a previously archived backup into the plugin directory",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ok, err := confirm(fmt.Sprintf("Restore backup %s? This overwrites any plugin files it contains.", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}
			result, err := ctx.Container.Backups().Restore(ctx.Context, args[0], ctx.Container.PluginDir())
			if err != nil {
				return err
			}
			fmt.Printf("Restored %d plugin(s), %d config file(s)\n", len(result.RestoredPlugins), len(result.RestoredConfigs))
			return nil
		}),
	}
}

func newBackupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived backup",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ok, err := confirm(fmt.Sprintf("Delete backup %s?", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}
			if err := ctx.Container.Backups().Delete(ctx.Context, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted backup %s\n", args[0])
			return nil
		}),
	}
}

func newBackupCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the oldest backups beyond the configured retention count",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			removed, err := ctx.Container.Backups().CleanupOld(ctx.Context, ctx.Container.BackupRetainCount())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d old backup(s)\n", removed)
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newBackupCmd())
}
