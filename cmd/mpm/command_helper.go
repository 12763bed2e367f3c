package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/morinoparty/mpm/internal/infrastructure/container"
)

// CommandContext provides common command dependencies, eliminating
// repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler executes with initialized dependencies. Commands focus
// on business logic, not infrastructure setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization:
// resolves root/manifest from flags and viper, builds the container, and
// hands the handler a ready CommandContext.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		opts := container.Options{
			Logger:            logger,
			RootDir:           firstNonEmpty(rootFlag, viper.GetString("root"), "."),
			ManifestFileName:  firstNonEmpty(manifestF, viper.GetString("manifest")),
			LocalSourceDirs:   viper.GetStringSlice("local_sources"),
			RemoteSourceURLs:  viper.GetStringSlice("remote_sources"),
			BackupRetainCount: viper.GetInt("backup_retain"),
		}

		c, err := container.New(opts)
		if err != nil {
			return fmt.Errorf("initializing mpm: %w", err)
		}

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}
		return handler(ctx, cmd, args)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// confirm prompts the user before a destructive operation, unless --yes
// was passed. Returns true if the operation should proceed.
func confirm(message string) (bool, error) {
	if yesToAll {
		return true, nil
	}

	var ok bool
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return ok, nil
}
