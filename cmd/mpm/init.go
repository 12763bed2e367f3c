package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

func newInitCmd() *cobra.Command {
	var overwrite bool
	var serverName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a manifest from the plugins already present on disk",
		Long: `init scans the plugin directory, declares every artifact it finds as
unmanaged, and writes a new manifest file. Existing plugins are never
modified or deleted by init.`,
		Args: cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			exists, err := ctx.Container.Manifests().Exists(ctx.Context, ctx.Container.ManifestPath())
			if err != nil {
				return err
			}
			if exists && !overwrite {
				return mpmerrors.NewProjectError(mpmerrors.InitializationFailed, ctx.Container.ManifestPath(), fmt.Errorf("manifest already exists; pass --overwrite to replace it"))
			}

			name := serverName
			if name == "" {
				abs, err := filepath.Abs(ctx.Container.PluginDir())
				if err != nil {
					name = "server"
				} else {
					name = filepath.Base(abs)
				}
			}

			manifest := entities.NewManifest(name)

			artifacts, err := ctx.Container.PluginDirectory().ListArtifacts(ctx.Context)
			if err != nil {
				return fmt.Errorf("listing plugin directory: %w", err)
			}
			for _, path := range artifacts {
				descriptor, err := ctx.Container.Descriptors().ReadDescriptor(ctx.Context, path)
				if err != nil {
					continue
				}
				pn, err := values.NewPluginName(descriptor.Name)
				if err != nil {
					continue
				}
				_ = manifest.Add(pn, entities.Unmanaged())
			}

			if err := ctx.Container.Manifests().Save(ctx.Context, manifest, ctx.Container.ManifestPath()); err != nil {
				return err
			}

			fmt.Printf("Initialized %s with %d plugin(s)\n", ctx.Container.ManifestPath(), len(manifest.Plugins))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing manifest")
	cmd.Flags().StringVar(&serverName, "name", "", "manifest name (default: plugin directory's base name)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newInitCmd())
}
