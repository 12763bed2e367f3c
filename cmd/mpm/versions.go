package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

func newVersionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "versions <name>",
		Short: "List the upstream versions available for a managed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pn, err := values.NewPluginName(args[0])
			if err != nil {
				return err
			}

			md, found, err := ctx.Container.Metadata().Load(ctx.Context, pn.String())
			if err != nil {
				return err
			}
			if !found {
				return mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, pn.String(), "", nil)
			}

			driver, ok := ctx.Container.Dispatch().DriverFor(md.Repository.Kind)
			if !ok {
				return mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, pn.String(), md.Repository.Kind.String(), nil)
			}
			urlData, ok := driver.ExtractUrlData(md.Repository.ID)
			if !ok {
				return mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, pn.String(), "malformed repository id "+md.Repository.ID, nil)
			}

			versions, err := driver.GetAllVersions(ctx.Context, urlData)
			if err != nil {
				return mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, pn.String(), "", err)
			}

			if limit > 0 && limit < len(versions) {
				versions = versions[:limit]
			}
			for _, v := range versions {
				marker := ""
				if v.Version == md.Version.Current.Raw {
					marker = " (installed)"
				}
				fmt.Printf("%s%s\n", v.Version, marker)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most N versions, newest first")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionsCmd())
}
