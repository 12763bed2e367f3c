package services

import (
	"context"
	"log/slog"

	"github.com/morinoparty/mpm/internal/application/dto"
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// updatePayload is the PluginUpdate event payload: the version an
// outdated plugin is moving from and to.
type updatePayload struct {
	From string
	To   string
}

// advanceToResolved re-resolves pn's specifier against manifest and
// persists the result into its metadata's Version.Current and
// Download.DownloadID, mirroring InstallAll's resolve-then-install
// sequence (lifecycle_install.go) so the Install call that follows
// downloads the newly resolved version instead of re-downloading the
// stale current one. For a Sync dependent this must run after its
// target's own metadata has already been advanced and saved, since
// resolving a Sync specifier reads the target's Version.Current.
func (o *LifecycleOrchestrator) advanceToResolved(ctx context.Context, manifest *entities.Manifest, pn values.PluginName) error {
	md, found, err := o.metadata.Load(ctx, pn.String())
	if err != nil {
		return err
	}
	if !found {
		return mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, pn.String(), "", nil)
	}

	resolved, err := o.resolution.Resolve(ctx, manifest, pn)
	if err != nil {
		return err
	}

	md.Version.Current = entities.NormalizeVersion(resolved.Version.Version, resolved.Repository.VersionPattern)
	md.Download.DownloadID = resolved.Version.DownloadID
	if err := o.metadata.Save(ctx, pn.String(), md); err != nil {
		return mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, pn.String(), "", err)
	}
	return nil
}

// Update checks every managed plugin for a newer upstream version,
// best-effort backs up the plugin directory first if anything is
// outdated, then installs each outdated and unlocked plugin - followed by
// a Sync fan-out pass for any plugin bound to one that was just updated
// (§4.G update).
func (o *LifecycleOrchestrator) Update(ctx context.Context, logger *slog.Logger, vc VersionComparer, pluginDir string) ([]dto.UpdateResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	outdated, err := o.CheckAllOutdated(ctx, vc)
	if err != nil {
		return nil, err
	}

	anyOutdated := false
	for _, e := range outdated {
		if e.NeedsUpdate {
			anyOutdated = true
			break
		}
	}

	if anyOutdated && o.backups != nil {
		if _, err := o.backups.Create(ctx, entities.BackupUpdate, pluginDir); err != nil {
			logger.Warn("pre-update backup failed, proceeding without it", "error", err)
		}
	}

	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	var results []dto.UpdateResult
	updated := make(map[string]bool)

	for _, e := range outdated {
		if !e.NeedsUpdate {
			continue
		}
		pn, err := values.NewPluginName(e.Name)
		if err != nil {
			continue
		}
		md, found, _ := o.metadata.Load(ctx, e.Name)
		if found && md.Settings.Lock {
			results = append(results, dto.UpdateResult{Name: e.Name, Skipped: true})
			continue
		}

		if err := o.publish(ctx, ports.EventPluginUpdate, e.Name, updatePayload{From: e.Current, To: e.Latest}); err != nil {
			results = append(results, dto.UpdateResult{Name: e.Name, Cancelled: true, Err: err})
			continue
		}

		if err := o.advanceToResolved(ctx, manifest, pn); err != nil {
			results = append(results, dto.UpdateResult{Name: e.Name, Err: err})
			continue
		}

		installResult, err := o.Install(ctx, pn)
		if err != nil {
			results = append(results, dto.UpdateResult{Name: e.Name, Err: err})
			continue
		}
		results = append(results, dto.UpdateResult{Name: e.Name, Installed: installResult.Installed})
		updated[e.Name] = true
	}

	for u := range updated {
		target, err := values.NewPluginName(u)
		if err != nil {
			continue
		}
		for _, dependent := range manifest.GetPluginsSyncingTo(target) {
			if updated[dependent] {
				continue
			}
			md, found, _ := o.metadata.Load(ctx, dependent)
			if found && md.Settings.Lock {
				continue
			}
			pn, err := values.NewPluginName(dependent)
			if err != nil {
				continue
			}

			if err := o.advanceToResolved(ctx, manifest, pn); err != nil {
				results = append(results, dto.UpdateResult{Name: dependent, Err: err})
				continue
			}

			installResult, err := o.Install(ctx, pn)
			if err != nil {
				results = append(results, dto.UpdateResult{Name: dependent, Err: err})
				continue
			}
			results = append(results, dto.UpdateResult{Name: dependent, Installed: installResult.Installed})
			updated[dependent] = true
		}
	}

	return results, nil
}
