package services

import (
	"fmt"
	"strings"

	"context"

	"github.com/morinoparty/mpm/internal/application/dto"
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

const defaultFileNameTemplate = "<pluginInfo.name>-<mpmInfo.version.current.normalized>.jar"

// renderFileName substitutes the two documented placeholders (§4.G install).
func renderFileName(template, name, normalized string) string {
	if template == "" {
		template = defaultFileNameTemplate
	}
	r := strings.NewReplacer(
		"<pluginInfo.name>", name,
		"<mpmInfo.version.current.normalized>", normalized,
	)
	return r.Replace(template)
}

func (o *LifecycleOrchestrator) driverAndURLData(repo entities.RepositoryRef) (ports.Downloader, ports.UrlData, error) {
	driver, ok := o.dispatch.DriverFor(repo.Kind)
	if !ok {
		return nil, nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", repo.Kind.String(), nil)
	}
	urlData, ok := driver.ExtractUrlData(repo.ID)
	if !ok {
		return nil, nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "malformed repository id "+repo.ID, nil)
	}
	return driver, urlData, nil
}

// Install downloads and places the artifact for an already-added plugin
// (§4.G install).
func (o *LifecycleOrchestrator) Install(ctx context.Context, pluginName values.PluginName) (dto.InstallResult, error) {
	if _, err := o.loadManifest(ctx); err != nil {
		return dto.InstallResult{}, err
	}

	md, found, err := o.metadata.Load(ctx, pluginName.String())
	if err != nil {
		return dto.InstallResult{}, err
	}
	if !found {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, pluginName.String(), "", nil)
	}

	driver, urlData, err := o.driverAndURLData(md.Repository)
	if err != nil {
		return dto.InstallResult{}, err
	}

	latest, err := driver.GetLatestVersion(ctx, urlData)
	if err != nil {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, pluginName.String(), "", fmt.Errorf("refreshing latest: %w", err))
	}
	md.Version.Latest = entities.NormalizeVersion(latest.Version, "")
	md.Version.LastCheckedAt = o.clock.Now()
	if err := o.metadata.Save(ctx, pluginName.String(), md); err != nil {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, pluginName.String(), "", err)
	}

	if err := o.publish(ctx, ports.EventPluginInstall, pluginName.String(), md.Version.Current.Raw); err != nil {
		return dto.InstallResult{}, err
	}

	current := ports.VersionData{DownloadID: md.Download.DownloadID, Version: md.Version.Current.Raw}
	template := md.FileNameTemplate
	fileName := renderFileName(template, pluginName.String(), md.Version.Current.Normalized)
	local, err := driver.DownloadByVersion(ctx, urlData, current, md.FileNamePattern)
	if err != nil {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, pluginName.String(), "", err)
	}

	result := dto.InstallResult{Name: pluginName.String()}
	if md.Download.FileName != "" && md.Download.FileName != fileName {
		if err := o.pluginDir.Delete(ctx, md.Download.FileName); err == nil {
			result.Removed = md.Download.FileName
		}
	}

	if err := o.pluginDir.MoveInto(ctx, local.Path, fileName); err != nil {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.InstallFailed, pluginName.String(), "", err)
	}

	md.Download.FileName = fileName
	md.Download.DownloadID = current.DownloadID
	md.AppendHistory(md.Version.Current.Raw, o.clock.Now(), entities.ActionInstall)
	if err := o.metadata.Save(ctx, pluginName.String(), md); err != nil {
		return dto.InstallResult{}, mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, pluginName.String(), "", err)
	}

	result.Installed = true
	return result, nil
}

// Uninstall deletes the managed plugin's artifact, manifest entry, and
// metadata record (§4.G uninstall; see S5).
func (o *LifecycleOrchestrator) Uninstall(ctx context.Context, pluginName values.PluginName) (dto.UninstallResult, error) {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return dto.UninstallResult{}, err
	}
	if _, ok := manifest.Get(pluginName); !ok {
		return dto.UninstallResult{}, mpmerrors.NewPluginError(mpmerrors.NotFound, pluginName.String(), "", nil)
	}

	artifacts, err := o.pluginDir.ListArtifacts(ctx)
	if err != nil {
		return dto.UninstallResult{}, fmt.Errorf("listing plugin directory: %w", err)
	}

	var matchPath string
	for _, path := range artifacts {
		descriptor, err := o.descriptors.ReadDescriptor(ctx, path)
		if err != nil {
			continue
		}
		if descriptor.Name == pluginName.String() {
			matchPath = path
			break
		}
	}

	if err := o.publish(ctx, ports.EventPluginUninstall, pluginName.String(), matchPath); err != nil {
		return dto.UninstallResult{}, err
	}

	var deletedFile string
	if matchPath != "" {
		deletedFile = fileNameOf(matchPath)
		if err := o.pluginDir.Delete(ctx, deletedFile); err != nil {
			return dto.UninstallResult{}, mpmerrors.NewPluginError(mpmerrors.UninstallFailed, pluginName.String(), "", err)
		}
	}

	if err := manifest.Remove(pluginName); err != nil {
		return dto.UninstallResult{}, err
	}
	if err := o.saveManifest(ctx, manifest); err != nil {
		return dto.UninstallResult{}, err
	}
	if err := o.metadata.Delete(ctx, pluginName.String()); err != nil {
		return dto.UninstallResult{}, mpmerrors.NewPluginError(mpmerrors.RemoveFailed, pluginName.String(), "", err)
	}

	return dto.UninstallResult{Name: pluginName.String(), DeletedFile: deletedFile}, nil
}

// InstallAll walks the manifest's topological order and installs every
// plugin whose resolved concrete version differs from metadata's current
// (§4.G installAll).
func (o *LifecycleOrchestrator) InstallAll(ctx context.Context) (dto.InstallAllResult, error) {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return dto.InstallAllResult{}, err
	}
	if err := manifest.ValidateSync(); err != nil {
		return dto.InstallAllResult{}, mpmerrors.NewProjectError(mpmerrors.SyncValidationFailed, "", err)
	}

	order := manifest.TopologicalOrder()
	result := dto.InstallAllResult{Failed: make(map[string]error)}

	for _, name := range order {
		spec := manifest.Plugins[name]
		if spec.IsUnmanaged() {
			continue
		}
		pn, err := values.NewPluginName(name)
		if err != nil {
			continue
		}

		md, found, _ := o.metadata.Load(ctx, name)
		currentRaw := ""
		if found {
			currentRaw = md.Version.Current.Raw
		}

		// Resolving here (rather than only inside Install) is what lets a
		// Sync dependent see its target's just-installed version: the
		// target is earlier in topological order, so its metadata.Current
		// has already been refreshed by the time this call runs.
		resolved, err := o.resolution.Resolve(ctx, manifest, pn)
		if err != nil {
			result.Failed[name] = err
			continue
		}
		targetRaw := resolved.Version.Version
		refresh := spec.Requirement().Kind() == values.SpecifierLatest

		if !refresh && found && currentRaw == targetRaw {
			continue
		}

		if found {
			md.Version.Current = entities.NormalizeVersion(targetRaw, resolved.Repository.VersionPattern)
			md.Download.DownloadID = resolved.Version.DownloadID
			if err := o.metadata.Save(ctx, name, md); err != nil {
				result.Failed[name] = err
				continue
			}
		}

		installResult, err := o.Install(ctx, pn)
		if err != nil {
			result.Failed[name] = err
			continue
		}
		result.Installed = append(result.Installed, name)
		if installResult.Removed != "" {
			result.Removed = append(result.Removed, installResult.Removed)
		}
	}

	return result, nil
}
