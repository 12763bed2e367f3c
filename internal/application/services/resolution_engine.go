// Package services implements the application's use-case orchestration:
// the Resolution Engine, the Lifecycle Orchestrator, and the Backup
// Service. These depend only on ports, never on concrete infrastructure.
package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// ResolutionEngine turns a plugin's VersionSpecifier into a concrete
// ports.VersionData and the RepositoryConfig it was resolved against
// (§4.F).
type ResolutionEngine struct {
	repos    ports.RepositoryAggregator
	dispatch ports.DownloaderDispatch
	metadata ports.MetadataStore
}

// NewResolutionEngine constructs a ResolutionEngine over its three
// collaborators.
func NewResolutionEngine(repos ports.RepositoryAggregator, dispatch ports.DownloaderDispatch, metadata ports.MetadataStore) *ResolutionEngine {
	return &ResolutionEngine{repos: repos, dispatch: dispatch, metadata: metadata}
}

// Resolved is the outcome of a successful Resolve call.
type Resolved struct {
	Version    ports.VersionData
	Repository entities.RepositoryConfig
}

// Resolve implements §4.F steps 1-4 for a single plugin.
func (e *ResolutionEngine) Resolve(ctx context.Context, manifest *entities.Manifest, name values.PluginName) (Resolved, error) {
	if err := manifest.ValidateSync(); err != nil {
		return Resolved{}, err
	}

	spec, ok := manifest.Get(name)
	if !ok || spec.IsUnmanaged() {
		return Resolved{}, mpmerrors.NewPluginError(mpmerrors.NotManaged, name.String(), "", nil)
	}

	repoCfg, err := e.repositoryFor(ctx, manifest, name)
	if err != nil {
		return Resolved{}, err
	}

	driver, ok := e.dispatch.DriverFor(repoCfg.Kind)
	if !ok {
		return Resolved{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, name.String(), repoCfg.Kind.String(), nil)
	}

	urlData, ok := driver.ExtractUrlData(repoCfg.ID)
	if !ok {
		return Resolved{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, name.String(), "malformed repository id "+repoCfg.ID, nil)
	}

	version, err := e.resolveBySpecifier(ctx, manifest, name, spec.Requirement(), driver, urlData, repoCfg)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Version: version, Repository: repoCfg}, nil
}

// repositoryFor returns the manifest-level override for name if present,
// else the catalogue's primary repository (§4.F step 2, plus the
// manifest-override addition in SPEC_FULL.md §3).
func (e *ResolutionEngine) repositoryFor(ctx context.Context, manifest *entities.Manifest, name values.PluginName) (entities.RepositoryConfig, error) {
	if override, ok := manifest.Repositories[name.String()]; ok {
		return override, nil
	}

	file, ok := e.repos.GetRepositoryFile(ctx, name.String())
	if !ok {
		return entities.RepositoryConfig{}, mpmerrors.NewPluginError(mpmerrors.RepositoryNotFound, name.String(), "", nil)
	}
	repoCfg, ok := file.PrimaryRepository()
	if !ok {
		return entities.RepositoryConfig{}, mpmerrors.NewPluginError(mpmerrors.RepositoryNotFound, name.String(), "catalogue entry has no repositories", nil)
	}
	return repoCfg, nil
}

func (e *ResolutionEngine) resolveBySpecifier(
	ctx context.Context,
	manifest *entities.Manifest,
	name values.PluginName,
	spec values.VersionSpecifier,
	driver ports.Downloader,
	urlData ports.UrlData,
	repoCfg entities.RepositoryConfig,
) (ports.VersionData, error) {
	switch spec.Kind() {
	case values.SpecifierLatest:
		v, err := driver.GetLatestVersion(ctx, urlData)
		if err != nil {
			return ports.VersionData{}, wrapResolution(name, err)
		}
		return v, nil

	case values.SpecifierFixed:
		// NOTE: this intentionally preserves the source's documented
		// current behavior: it fetches latest purely to obtain a
		// downloadId context rather than resolving the id of the
		// requested version itself.
		// TODO: call driver.GetVersionByName(ctx, urlData, spec.Value())
		// instead once the downloadId-per-version contract is verified
		// safe to rely on for every driver kind.
		latest, err := driver.GetLatestVersion(ctx, urlData)
		if err != nil {
			return ports.VersionData{}, wrapResolution(name, err)
		}
		return ports.VersionData{DownloadID: latest.DownloadID, Version: spec.Value()}, nil

	case values.SpecifierPattern:
		re, err := regexp.Compile(spec.Value())
		if err != nil {
			return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, name.String(), "invalid pattern: "+err.Error(), err)
		}
		versions, err := driver.GetAllVersions(ctx, urlData)
		if err != nil {
			return ports.VersionData{}, wrapResolution(name, err)
		}
		for _, v := range versions {
			if re.MatchString(v.Version) {
				return v, nil
			}
		}
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, name.String(), "no version matches pattern "+spec.Value(), nil)

	case values.SpecifierTag:
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, name.String(), "tag unsupported", nil)

	case values.SpecifierSync:
		return e.resolveSync(ctx, manifest, name, spec, driver, urlData, repoCfg)

	default:
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, name.String(), "unknown specifier kind", nil)
	}
}

func (e *ResolutionEngine) resolveSync(
	ctx context.Context,
	manifest *entities.Manifest,
	name values.PluginName,
	spec values.VersionSpecifier,
	driver ports.Downloader,
	urlData ports.UrlData,
	repoCfg entities.RepositoryConfig,
) (ports.VersionData, error) {
	target, _ := spec.SyncTarget()

	targetSpec, ok := manifest.Plugins[target]
	if !ok {
		return ports.VersionData{}, mpmerrors.NewSyncError(mpmerrors.TargetNotFound, name.String(), target)
	}
	if targetSpec.IsUnmanaged() {
		return ports.VersionData{}, mpmerrors.NewSyncError(mpmerrors.TargetIsUnmanaged, name.String(), target)
	}
	if _, isSync := targetSpec.Requirement().SyncTarget(); isSync {
		return ports.VersionData{}, mpmerrors.NewSyncError(mpmerrors.TargetIsSync, name.String(), target)
	}

	resolvedRaw, err := e.targetRawVersion(ctx, manifest, target, targetSpec)
	if err != nil {
		return ports.VersionData{}, err
	}

	// Resolved against the DEPENDENT's repository, per §4.F step 4.
	v, err := driver.GetVersionByName(ctx, urlData, resolvedRaw)
	if err != nil {
		return ports.VersionData{}, wrapResolution(name, err)
	}
	return v, nil
}

// targetRawVersion determines the sync target's concrete raw version: if
// the target requirement is "latest", read it from the target's metadata
// when present, else resolve latest against the target's own repository.
// Otherwise the target's stored literal is used directly.
func (e *ResolutionEngine) targetRawVersion(ctx context.Context, manifest *entities.Manifest, target string, targetSpec entities.PluginSpec) (string, error) {
	if targetSpec.Requirement().Kind() != values.SpecifierLatest {
		return targetSpec.Requirement().Value(), nil
	}

	targetName, err := values.NewPluginName(target)
	if err != nil {
		return "", mpmerrors.NewSyncError(mpmerrors.TargetNotFound, target, target)
	}

	if md, found, err := e.metadata.Load(ctx, targetName.String()); err == nil && found {
		return md.Version.Current.Raw, nil
	}

	targetRepoCfg, err := e.repositoryFor(ctx, manifest, targetName)
	if err != nil {
		return "", err
	}
	targetDriver, ok := e.dispatch.DriverFor(targetRepoCfg.Kind)
	if !ok {
		return "", mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, target, targetRepoCfg.Kind.String(), nil)
	}
	targetUrlData, ok := targetDriver.ExtractUrlData(targetRepoCfg.ID)
	if !ok {
		return "", mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, target, "malformed repository id "+targetRepoCfg.ID, nil)
	}
	latest, err := targetDriver.GetLatestVersion(ctx, targetUrlData)
	if err != nil {
		return "", mpmerrors.NewSyncError(mpmerrors.VersionNotAvailable, target, target)
	}
	return latest.Version, nil
}

func wrapResolution(name values.PluginName, err error) error {
	return mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, name.String(), "", fmt.Errorf("resolving version: %w", err))
}
