package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/morinoparty/mpm/internal/application/dto"
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// LifecycleOrchestrator implements the plugin lifecycle state transitions
// of §4.G: add, remove, install, uninstall, update, installAll,
// removeUnmanaged, lock, unlock. Every operation requires a valid
// manifest, otherwise it fails with NotInitialized.
type LifecycleOrchestrator struct {
	manifestPath string
	manifests    ports.ManifestRepository
	metadata     ports.MetadataStore
	resolution   *ResolutionEngine
	dispatch     ports.DownloaderDispatch
	pluginDir    ports.PluginDirectory
	descriptors  ports.DescriptorReader
	events       ports.EventBus
	backups      *BackupService
	clock        ports.Clock
}

// NewLifecycleOrchestrator wires every collaborator the orchestrator needs.
func NewLifecycleOrchestrator(
	manifestPath string,
	manifests ports.ManifestRepository,
	metadata ports.MetadataStore,
	resolution *ResolutionEngine,
	dispatch ports.DownloaderDispatch,
	pluginDir ports.PluginDirectory,
	descriptors ports.DescriptorReader,
	events ports.EventBus,
	backups *BackupService,
	clock ports.Clock,
) *LifecycleOrchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &LifecycleOrchestrator{
		manifestPath: manifestPath,
		manifests:    manifests,
		metadata:     metadata,
		resolution:   resolution,
		dispatch:     dispatch,
		pluginDir:    pluginDir,
		descriptors:  descriptors,
		events:       events,
		backups:      backups,
		clock:        clock,
	}
}

// loadManifest loads the manifest, translating a missing file into
// NotInitialized.
func (o *LifecycleOrchestrator) loadManifest(ctx context.Context) (*entities.Manifest, error) {
	m, err := o.manifests.Load(ctx, o.manifestPath)
	if err != nil {
		var projectErr *mpmerrors.ProjectError
		if errors.As(err, &projectErr) && projectErr.Kind == mpmerrors.ConfigNotFound {
			return nil, mpmerrors.NewProjectError(mpmerrors.NotInitialized, "", err)
		}
		return nil, err
	}
	return m, nil
}

func (o *LifecycleOrchestrator) saveManifest(ctx context.Context, m *entities.Manifest) error {
	if err := o.manifests.Save(ctx, m, o.manifestPath); err != nil {
		return mpmerrors.NewProjectError(mpmerrors.SaveFailed, "", err)
	}
	return nil
}

// publish broadcasts a cancellable event and returns OperationCancelled
// if any subscriber cancelled it.
func (o *LifecycleOrchestrator) publish(ctx context.Context, kind ports.EventKind, plugin string, payload any) error {
	event := &ports.LifecycleEvent{Kind: kind, Plugin: plugin, Payload: payload}
	o.events.Publish(ctx, event)
	if event.Cancelled() {
		return mpmerrors.NewOperationCancelled(plugin, kind.String())
	}
	return nil
}

// Add resolves name's requirement, creates its metadata record, and
// records the entry in the manifest (§4.G add).
func (o *LifecycleOrchestrator) Add(ctx context.Context, pluginName values.PluginName, requirement values.VersionSpecifier) error {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return err
	}

	probe := *manifest
	probe.Plugins = cloneSpecs(manifest.Plugins)
	probe.Plugins[pluginName.String()] = entities.Managed(requirement)

	resolved, err := o.resolution.Resolve(ctx, &probe, pluginName)
	if err != nil {
		return err
	}

	if err := o.publish(ctx, ports.EventPluginAdd, pluginName.String(), requirement.Format()); err != nil {
		return err
	}

	current := entities.NormalizeVersion(resolved.Version.Version, resolved.Repository.VersionPattern)
	repoRef := entities.RepositoryRef{Kind: resolved.Repository.Kind, ID: resolved.Repository.ID}
	if _, err := o.metadata.Create(ctx, pluginName.String(), repoRef, entities.VersionState{Current: current, LastCheckedAt: o.clock.Now()}, entities.ActionAdd); err != nil {
		return mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, pluginName.String(), "", err)
	}

	persisted := persistedSpecifier(requirement, resolved.Version.Version)
	if err := manifest.Add(pluginName, entities.Managed(persisted)); err != nil {
		return err
	}
	return o.saveManifest(ctx, manifest)
}

// persistedSpecifier renders the on-wire requirement stored back into the
// manifest: Latest and Sync keep their literal form, Fixed/Pattern are
// pinned to the concrete resolved version string (§4.G add).
func persistedSpecifier(requirement values.VersionSpecifier, resolvedRaw string) values.VersionSpecifier {
	switch requirement.Kind() {
	case values.SpecifierLatest, values.SpecifierSync:
		return requirement
	default:
		return values.Fixed(resolvedRaw)
	}
}

func cloneSpecs(src map[string]entities.PluginSpec) map[string]entities.PluginSpec {
	dst := make(map[string]entities.PluginSpec, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Remove deletes the manifest entry only; the artifact file and any
// metadata record are left untouched (§4.G remove; see S5).
func (o *LifecycleOrchestrator) Remove(ctx context.Context, pluginName values.PluginName) error {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return err
	}
	if err := manifest.Remove(pluginName); err != nil {
		return err
	}
	if err := o.publish(ctx, ports.EventPluginRemove, pluginName.String(), nil); err != nil {
		return err
	}
	return o.saveManifest(ctx, manifest)
}

// Lock sets settings.lock, failing AlreadyLocked if already set.
func (o *LifecycleOrchestrator) Lock(ctx context.Context, pluginName values.PluginName) error {
	return o.setLock(ctx, pluginName, true, ports.EventPluginLock, mpmerrors.AlreadyLocked)
}

// Unlock clears settings.lock, failing NotLocked if already clear.
func (o *LifecycleOrchestrator) Unlock(ctx context.Context, pluginName values.PluginName) error {
	return o.setLock(ctx, pluginName, false, ports.EventPluginUnlock, mpmerrors.NotLocked)
}

func (o *LifecycleOrchestrator) setLock(ctx context.Context, pluginName values.PluginName, desired bool, kind ports.EventKind, alreadyKind mpmerrors.PluginKind) error {
	if _, err := o.loadManifest(ctx); err != nil {
		return err
	}
	md, found, err := o.metadata.Load(ctx, pluginName.String())
	if err != nil {
		return err
	}
	if !found {
		return mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, pluginName.String(), "", nil)
	}
	if md.Settings.Lock == desired {
		return mpmerrors.NewPluginError(alreadyKind, pluginName.String(), "", nil)
	}
	if err := o.publish(ctx, kind, pluginName.String(), nil); err != nil {
		return err
	}
	md.Settings.Lock = desired
	if err := o.metadata.Save(ctx, pluginName.String(), md); err != nil {
		return mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, pluginName.String(), "", err)
	}
	return nil
}

// RemoveUnmanaged deletes every artifact whose declared name is absent
// from the manifest, skipping a configured local/ subtree and the tool's
// own artifact (enforced by the PluginDirectory adapter). Returns the
// count removed.
func (o *LifecycleOrchestrator) RemoveUnmanaged(ctx context.Context) (int, error) {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return 0, err
	}

	artifacts, err := o.pluginDir.ListArtifacts(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing plugin directory: %w", err)
	}

	removed := 0
	for _, path := range artifacts {
		descriptor, err := o.descriptors.ReadDescriptor(ctx, path)
		if err != nil {
			continue
		}
		if _, managed := manifest.Plugins[descriptor.Name]; managed {
			continue
		}
		if err := o.pluginDir.Delete(ctx, fileNameOf(path)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func fileNameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// CheckAllOutdated resolves each managed plugin's own requirement (Sync
// included) and reports whether the resolved version is newer than the
// recorded current one. Plugins without metadata, or whose resolution
// fails, are left out. Used by Update and by the `outdated` CLI command.
func (o *LifecycleOrchestrator) CheckAllOutdated(ctx context.Context, vc VersionComparer) ([]dto.OutdatedEntry, error) {
	manifest, err := o.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	var entries []dto.OutdatedEntry
	for _, name := range manifest.WithSortedKeys() {
		spec := manifest.Plugins[name]
		if spec.IsUnmanaged() {
			continue
		}
		pn, _ := values.NewPluginName(name)
		md, found, err := o.metadata.Load(ctx, name)
		if err != nil || !found {
			continue
		}

		resolved, err := o.resolution.Resolve(ctx, manifest, pn)
		if err != nil {
			continue
		}
		latest := entities.NormalizeVersion(resolved.Version.Version, resolved.Repository.VersionPattern)

		entries = append(entries, dto.OutdatedEntry{
			Name:        name,
			Current:     md.Version.Current.Raw,
			Latest:      latest.Raw,
			NeedsUpdate: vc.IsNewer(md.Version.Current.Raw, latest.Raw),
			CheckedAt:   o.clock.Now(),
		})
	}
	return entries, nil
}

// VersionComparer decides whether a candidate raw version is newer than
// a current one; satisfied by domain/services.SemverComparer.
type VersionComparer interface {
	IsNewer(current, candidate string) bool
}
