package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/morinoparty/mpm/internal/application/dto"
	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/application/services"
	"github.com/morinoparty/mpm/internal/domain/entities"
	domainservices "github.com/morinoparty/mpm/internal/domain/services"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/infrastructure/events"
	"github.com/morinoparty/mpm/internal/mpmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManifestRepo is an in-memory ports.ManifestRepository.
type fakeManifestRepo struct {
	manifest *entities.Manifest
}

func (r *fakeManifestRepo) Load(ctx context.Context, path string) (*entities.Manifest, error) {
	if r.manifest == nil {
		return nil, mpmerrors.NewProjectError(mpmerrors.ConfigNotFound, path, nil)
	}
	return r.manifest, nil
}

func (r *fakeManifestRepo) Save(ctx context.Context, m *entities.Manifest, path string) error {
	r.manifest = m
	return nil
}

func (r *fakeManifestRepo) Exists(ctx context.Context, path string) (bool, error) {
	return r.manifest != nil, nil
}

// fakeMetadataStore is an in-memory ports.MetadataStore that actually
// persists Save calls, unlike resolution_engine_test.go's mockMetadataStore
// (which no-ops Save because the resolution engine never writes).
type fakeMetadataStore struct {
	records map[string]*entities.PluginMetadata
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{records: map[string]*entities.PluginMetadata{}}
}

func (s *fakeMetadataStore) Create(ctx context.Context, name string, repo entities.RepositoryRef, version entities.VersionState, action entities.HistoryAction) (*entities.PluginMetadata, error) {
	md := &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: name, CurrentVersionRaw: version.Current.Raw},
		Repository: repo,
		Version:    version,
	}
	md.AppendHistory(version.Current.Raw, version.LastCheckedAt, action)
	s.records[name] = md
	return md, nil
}

func (s *fakeMetadataStore) Update(ctx context.Context, name string, current, latest entities.LockedVersion, action entities.HistoryAction) (*entities.PluginMetadata, error) {
	md, ok := s.records[name]
	if !ok {
		return nil, mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, name, "", nil)
	}
	md.Version.Current = current
	md.Version.Latest = latest
	md.AppendHistory(current.Raw, time.Time{}, action)
	return md, nil
}

func (s *fakeMetadataStore) Load(ctx context.Context, name string) (*entities.PluginMetadata, bool, error) {
	md, ok := s.records[name]
	return md, ok, nil
}

func (s *fakeMetadataStore) Save(ctx context.Context, name string, md *entities.PluginMetadata) error {
	s.records[name] = md
	return nil
}

func (s *fakeMetadataStore) Delete(ctx context.Context, name string) error {
	delete(s.records, name)
	return nil
}

func (s *fakeMetadataStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.records))
	for n := range s.records {
		names = append(names, n)
	}
	return names, nil
}

// fakePluginDirectory is an in-memory ports.PluginDirectory that records
// every MoveInto/Delete call so tests can assert what was written.
type fakePluginDirectory struct {
	artifacts []string
	moved     []string
	deleted   []string
}

func (d *fakePluginDirectory) ListArtifacts(ctx context.Context) ([]string, error) {
	return d.artifacts, nil
}

func (d *fakePluginDirectory) MoveInto(ctx context.Context, sourcePath, fileName string) error {
	d.moved = append(d.moved, fileName)
	return nil
}

func (d *fakePluginDirectory) Delete(ctx context.Context, fileName string) error {
	d.deleted = append(d.deleted, fileName)
	return nil
}

// fakeDescriptorReader never finds a descriptor; no test here exercises
// Uninstall's artifact-matching path.
type fakeDescriptorReader struct{}

func (fakeDescriptorReader) ReadDescriptor(ctx context.Context, artifactPath string) (ports.DependencyDescriptor, error) {
	return ports.DependencyDescriptor{}, mpmerrors.NewPluginError(mpmerrors.NotFound, artifactPath, "no descriptor", nil)
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

// newOrchestrator wires an orchestrator over fakes for the given manifest,
// metadata records, and downloader. Returns the orchestrator plus the
// fakes a test needs to assert against.
func newOrchestrator(t *testing.T, manifest *entities.Manifest, metadata *fakeMetadataStore, dispatch ports.DownloaderDispatch) (*services.LifecycleOrchestrator, *fakeManifestRepo, *fakePluginDirectory) {
	t.Helper()

	manifests := &fakeManifestRepo{manifest: manifest}
	pluginDir := &fakePluginDirectory{}
	agg := &mockAggregator{files: map[string]entities.RepositoryFile{
		"Foo":   githubFile("owner/foo"),
		"Core":  githubFile("owner/core"),
		"Addon": githubFile("owner/addon"),
	}}
	resolution := services.NewResolutionEngine(agg, dispatch, metadata)
	backups := services.NewBackupService(&noopBackupStore{})
	orchestrator := services.NewLifecycleOrchestrator(
		"mpm.json",
		manifests,
		metadata,
		resolution,
		dispatch,
		pluginDir,
		fakeDescriptorReader{},
		events.NewBus(),
		backups,
		fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	)
	return orchestrator, manifests, pluginDir
}

// noopBackupStore never errors and reports nothing archived; Update's
// best-effort pre-update backup is not the subject of these tests.
type noopBackupStore struct{}

func (noopBackupStore) Create(ctx context.Context, reason entities.BackupReason, pluginDir string) (*entities.ServerBackupInfo, error) {
	return &entities.ServerBackupInfo{}, nil
}
func (noopBackupStore) List(ctx context.Context) ([]entities.ServerBackupInfo, error) { return nil, nil }
func (noopBackupStore) Restore(ctx context.Context, id, pluginDir string) (*entities.RestoreResult, error) {
	return &entities.RestoreResult{}, nil
}
func (noopBackupStore) Delete(ctx context.Context, id string) error           { return nil }
func (noopBackupStore) CleanupOld(ctx context.Context, keep int) (int, error) { return 0, nil }

func TestLifecycleOrchestrator_Add_CreatesManagedEntryAndMetadata(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	driver := &mockDriver{latest: ports.VersionData{DownloadID: "1", Version: "1.0.0"}}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: driver}}
	metadata := newFakeMetadataStore()

	orchestrator, manifests, _ := newOrchestrator(t, manifest, metadata, dispatch)

	err := orchestrator.Add(context.Background(), name(t, "Foo"), values.Latest())
	require.NoError(t, err)

	spec, ok := manifests.manifest.Get(name(t, "Foo"))
	require.True(t, ok)
	assert.True(t, spec.IsManaged())

	md, found, err := metadata.Load(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.0.0", md.Version.Current.Raw)
}

func TestLifecycleOrchestrator_Install_DownloadsCurrentAndRefreshesLatest(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Foo"), entities.Managed(values.Latest())))

	driver := &mockDriver{latest: ports.VersionData{DownloadID: "2", Version: "1.2.3"}}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: driver}}
	metadata := newFakeMetadataStore()
	metadata.records["Foo"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Foo"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/foo"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.0.0", "")},
	}

	orchestrator, _, pluginDir := newOrchestrator(t, manifest, metadata, dispatch)

	result, err := orchestrator.Install(context.Background(), name(t, "Foo"))
	require.NoError(t, err)
	assert.True(t, result.Installed)

	require.Len(t, pluginDir.moved, 1)
	assert.Contains(t, pluginDir.moved[0], "1.0.0")

	md, found, err := metadata.Load(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, found)
	// Install downloads whatever Version.Current already says and only
	// refreshes Latest - it never advances Current itself.
	assert.Equal(t, "1.0.0", md.Version.Current.Raw)
	assert.Equal(t, "1.2.3", md.Version.Latest.Raw)
}

func TestLifecycleOrchestrator_InstallAll_AdvancesCurrentBeforeDownloading(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Foo"), entities.Managed(values.Latest())))

	driver := &mockDriver{latest: ports.VersionData{DownloadID: "9", Version: "2.0.0"}}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: driver}}
	metadata := newFakeMetadataStore()
	metadata.records["Foo"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Foo"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/foo"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.0.0", "")},
	}

	orchestrator, _, pluginDir := newOrchestrator(t, manifest, metadata, dispatch)

	result, err := orchestrator.InstallAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Installed, "Foo")
	require.Empty(t, result.Failed)

	require.Len(t, pluginDir.moved, 1)
	assert.Contains(t, pluginDir.moved[0], "2.0.0")

	md, found, err := metadata.Load(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.0.0", md.Version.Current.Raw)
}

// TestLifecycleOrchestrator_Update_AdvancesCurrentToResolvedLatest is the
// regression test for the bug where Update re-downloaded the plugin's
// stale Version.Current instead of the newly resolved version: with
// current.raw=1.2.3 and upstream now at 2.0.0, a completed update must
// leave metadata with current.raw=2.0.0, not 1.2.3.
func TestLifecycleOrchestrator_Update_AdvancesCurrentToResolvedLatest(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Foo"), entities.Managed(values.Latest())))

	driver := &mockDriver{latest: ports.VersionData{DownloadID: "9", Version: "2.0.0"}}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: driver}}
	metadata := newFakeMetadataStore()
	metadata.records["Foo"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Foo"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/foo"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.2.3", "")},
	}

	orchestrator, _, pluginDir := newOrchestrator(t, manifest, metadata, dispatch)

	results, err := orchestrator.Update(context.Background(), nil, domainservices.SemverComparer{}, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Installed)
	assert.NoError(t, results[0].Err)

	md, found, err := metadata.Load(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.0.0", md.Version.Current.Raw, "update must persist the resolved version as current, not leave the stale one")

	require.Len(t, pluginDir.moved, 1)
	assert.Contains(t, pluginDir.moved[0], "2.0.0")
	assert.NotContains(t, pluginDir.moved[0], "1.2.3")
}

func TestLifecycleOrchestrator_Update_LockedPluginIsSkipped(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Foo"), entities.Managed(values.Latest())))

	driver := &mockDriver{latest: ports.VersionData{DownloadID: "9", Version: "2.0.0"}}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: driver}}
	metadata := newFakeMetadataStore()
	metadata.records["Foo"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Foo"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/foo"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.2.3", "")},
		Settings:   entities.Settings{Lock: true},
	}

	orchestrator, _, pluginDir := newOrchestrator(t, manifest, metadata, dispatch)

	results, err := orchestrator.Update(context.Background(), nil, domainservices.SemverComparer{}, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Empty(t, pluginDir.moved)

	md, found, err := metadata.Load(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1.2.3", md.Version.Current.Raw)
}

// TestLifecycleOrchestrator_Update_SyncDependentFollowsTargetsNewVersion
// covers S4: both Core and its Sync(Core) dependent Addon start with
// current.raw=1.2.3. After update, Core moves to 2.0.0 and the fan-out
// pass must re-resolve Addon's Sync specifier against Core's new version
// and persist it too - not leave Addon on its stale current.
func TestLifecycleOrchestrator_Update_SyncDependentFollowsTargetsNewVersion(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Core"), entities.Managed(values.Latest())))
	require.NoError(t, manifest.Add(name(t, "Addon"), entities.Managed(values.Sync("Core"))))

	// Core and Addon both resolve through RepositoryGitHub, so they share
	// one driver: Core's Latest spec drives GetLatestVersion, Addon's
	// Sync(Core) spec drives GetVersionByName against whatever raw
	// version Core's metadata currently reports.
	sharedDriver := &mockDriver{
		latest: ports.VersionData{DownloadID: "core-2", Version: "2.0.0"},
		byName: map[string]ports.VersionData{
			"1.2.3": {DownloadID: "addon-1.2.3", Version: "1.2.3"},
			"2.0.0": {DownloadID: "addon-2.0.0", Version: "2.0.0"},
		},
	}
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{entities.RepositoryGitHub: sharedDriver}}

	metadata := newFakeMetadataStore()
	metadata.records["Core"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Core"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/core"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.2.3", "")},
	}
	metadata.records["Addon"] = &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: "Addon"},
		Repository: entities.RepositoryRef{Kind: entities.RepositoryGitHub, ID: "owner/addon"},
		Version:    entities.VersionState{Current: entities.NormalizeVersion("1.2.3", "")},
	}

	orchestrator, _, _ := newOrchestrator(t, manifest, metadata, dispatch)

	results, err := orchestrator.Update(context.Background(), nil, domainservices.SemverComparer{}, t.TempDir())
	require.NoError(t, err)

	var core, addon *dto.UpdateResult
	for i := range results {
		switch results[i].Name {
		case "Core":
			core = &results[i]
		case "Addon":
			addon = &results[i]
		}
	}
	require.NotNil(t, core)
	require.NotNil(t, addon)
	assert.True(t, core.Installed)
	assert.NoError(t, core.Err)

	coreMD, found, err := metadata.Load(context.Background(), "Core")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.0.0", coreMD.Version.Current.Raw)

	addonMD, found, err := metadata.Load(context.Background(), "Addon")
	require.NoError(t, err)
	require.True(t, found)
	assert.NoError(t, addon.Err)
	assert.Equal(t, "2.0.0", addonMD.Version.Current.Raw, "sync dependent must follow its target's newly resolved version")
}

func TestLifecycleOrchestrator_Lock_ThenUnlock(t *testing.T) {
	t.Parallel()

	manifest := entities.NewManifest("server")
	require.NoError(t, manifest.Add(name(t, "Foo"), entities.Managed(values.Latest())))
	dispatch := &mockDispatch{drivers: map[entities.RepositoryKind]ports.Downloader{}}
	metadata := newFakeMetadataStore()
	metadata.records["Foo"] = &entities.PluginMetadata{PluginInfo: entities.PluginInfo{Name: "Foo"}}

	orchestrator, _, _ := newOrchestrator(t, manifest, metadata, dispatch)

	require.NoError(t, orchestrator.Lock(context.Background(), name(t, "Foo")))
	md, _, _ := metadata.Load(context.Background(), "Foo")
	assert.True(t, md.Settings.Lock)

	err := orchestrator.Lock(context.Background(), name(t, "Foo"))
	var pluginErr *mpmerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, mpmerrors.AlreadyLocked, pluginErr.Kind)

	require.NoError(t, orchestrator.Unlock(context.Background(), name(t, "Foo")))
	md, _, _ = metadata.Load(context.Background(), "Foo")
	assert.False(t, md.Settings.Lock)
}
