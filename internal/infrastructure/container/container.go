// Package container is the composition root: every port is wired to
// exactly one concrete adapter here, once, at process startup.
package container

import (
	"log/slog"
	"path/filepath"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/application/services"
	"github.com/morinoparty/mpm/internal/infrastructure/backup"
	"github.com/morinoparty/mpm/internal/infrastructure/depanalyzer"
	"github.com/morinoparty/mpm/internal/infrastructure/downloader"
	"github.com/morinoparty/mpm/internal/infrastructure/events"
	"github.com/morinoparty/mpm/internal/infrastructure/manifestio"
	"github.com/morinoparty/mpm/internal/infrastructure/metadatastore"
	"github.com/morinoparty/mpm/internal/infrastructure/plugindir"
	"github.com/morinoparty/mpm/internal/infrastructure/reposource"
)

// ownArtifactDefault is the tool's own binary name, excluded from every
// plugin-directory scan so mpm never mistakes itself for a managed JAR.
const ownArtifactDefault = "mpm"

// Options configure the container. Every path defaults relative to
// RootDir when left empty, mirroring a typical server layout:
// <root>/<manifest>, <root>/metadata, <root>/backups.
type Options struct {
	Logger *slog.Logger

	// RootDir is the server directory mpm operates against. Defaults to ".".
	RootDir string

	ManifestFileName string // defaults to "mpm.json"
	PluginDir        string // defaults to RootDir
	MetadataDir      string // defaults to <PluginDir>/metadata
	OwnArtifact      string // defaults to "mpm"

	// LocalSourceDirs are filesystem roots for Local RepositorySources,
	// tried in order before RemoteSourceURLs.
	LocalSourceDirs []string
	// RemoteSourceURLs are base URLs for Remote RepositorySources.
	RemoteSourceURLs []string
	// GitHubHeaders are sent with every GitHub API request (e.g. an
	// Authorization header, to raise the unauthenticated rate limit).
	GitHubHeaders map[string]string

	// BackupRetainCount is how many newest backups CleanupOld keeps.
	BackupRetainCount int
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RootDir == "" {
		o.RootDir = "."
	}
	if o.ManifestFileName == "" {
		o.ManifestFileName = "mpm.json"
	}
	if o.PluginDir == "" {
		o.PluginDir = o.RootDir
	}
	if o.MetadataDir == "" {
		o.MetadataDir = filepath.Join(o.PluginDir, "metadata")
	}
	if o.OwnArtifact == "" {
		o.OwnArtifact = ownArtifactDefault
	}
	if o.BackupRetainCount <= 0 {
		o.BackupRetainCount = 5
	}
}

// Container holds every wired port and application service.
type Container struct {
	logger       *slog.Logger
	manifestPath string
	pluginDir    string
	backupRetain int

	manifests   ports.ManifestRepository
	lockfiles   ports.LockfileRepository
	metadata    ports.MetadataStore
	repos       ports.RepositoryAggregator
	dispatch    ports.DownloaderDispatch
	pluginDirP  ports.PluginDirectory
	descriptors ports.DescriptorReader
	eventBus    *events.Bus
	clock       ports.Clock

	resolution *services.ResolutionEngine
	lifecycle  *services.LifecycleOrchestrator
	backups    *services.BackupService
	depGraph   *services.DependencyAnalyzer
}

// New wires the full dependency graph once, at startup.
func New(opts Options) (*Container, error) {
	opts.applyDefaults()

	clock := ports.SystemClock{}

	manifests := manifestio.NewRepository()
	lockfiles := manifestio.NewLockfileRepository()
	metadata := metadatastore.NewStore(opts.MetadataDir)
	descriptors := depanalyzer.NewReader()
	pluginDirectory := plugindir.New(opts.PluginDir, opts.OwnArtifact)
	dispatch := downloader.NewDispatch(opts.GitHubHeaders)
	eventBus := events.NewBus()
	backupStore := backup.NewStore(opts.PluginDir, descriptors, clock, opts.OwnArtifact)

	var sources []ports.RepositorySource
	for _, dir := range opts.LocalSourceDirs {
		sources = append(sources, reposource.NewLocal(dir))
	}
	for _, url := range opts.RemoteSourceURLs {
		sources = append(sources, reposource.NewRemote(url, nil))
	}
	repoManager := reposource.NewManager(sources)

	resolution := services.NewResolutionEngine(repoManager, dispatch, metadata)
	backupService := services.NewBackupService(backupStore)
	manifestPath := filepath.Join(opts.RootDir, opts.ManifestFileName)
	lifecycle := services.NewLifecycleOrchestrator(
		manifestPath,
		manifests,
		metadata,
		resolution,
		dispatch,
		pluginDirectory,
		descriptors,
		eventBus,
		backupService,
		clock,
	)
	depGraph := services.NewDependencyAnalyzer(pluginDirectory, descriptors)

	return &Container{
		logger:       opts.Logger,
		manifestPath: manifestPath,
		pluginDir:    opts.PluginDir,
		backupRetain: opts.BackupRetainCount,

		manifests:   manifests,
		lockfiles:   lockfiles,
		metadata:    metadata,
		repos:       repoManager,
		dispatch:    dispatch,
		pluginDirP:  pluginDirectory,
		descriptors: descriptors,
		eventBus:    eventBus,
		clock:       clock,

		resolution: resolution,
		lifecycle:  lifecycle,
		backups:    backupService,
		depGraph:   depGraph,
	}, nil
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// ManifestPath returns the resolved manifest file path.
func (c *Container) ManifestPath() string { return c.manifestPath }

// PluginDir returns the resolved plugin directory root.
func (c *Container) PluginDir() string { return c.pluginDir }

// BackupRetainCount returns how many newest backups cleanup retains.
func (c *Container) BackupRetainCount() int { return c.backupRetain }

// Manifests returns the manifest file port.
func (c *Container) Manifests() ports.ManifestRepository { return c.manifests }

// Lockfiles returns the lockfile port.
func (c *Container) Lockfiles() ports.LockfileRepository { return c.lockfiles }

// Metadata returns the per-plugin metadata store port.
func (c *Container) Metadata() ports.MetadataStore { return c.metadata }

// Repositories returns the catalogue aggregator port.
func (c *Container) Repositories() ports.RepositoryAggregator { return c.repos }

// Dispatch returns the per-upstream-kind downloader registry.
func (c *Container) Dispatch() ports.DownloaderDispatch { return c.dispatch }

// PluginDirectory returns the plugin-folder port.
func (c *Container) PluginDirectory() ports.PluginDirectory { return c.pluginDirP }

// Descriptors returns the in-archive descriptor reader.
func (c *Container) Descriptors() ports.DescriptorReader { return c.descriptors }

// Events returns the lifecycle event bus.
func (c *Container) Events() *events.Bus { return c.eventBus }

// Clock returns the wall-clock port.
func (c *Container) Clock() ports.Clock { return c.clock }

// Resolution returns the Resolution Engine.
func (c *Container) Resolution() *services.ResolutionEngine { return c.resolution }

// Lifecycle returns the Lifecycle Orchestrator.
func (c *Container) Lifecycle() *services.LifecycleOrchestrator { return c.lifecycle }

// Backups returns the Backup Service.
func (c *Container) Backups() *services.BackupService { return c.backups }

// DependencyAnalyzer returns the Dependency Analyzer.
func (c *Container) DependencyAnalyzer() *services.DependencyAnalyzer { return c.depGraph }
