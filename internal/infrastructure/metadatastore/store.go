// Package metadatastore persists per-plugin PluginMetadata records as YAML
// files under a metadata directory, satisfying ports.MetadataStore (§4.C).
package metadatastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// Store keys metadata records by plugin name under a root
// directory, one YAML file per plugin. Concurrent writes to the same name
// are serialized by a per-name mutex; writes are atomic (temp + rename).
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

type wireEntry struct {
	PluginInfo struct {
		Name              string `yaml:"name"`
		CurrentVersionRaw string `yaml:"currentVersionRaw"`
	} `yaml:"pluginInfo"`
	Repository struct {
		Kind string `yaml:"kind"`
		ID   string `yaml:"id"`
	} `yaml:"repository"`
	Version struct {
		Current       wireLockedVersion `yaml:"current"`
		Latest        wireLockedVersion `yaml:"latest"`
		LastCheckedAt string            `yaml:"lastCheckedAt"`
	} `yaml:"version"`
	Download struct {
		URL        string `yaml:"url"`
		DownloadID string `yaml:"downloadId"`
		FileName   string `yaml:"fileName"`
		SHA256     string `yaml:"sha256"`
	} `yaml:"download"`
	Settings struct {
		Lock       bool `yaml:"lock"`
		AutoUpdate bool `yaml:"autoUpdate"`
		AutoCheck  bool `yaml:"autoCheck"`
	} `yaml:"settings"`
	History []struct {
		Version     string `yaml:"version"`
		InstalledAt string `yaml:"installedAt"`
		Action      string `yaml:"action"`
	} `yaml:"history"`
	FileNamePattern  string `yaml:"fileNamePattern,omitempty"`
	FileNameTemplate string `yaml:"fileNameTemplate,omitempty"`
}

var actionNames = map[entities.HistoryAction]string{
	entities.ActionAdd:       "add",
	entities.ActionInstall:   "install",
	entities.ActionUpdate:    "update",
	entities.ActionLock:      "lock",
	entities.ActionUnlock:    "unlock",
	entities.ActionCancelled: "cancelled",
}

func parseAction(s string) entities.HistoryAction {
	for action, name := range actionNames {
		if name == s {
			return action
		}
	}
	return entities.ActionAdd
}

func toWire(md *entities.PluginMetadata) wireEntry {
	var w wireEntry
	w.PluginInfo.Name = md.PluginInfo.Name
	w.PluginInfo.CurrentVersionRaw = md.PluginInfo.CurrentVersionRaw
	w.Repository.Kind = md.Repository.Kind.String()
	w.Repository.ID = md.Repository.ID
	w.Version.Current = wireLockedVersion{Raw: md.Version.Current.Raw, Normalized: md.Version.Current.Normalized}
	w.Version.Latest = wireLockedVersion{Raw: md.Version.Latest.Raw, Normalized: md.Version.Latest.Normalized}
	w.Version.LastCheckedAt = md.Version.LastCheckedAt.Format(timeFormat)
	w.Download.URL = md.Download.URL
	w.Download.DownloadID = md.Download.DownloadID
	w.Download.FileName = md.Download.FileName
	w.Download.SHA256 = md.Download.SHA256
	w.Settings.Lock = md.Settings.Lock
	w.Settings.AutoUpdate = md.Settings.AutoUpdate
	w.Settings.AutoCheck = md.Settings.AutoCheck
	for _, h := range md.History {
		w.History = append(w.History, struct {
			Version     string `yaml:"version"`
			InstalledAt string `yaml:"installedAt"`
			Action      string `yaml:"action"`
		}{Version: h.Version, InstalledAt: h.InstalledAt.Format(timeFormat), Action: actionNames[h.Action]})
	}
	w.FileNamePattern = md.FileNamePattern
	w.FileNameTemplate = md.FileNameTemplate
	return w
}

func fromWire(w wireEntry) *entities.PluginMetadata {
	kind, _ := entities.ParseRepositoryKind(w.Repository.Kind)
	md := &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: w.PluginInfo.Name, CurrentVersionRaw: w.PluginInfo.CurrentVersionRaw},
		Repository: entities.RepositoryRef{Kind: kind, ID: w.Repository.ID},
		Version: entities.VersionState{
			Current:       entities.LockedVersion{Raw: w.Version.Current.Raw, Normalized: w.Version.Current.Normalized},
			Latest:        entities.LockedVersion{Raw: w.Version.Latest.Raw, Normalized: w.Version.Latest.Normalized},
			LastCheckedAt: parseTime(w.Version.LastCheckedAt),
		},
		Download: entities.DownloadRecord{
			URL: w.Download.URL, DownloadID: w.Download.DownloadID,
			FileName: w.Download.FileName, SHA256: w.Download.SHA256,
		},
		Settings:         entities.Settings{Lock: w.Settings.Lock, AutoUpdate: w.Settings.AutoUpdate, AutoCheck: w.Settings.AutoCheck},
		FileNamePattern:  w.FileNamePattern,
		FileNameTemplate: w.FileNameTemplate,
	}
	for _, h := range w.History {
		md.History = append(md.History, entities.HistoryEntry{
			Version: h.Version, InstalledAt: parseTime(h.InstalledAt), Action: parseAction(h.Action),
		})
	}
	return md
}

type wireLockedVersion struct {
	Raw        string `yaml:"raw"`
	Normalized string `yaml:"normalized"`
}

// Create writes a brand-new record for name.
func (s *Store) Create(ctx context.Context, name string, repo entities.RepositoryRef, version entities.VersionState, action entities.HistoryAction) (*entities.PluginMetadata, error) {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	md := &entities.PluginMetadata{
		PluginInfo: entities.PluginInfo{Name: name, CurrentVersionRaw: version.Current.Raw},
		Repository: repo,
		Version:    version,
	}
	md.AppendHistory(version.Current.Raw, version.LastCheckedAt, action)

	if err := s.write(name, md); err != nil {
		return nil, mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, name, "", err)
	}
	return md, nil
}

// Update appends a history entry and refreshes current/latest.
func (s *Store) Update(ctx context.Context, name string, current, latest entities.LockedVersion, action entities.HistoryAction) (*entities.PluginMetadata, error) {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	md, err := s.read(name)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, mpmerrors.NewPluginError(mpmerrors.MetadataNotFound, name, "", nil)
	}

	md.Version.Current = current
	md.Version.Latest = latest
	md.PluginInfo.CurrentVersionRaw = current.Raw
	md.AppendHistory(current.Raw, md.Version.LastCheckedAt, action)

	if err := s.write(name, md); err != nil {
		return nil, mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, name, "", err)
	}
	return md, nil
}

// Load returns the record for name. Returns (nil, false, nil) if absent.
func (s *Store) Load(ctx context.Context, name string) (*entities.PluginMetadata, bool, error) {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	md, err := s.read(name)
	if err != nil {
		return nil, false, err
	}
	return md, md != nil, nil
}

// Save persists md verbatim under name.
func (s *Store) Save(ctx context.Context, name string, md *entities.PluginMetadata) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if err := s.write(name, md); err != nil {
		return mpmerrors.NewPluginError(mpmerrors.MetadataSaveFailed, name, "", err)
	}
	return nil
}

// Delete removes the record for name. Not an error if already absent.
func (s *Store) Delete(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.pathFor(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting metadata for %s: %w", name, err)
	}
	return nil
}

// List returns every plugin name with a metadata record.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing metadata directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) read(name string) (*entities.PluginMetadata, error) {
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading metadata for %s: %w", name, err)
	}
	var w wireEntry
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", name, err)
	}
	return fromWire(w), nil
}

func (s *Store) write(name string, md *entities.PluginMetadata) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	data, err := yaml.Marshal(toWire(md))
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmpPath, s.pathFor(name))
}
