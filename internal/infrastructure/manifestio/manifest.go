// Package manifestio persists the Manifest and optional Lockfile as JSON
// files, satisfying ports.ManifestRepository and ports.LockfileRepository.
package manifestio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/infrastructure/jsonschema"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// Repository reads and atomically writes manifest files on the local
// filesystem.
type Repository struct{}

// NewRepository constructs a manifest Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// manifestWire is the on-disk JSON shape (§6 manifest file).
type manifestWire struct {
	Name          string                    `json:"name"`
	SchemaVersion int                       `json:"schemaVersion"`
	Plugins       map[string]string         `json:"plugins"`
	Repositories  map[string]repositoryWire `json:"repositories,omitempty"`
}

type repositoryWire struct {
	Type                string `json:"type"`
	ID                  string `json:"id"`
	VersionPattern      string `json:"versionPattern,omitempty"`
	DownloadURLTemplate string `json:"downloadUrlTemplate,omitempty"`
	FileNamePattern     string `json:"fileNamePattern,omitempty"`
	FileNameTemplate    string `json:"fileNameTemplate,omitempty"`
}

func toRepositoryWire(c entities.RepositoryConfig) repositoryWire {
	return repositoryWire{
		Type:                c.Kind.String(),
		ID:                  c.ID,
		VersionPattern:      c.VersionPattern,
		DownloadURLTemplate: c.DownloadURLTemplate,
		FileNamePattern:     c.FileNamePattern,
		FileNameTemplate:    c.FileNameTemplate,
	}
}

func fromRepositoryWire(w repositoryWire) entities.RepositoryConfig {
	kind, _ := entities.ParseRepositoryKind(w.Type)
	return entities.RepositoryConfig{
		Kind:                kind,
		ID:                  w.ID,
		VersionPattern:      w.VersionPattern,
		DownloadURLTemplate: w.DownloadURLTemplate,
		FileNamePattern:     w.FileNamePattern,
		FileNameTemplate:    w.FileNameTemplate,
	}
}

// Load reads the manifest at path, returning ConfigNotFound if absent or
// ConfigParseError on malformed JSON.
func (r *Repository) Load(ctx context.Context, path string) (*entities.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mpmerrors.NewProjectError(mpmerrors.ConfigNotFound, path, nil)
		}
		return nil, mpmerrors.NewProjectError(mpmerrors.ConfigParseError, path, err)
	}

	if err := jsonschema.ValidateManifest(data); err != nil {
		return nil, mpmerrors.NewProjectError(mpmerrors.ConfigParseError, path, err)
	}

	var wire manifestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, mpmerrors.NewProjectError(mpmerrors.ConfigParseError, path, err)
	}

	m := &entities.Manifest{
		Name:          wire.Name,
		SchemaVersion: wire.SchemaVersion,
		Plugins:       make(map[string]entities.PluginSpec, len(wire.Plugins)),
	}
	for name, raw := range wire.Plugins {
		m.Plugins[name] = entities.ParsePluginSpec(raw)
	}
	if len(wire.Repositories) > 0 {
		m.Repositories = make(map[string]entities.RepositoryConfig, len(wire.Repositories))
		for name, w := range wire.Repositories {
			m.Repositories[name] = fromRepositoryWire(w)
		}
	}
	return m, nil
}

// Save atomically writes m to path (temp file then rename), serializing
// plugin and repository keys in the case-insensitive order
// Manifest.WithSortedKeys produces.
func (r *Repository) Save(ctx context.Context, m *entities.Manifest, path string) error {
	data, err := marshalManifest(m)
	if err != nil {
		return mpmerrors.NewProjectError(mpmerrors.SaveFailed, path, err)
	}
	if err := atomicWrite(path, data); err != nil {
		return mpmerrors.NewProjectError(mpmerrors.SaveFailed, path, err)
	}
	return nil
}

// Exists reports whether a manifest file is present at path.
func (r *Repository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// jsonField is one key/value pair of a manually-ordered JSON object.
type jsonField struct {
	key   string
	value any
}

// jsonObject marshals as a JSON object preserving field insertion order,
// unlike a Go map which encoding/json always sorts byte-wise - the
// manifest's plugins and repositories maps need the case-insensitive
// order Manifest.WithSortedKeys produces instead.
type jsonObject []jsonField

func (o jsonObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalManifest(m *entities.Manifest) ([]byte, error) {
	names := m.WithSortedKeys()
	plugins := make(jsonObject, 0, len(names))
	for _, name := range names {
		plugins = append(plugins, jsonField{key: name, value: m.Plugins[name].Format()})
	}

	top := jsonObject{
		{key: "name", value: m.Name},
		{key: "schemaVersion", value: m.SchemaVersion},
		{key: "plugins", value: plugins},
	}

	if len(m.Repositories) > 0 {
		repoNames := make([]string, 0, len(m.Repositories))
		for name := range m.Repositories {
			repoNames = append(repoNames, name)
		}
		sortCaseInsensitive(repoNames)
		repos := make(jsonObject, 0, len(repoNames))
		for _, name := range repoNames {
			repos = append(repos, jsonField{key: name, value: toRepositoryWire(m.Repositories[name])})
		}
		top = append(top, jsonField{key: "repositories", value: repos})
	}

	var buf bytes.Buffer
	encoded, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, err
	}
	buf.Write(encoded)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
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
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// sortCaseInsensitive mirrors the unexported helper entities.Manifest uses
// internally, so repository keys serialize in the same order as plugin keys.
func sortCaseInsensitive(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}
