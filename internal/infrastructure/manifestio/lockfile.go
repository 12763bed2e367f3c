package manifestio

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// LockfileRepository reads and atomically writes the optional lock file
// (§6) on the local filesystem.
type LockfileRepository struct{}

// NewLockfileRepository constructs a LockfileRepository.
func NewLockfileRepository() *LockfileRepository {
	return &LockfileRepository{}
}

type lockfileWire struct {
	LockfileVersion string                 `json:"lockfileVersion"`
	GeneratedAt     time.Time              `json:"generatedAt"`
	Plugins         map[string]lockEntryWire `json:"plugins"`
}

type lockEntryWire struct {
	Version     lockedVersionWire `json:"version"`
	Download    downloadWire      `json:"download"`
	Repository  repositoryRefWire `json:"repository"`
	InstalledAt time.Time         `json:"installedAt"`
}

type lockedVersionWire struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

type downloadWire struct {
	URL        string `json:"url"`
	DownloadID string `json:"downloadId"`
	FileName   string `json:"fileName"`
	SHA256     string `json:"sha256"`
}

type repositoryRefWire struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Load reads a lockfile from path. Returns nil, nil if absent.
func (r *LockfileRepository) Load(ctx context.Context, path string) (*entities.Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var wire lockfileWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	lf := &entities.Lockfile{
		LockfileVersion: wire.LockfileVersion,
		GeneratedAt:     wire.GeneratedAt,
		Plugins:         make(map[string]entities.LockEntry, len(wire.Plugins)),
	}
	for name, e := range wire.Plugins {
		kind, _ := entities.ParseRepositoryKind(e.Repository.Kind)
		lf.Plugins[name] = entities.LockEntry{
			Version: entities.LockedVersion{Raw: e.Version.Raw, Normalized: e.Version.Normalized},
			Download: entities.DownloadRecord{
				URL: e.Download.URL, DownloadID: e.Download.DownloadID,
				FileName: e.Download.FileName, SHA256: e.Download.SHA256,
			},
			Repository:  entities.RepositoryRef{Kind: kind, ID: e.Repository.ID},
			InstalledAt: e.InstalledAt,
		}
	}
	if err := lf.Validate(); err != nil {
		return nil, mpmerrors.NewProjectError(mpmerrors.ConfigParseError, path, err)
	}
	return lf, nil
}

// Save atomically writes lockfile to path.
func (r *LockfileRepository) Save(ctx context.Context, lockfile *entities.Lockfile, path string) error {
	wire := lockfileWire{
		LockfileVersion: lockfile.LockfileVersion,
		GeneratedAt:     lockfile.GeneratedAt,
		Plugins:         make(map[string]lockEntryWire, len(lockfile.Plugins)),
	}
	for name, e := range lockfile.Plugins {
		wire.Plugins[name] = lockEntryWire{
			Version: lockedVersionWire{Raw: e.Version.Raw, Normalized: e.Version.Normalized},
			Download: downloadWire{
				URL: e.Download.URL, DownloadID: e.Download.DownloadID,
				FileName: e.Download.FileName, SHA256: e.Download.SHA256,
			},
			Repository:  repositoryRefWire{Kind: e.Repository.Kind.String(), ID: e.Repository.ID},
			InstalledAt: e.InstalledAt,
		}
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomicWrite(path, data)
}
