package ports

import (
	"context"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

// ManifestRepository handles manifest-file persistence. Writes MUST be
// atomic (temp file then rename) and MUST serialize plugin keys via
// Manifest.WithSortedKeys.
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type ManifestRepository interface {
	// Load reads the manifest at path. Returns ConfigNotFound if absent.
	Load(ctx context.Context, path string) (*entities.Manifest, error)

	// Save atomically writes m to path.
	Save(ctx context.Context, m *entities.Manifest, path string) error

	// Exists reports whether a manifest file is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// LockfileRepository handles lock-file persistence (§6, optional file).
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type LockfileRepository interface {
	// Load reads a lockfile from path. Returns nil, nil if absent.
	Load(ctx context.Context, path string) (*entities.Lockfile, error)

	// Save writes lockfile to path.
	Save(ctx context.Context, lockfile *entities.Lockfile, path string) error
}
