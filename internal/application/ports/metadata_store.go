package ports

import (
	"context"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

// MetadataStore persists per-plugin installed-state records, content-
// addressed by plugin name (§4.C). Writes to the same name MUST be
// serialized by the implementation; writes MUST be atomic (temp file then
// rename).
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type MetadataStore interface {
	// Create writes a brand-new record for name and returns it.
	Create(ctx context.Context, name string, repo entities.RepositoryRef, version entities.VersionState, action entities.HistoryAction) (*entities.PluginMetadata, error)

	// Update appends a history entry and refreshes the current/latest
	// version fields, returning the saved record.
	Update(ctx context.Context, name string, current, latest entities.LockedVersion, action entities.HistoryAction) (*entities.PluginMetadata, error)

	// Load returns the record for name. Returns (nil, false) if absent.
	Load(ctx context.Context, name string) (*entities.PluginMetadata, bool, error)

	// Save persists md verbatim under name.
	Save(ctx context.Context, name string, md *entities.PluginMetadata) error

	// Delete removes the record for name. Not an error if already absent.
	Delete(ctx context.Context, name string) error

	// List returns every plugin name with a metadata record.
	List(ctx context.Context) ([]string, error)
}
