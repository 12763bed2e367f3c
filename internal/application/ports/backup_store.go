package ports

import (
	"context"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

// BackupStore archives and restores the plugin directory (§4.H).
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type BackupStore interface {
	// Create archives pluginDir (excluding the tool's own subdirectory)
	// into a new ZIP and records it in the index.
	Create(ctx context.Context, reason entities.BackupReason, pluginDir string) (*entities.ServerBackupInfo, error)

	// List returns every recorded backup, as indexed.
	List(ctx context.Context) ([]entities.ServerBackupInfo, error)

	// Restore extracts backup id into pluginDir, guarding against zip-slip:
	// a crafted entry resolving outside pluginDir MUST abort before any
	// file is written.
	Restore(ctx context.Context, id string, pluginDir string) (*entities.RestoreResult, error)

	// Delete removes the backup file, then its index entry - never the
	// reverse. A file-delete failure MUST leave the index untouched.
	Delete(ctx context.Context, id string) error

	// CleanupOld retains only the keep newest backups by CreatedAt,
	// returning how many were removed.
	CleanupOld(ctx context.Context, keep int) (int, error)
}
