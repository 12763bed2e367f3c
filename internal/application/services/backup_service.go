package services

import (
	"context"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
)

// DefaultBackupRetention is how many newest backups CleanupOld keeps when
// the caller does not override it (§9 design notes).
const DefaultBackupRetention = 5

// BackupService wraps the BackupStore port with the policy layer the
// Lifecycle Orchestrator needs: every destructive lifecycle action that
// wants a safety net calls through here rather than the store directly
// (§4.H; §2 "H wraps any destructive G action").
type BackupService struct {
	store ports.BackupStore
}

// NewBackupService constructs a BackupService over its store.
func NewBackupService(store ports.BackupStore) *BackupService {
	return &BackupService{store: store}
}

// Create archives pluginDir for the given reason.
func (s *BackupService) Create(ctx context.Context, reason entities.BackupReason, pluginDir string) (*entities.ServerBackupInfo, error) {
	return s.store.Create(ctx, reason, pluginDir)
}

// List returns every recorded backup.
func (s *BackupService) List(ctx context.Context) ([]entities.ServerBackupInfo, error) {
	return s.store.List(ctx)
}

// Restore extracts backup id into pluginDir.
func (s *BackupService) Restore(ctx context.Context, id, pluginDir string) (*entities.RestoreResult, error) {
	return s.store.Restore(ctx, id, pluginDir)
}

// Delete removes backup id.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// CleanupOld retains only the keep newest backups, defaulting to
// DefaultBackupRetention when keep <= 0.
func (s *BackupService) CleanupOld(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = DefaultBackupRetention
	}
	return s.store.CleanupOld(ctx, keep)
}
