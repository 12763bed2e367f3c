package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/morinoparty/mpm/internal/application/services"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackupStore struct {
	created    []entities.BackupReason
	backups    []entities.ServerBackupInfo
	deleted    []string
	restored   string
	cleanupKey int
}

func (s *mockBackupStore) Create(ctx context.Context, reason entities.BackupReason, pluginDir string) (*entities.ServerBackupInfo, error) {
	s.created = append(s.created, reason)
	info := entities.ServerBackupInfo{ID: "abc123", CreatedAt: time.Unix(0, 0), Reason: reason}
	s.backups = append(s.backups, info)
	return &info, nil
}

func (s *mockBackupStore) List(ctx context.Context) ([]entities.ServerBackupInfo, error) {
	return s.backups, nil
}

func (s *mockBackupStore) Restore(ctx context.Context, id, pluginDir string) (*entities.RestoreResult, error) {
	s.restored = id
	return &entities.RestoreResult{RestoredPlugins: []string{"Foo"}}, nil
}

func (s *mockBackupStore) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *mockBackupStore) CleanupOld(ctx context.Context, keep int) (int, error) {
	s.cleanupKey = keep
	return 0, nil
}

func TestBackupService_CreateListRestoreDelete(t *testing.T) {
	t.Parallel()

	store := &mockBackupStore{}
	svc := services.NewBackupService(store)

	info, err := svc.Create(context.Background(), entities.BackupManual, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, "abc123", info.ID)
	assert.Equal(t, []entities.BackupReason{entities.BackupManual}, store.created)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	result, err := svc.Restore(context.Background(), "abc123", "/plugins")
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo"}, result.RestoredPlugins)
	assert.Equal(t, "abc123", store.restored)

	require.NoError(t, svc.Delete(context.Background(), "abc123"))
	assert.Equal(t, []string{"abc123"}, store.deleted)
}

func TestBackupService_CleanupOld_DefaultsWhenNonPositive(t *testing.T) {
	t.Parallel()

	store := &mockBackupStore{}
	svc := services.NewBackupService(store)

	_, err := svc.CleanupOld(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultBackupRetention, store.cleanupKey)

	_, err = svc.CleanupOld(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultBackupRetention, store.cleanupKey)
}

func TestBackupService_CleanupOld_RespectsExplicitKeep(t *testing.T) {
	t.Parallel()

	store := &mockBackupStore{}
	svc := services.NewBackupService(store)

	_, err := svc.CleanupOld(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, store.cleanupKey)
}
