package backup

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

const defaultLocalSubtree = "local"

// Store is the filesystem-backed ports.BackupStore: ZIP archives under dir,
// catalogued in dir/index.yaml.
type Store struct {
	dir          string
	descriptors  ports.DescriptorReader
	clock        ports.Clock
	localSubtree string
	ownArtifact  string
}

// NewStore constructs a Store rooted at dir (typically <root>/backups).
// ownArtifact is the tool's own binary/artifact file name, excluded from
// every archive the same way PluginDirectory.ListArtifacts excludes it.
func NewStore(dir string, descriptors ports.DescriptorReader, clock ports.Clock, ownArtifact string) *Store {
	return &Store{dir: dir, descriptors: descriptors, clock: clock, localSubtree: defaultLocalSubtree, ownArtifact: ownArtifact}
}

func newBackupID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// Create archives pluginDir into a new ZIP and records it in the index.
func (s *Store) Create(ctx context.Context, reason entities.BackupReason, pluginDir string) (*entities.ServerBackupInfo, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupCreateFailed, "", "create backup directory", err)
	}

	id := newBackupID()
	now := s.clock.Now()
	fileName := "backup-" + now.Format("2006-01-02-150405") + "-" + id + ".zip"
	destPath := filepath.Join(s.dir, fileName)

	size, topLevel, err := createArchive(pluginDir, destPath, s.localSubtree, s.ownArtifact)
	if err != nil {
		_ = os.Remove(destPath)
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupCreateFailed, id, "archive plugin directory", err)
	}

	info := entities.ServerBackupInfo{
		ID:              id,
		CreatedAt:       now,
		Reason:          reason,
		FileName:        fileName,
		PluginsIncluded: descriptorNames(ctx, s.descriptors, pluginDir, topLevel),
		SizeBytes:       size,
	}

	doc, err := loadIndex(s.dir)
	if err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupIndexCorrupt, id, "load index", err)
	}
	doc.Backups = append(doc.Backups, toIndexEntry(info))
	if err := saveIndex(s.dir, doc); err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupCreateFailed, id, "save index", err)
	}

	return &info, nil
}

// List returns every recorded backup, as indexed.
func (s *Store) List(ctx context.Context) ([]entities.ServerBackupInfo, error) {
	doc, err := loadIndex(s.dir)
	if err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupIndexCorrupt, "", "load index", err)
	}
	out := make([]entities.ServerBackupInfo, len(doc.Backups))
	for i, e := range doc.Backups {
		out[i] = fromIndexEntry(e)
	}
	return out, nil
}

func (s *Store) find(doc indexDocument, id string) (indexEntry, int, bool) {
	for i, e := range doc.Backups {
		if e.ID == id {
			return e, i, true
		}
	}
	return indexEntry{}, -1, false
}

// Restore extracts backup id into pluginDir, guarding against zip-slip.
func (s *Store) Restore(ctx context.Context, id string, pluginDir string) (*entities.RestoreResult, error) {
	doc, err := loadIndex(s.dir)
	if err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupIndexCorrupt, id, "load index", err)
	}
	entry, _, ok := s.find(doc, id)
	if !ok {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupNotFound, id, "", nil)
	}

	archivePath := filepath.Join(s.dir, entry.FileName)

	if err := cleanPluginDir(pluginDir, s.localSubtree); err != nil {
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupRestoreFailed, id, "clean plugin directory", err)
	}

	topLevel, err := extractArchive(archivePath, pluginDir)
	if err != nil {
		if backupErr, ok := err.(*mpmerrors.BackupError); ok {
			backupErr.ID = id
			return nil, backupErr
		}
		return nil, mpmerrors.NewBackupError(mpmerrors.BackupRestoreFailed, id, "extract archive", err)
	}

	restoredPlugins := descriptorNames(ctx, s.descriptors, pluginDir, topLevel)
	pluginSet := make(map[string]bool, len(restoredPlugins))
	for _, p := range restoredPlugins {
		pluginSet[p] = true
	}

	var restoredConfigs []string
	for _, top := range topLevel {
		if pluginSet[top] {
			continue
		}
		restoredConfigs = append(restoredConfigs, top)
	}
	sort.Strings(restoredConfigs)

	return &entities.RestoreResult{RestoredPlugins: restoredPlugins, RestoredConfigs: restoredConfigs}, nil
}

// Delete removes the backup file, then its index entry - never the reverse.
func (s *Store) Delete(ctx context.Context, id string) error {
	doc, err := loadIndex(s.dir)
	if err != nil {
		return mpmerrors.NewBackupError(mpmerrors.BackupIndexCorrupt, id, "load index", err)
	}
	entry, idx, ok := s.find(doc, id)
	if !ok {
		return mpmerrors.NewBackupError(mpmerrors.BackupNotFound, id, "", nil)
	}

	path := filepath.Join(s.dir, entry.FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return mpmerrors.NewBackupError(mpmerrors.BackupDeleteFailed, id, "delete archive file", err)
	}

	doc.Backups = append(doc.Backups[:idx], doc.Backups[idx+1:]...)
	if err := saveIndex(s.dir, doc); err != nil {
		return mpmerrors.NewBackupError(mpmerrors.BackupDeleteFailed, id, "save index", err)
	}
	return nil
}

// CleanupOld retains only the keep newest backups by CreatedAt.
func (s *Store) CleanupOld(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	doc, err := loadIndex(s.dir)
	if err != nil {
		return 0, mpmerrors.NewBackupError(mpmerrors.BackupIndexCorrupt, "", "load index", err)
	}

	sort.SliceStable(doc.Backups, func(i, j int) bool {
		return doc.Backups[i].CreatedAt.After(doc.Backups[j].CreatedAt)
	})

	if keep >= len(doc.Backups) {
		return 0, nil
	}

	toRemove := doc.Backups[keep:]
	kept := doc.Backups[:keep]

	removed := 0
	for _, entry := range toRemove {
		path := filepath.Join(s.dir, entry.FileName)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			kept = append(kept, entry)
			continue
		}
		removed++
	}

	doc.Backups = kept
	if err := saveIndex(s.dir, doc); err != nil {
		return removed, mpmerrors.NewBackupError(mpmerrors.BackupDeleteFailed, "", "save index", err)
	}
	return removed, nil
}
