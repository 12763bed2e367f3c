package backup

import (
	"os"
	"path/filepath"
	"time"

	goyaml "github.com/goccy/go-yaml"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

const indexFileName = "index.yaml"

type indexDocument struct {
	Backups []indexEntry `yaml:"backups"`
}

type indexEntry struct {
	ID              string    `yaml:"id"`
	CreatedAt       time.Time `yaml:"createdAt"`
	Reason          string    `yaml:"reason"`
	FileName        string    `yaml:"fileName"`
	PluginsIncluded []string  `yaml:"pluginsIncluded"`
	SizeBytes       int64     `yaml:"sizeBytes"`
}

func toIndexEntry(info entities.ServerBackupInfo) indexEntry {
	return indexEntry{
		ID:              info.ID,
		CreatedAt:       info.CreatedAt,
		Reason:          info.Reason.String(),
		FileName:        info.FileName,
		PluginsIncluded: info.PluginsIncluded,
		SizeBytes:       info.SizeBytes,
	}
}

func fromIndexEntry(e indexEntry) entities.ServerBackupInfo {
	reason, _ := entities.ParseBackupReason(e.Reason)
	return entities.ServerBackupInfo{
		ID:              e.ID,
		CreatedAt:       e.CreatedAt,
		Reason:          reason,
		FileName:        e.FileName,
		PluginsIncluded: e.PluginsIncluded,
		SizeBytes:       e.SizeBytes,
	}
}

func loadIndex(dir string) (indexDocument, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return indexDocument{}, nil
		}
		return indexDocument{}, err
	}
	var doc indexDocument
	if err := goyaml.Unmarshal(data, &doc); err != nil {
		return indexDocument{}, err
	}
	return doc, nil
}

func saveIndex(dir string, doc indexDocument) error {
	data, err := goyaml.Marshal(doc)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dir, indexFileName), data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
