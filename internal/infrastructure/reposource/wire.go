// Package reposource implements the Local and Remote RepositorySource
// kinds plus the caching RepositoryManager aggregator (§4.D).
package reposource

import "github.com/morinoparty/mpm/internal/domain/entities"

// repositoryFileWire is the catalogue JSON shape for one plugin
// (§6 repository source index; a per-plugin file under plugins/<name>.json).
type repositoryFileWire struct {
	ID           string              `json:"id"`
	Website      string              `json:"website,omitempty"`
	Source       string              `json:"source,omitempty"`
	License      string              `json:"license,omitempty"`
	Repositories []repositoryCfgWire `json:"repositories"`
}

type repositoryCfgWire struct {
	Type                string `json:"type"`
	ID                  string `json:"id"`
	VersionPattern      string `json:"versionPattern,omitempty"`
	DownloadURLTemplate string `json:"downloadUrlTemplate,omitempty"`
	FileNamePattern     string `json:"fileNamePattern,omitempty"`
	FileNameTemplate    string `json:"fileNameTemplate,omitempty"`
}

func fromWire(w repositoryFileWire) entities.RepositoryFile {
	f := entities.RepositoryFile{ID: w.ID, Website: w.Website, Source: w.Source, License: w.License}
	for _, r := range w.Repositories {
		kind, _ := entities.ParseRepositoryKind(r.Type)
		f.Repositories = append(f.Repositories, entities.RepositoryConfig{
			Kind:                kind,
			ID:                  r.ID,
			VersionPattern:      r.VersionPattern,
			DownloadURLTemplate: r.DownloadURLTemplate,
			FileNamePattern:     r.FileNamePattern,
			FileNameTemplate:    r.FileNameTemplate,
		})
	}
	return f
}
