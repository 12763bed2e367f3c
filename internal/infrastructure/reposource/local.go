package reposource

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/infrastructure/jsonschema"
)

// Local is a filesystem-rooted RepositorySource: catalogue entries live as
// plugins/<name>.json under root (§4.D).
type Local struct {
	root string
}

// NewLocal constructs a Local source rooted at root.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// IsAvailable reports whether the root directory exists.
func (l *Local) IsAvailable(ctx context.Context) bool {
	info, err := os.Stat(l.root)
	return err == nil && info.IsDir()
}

// ListAvailable enumerates every *.json file under plugins/.
func (l *Local) ListAvailable(ctx context.Context) []string {
	entries, err := os.ReadDir(filepath.Join(l.root, "plugins"))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// GetRepositoryFile reads plugins/<name>.json.
func (l *Local) GetRepositoryFile(ctx context.Context, name string) (entities.RepositoryFile, bool) {
	data, err := os.ReadFile(filepath.Join(l.root, "plugins", name+".json"))
	if err != nil {
		return entities.RepositoryFile{}, false
	}
	if err := jsonschema.ValidateCatalogue(data); err != nil {
		return entities.RepositoryFile{}, false
	}
	var wire repositoryFileWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return entities.RepositoryFile{}, false
	}
	return fromWire(wire), true
}

// Kind reports SourceLocal.
func (l *Local) Kind() ports.SourceKind { return ports.SourceLocal }

// Identifier returns the root directory path.
func (l *Local) Identifier() string { return l.root }
