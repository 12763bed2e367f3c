package reposource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/infrastructure/reposource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogue(t *testing.T, root, name, contents string) {
	t.Helper()
	dir := filepath.Join(root, "plugins")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(contents), 0o644))
}

func TestLocal_IsAvailable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := reposource.NewLocal(root)
	assert.True(t, src.IsAvailable(context.Background()))

	missing := reposource.NewLocal(filepath.Join(root, "does-not-exist"))
	assert.False(t, missing.IsAvailable(context.Background()))
}

func TestLocal_ListAvailable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCatalogue(t, root, "Zebra", `{"id":"z","repositories":[]}`)
	writeCatalogue(t, root, "Alpha", `{"id":"a","repositories":[]}`)

	src := reposource.NewLocal(root)
	assert.Equal(t, []string{"Alpha", "Zebra"}, src.ListAvailable(context.Background()))
}

func TestLocal_GetRepositoryFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCatalogue(t, root, "Foo", `{
		"id": "owner/foo",
		"website": "https://example.com",
		"repositories": [{"type": "github", "id": "owner/foo", "versionPattern": "v(.*)"}]
	}`)

	src := reposource.NewLocal(root)
	f, ok := src.GetRepositoryFile(context.Background(), "Foo")
	require.True(t, ok)
	assert.Equal(t, "owner/foo", f.ID)
	require.Len(t, f.Repositories, 1)
	assert.Equal(t, "owner/foo", f.Repositories[0].ID)

	_, ok = src.GetRepositoryFile(context.Background(), "Missing")
	assert.False(t, ok)
}

func TestLocal_Kind(t *testing.T) {
	t.Parallel()

	src := reposource.NewLocal(t.TempDir())
	assert.Equal(t, ports.SourceLocal, src.Kind())
}
