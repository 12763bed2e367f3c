package manifestio_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/infrastructure/manifestio"
	"github.com/morinoparty/mpm/internal/mpmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pluginName(t *testing.T, s string) values.PluginName {
	t.Helper()
	n, err := values.NewPluginName(s)
	require.NoError(t, err)
	return n
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("survival")
	require.NoError(t, m.Add(pluginName(t, "zebra"), entities.Managed(values.Latest())))
	require.NoError(t, m.Add(pluginName(t, "Alpha"), entities.Unmanaged()))
	require.NoError(t, m.Add(pluginName(t, "beta"), entities.Managed(values.Sync("zebra"))))
	m.Repositories = map[string]entities.RepositoryConfig{
		"zebra": {Kind: entities.RepositoryGitHub, ID: "owner/zebra", VersionPattern: `v(\d+\.\d+\.\d+)`},
	}

	path := filepath.Join(t.TempDir(), "mpm.json")
	repo := manifestio.NewRepository()

	require.NoError(t, repo.Save(context.Background(), m, path))

	loaded, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "survival", loaded.Name)
	assert.Equal(t, entities.SchemaVersion, loaded.SchemaVersion)

	zebra, ok := loaded.Get(pluginName(t, "zebra"))
	require.True(t, ok)
	assert.True(t, zebra.IsManaged())
	assert.Equal(t, values.SpecifierLatest, zebra.Requirement().Kind())

	beta, ok := loaded.Get(pluginName(t, "beta"))
	require.True(t, ok)
	target, isSync := beta.Requirement().SyncTarget()
	assert.True(t, isSync)
	assert.Equal(t, "zebra", target)

	alpha, ok := loaded.Get(pluginName(t, "Alpha"))
	require.True(t, ok)
	assert.True(t, alpha.IsUnmanaged())

	require.Contains(t, loaded.Repositories, "zebra")
	assert.Equal(t, "owner/zebra", loaded.Repositories["zebra"].ID)
}

func TestRepository_Load_MissingFile(t *testing.T) {
	t.Parallel()

	repo := manifestio.NewRepository()
	_, err := repo.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	var projErr *mpmerrors.ProjectError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, mpmerrors.ConfigNotFound, projErr.Kind)
}

func TestRepository_Load_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mpm.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := manifestio.NewRepository()
	_, err := repo.Load(context.Background(), path)
	require.Error(t, err)
	var projErr *mpmerrors.ProjectError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, mpmerrors.ConfigParseError, projErr.Kind)
}

func TestRepository_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mpm.json")
	repo := manifestio.NewRepository()

	exists, err := repo.Exists(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Save(context.Background(), entities.NewManifest("s"), path))

	exists, err = repo.Exists(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_Save_KeysAreCaseInsensitiveSorted(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("s")
	require.NoError(t, m.Add(pluginName(t, "zeta"), entities.Unmanaged()))
	require.NoError(t, m.Add(pluginName(t, "Alpha"), entities.Unmanaged()))
	require.NoError(t, m.Add(pluginName(t, "beta"), entities.Unmanaged()))

	path := filepath.Join(t.TempDir(), "mpm.json")
	repo := manifestio.NewRepository()
	require.NoError(t, repo.Save(context.Background(), m, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	data := string(raw)

	idxAlpha := strings.Index(data, `"Alpha"`)
	idxBeta := strings.Index(data, `"beta"`)
	idxZeta := strings.Index(data, `"zeta"`)
	require.True(t, idxAlpha >= 0 && idxBeta >= 0 && idxZeta >= 0)
	assert.True(t, idxAlpha < idxBeta)
	assert.True(t, idxBeta < idxZeta)
}
