package container_test

import (
	"path/filepath"
	"testing"

	"github.com/morinoparty/mpm/internal/infrastructure/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WiresEveryCollaborator(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c, err := container.New(container.Options{
		RootDir:         root,
		LocalSourceDirs: []string{filepath.Join(root, "catalogue")},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "mpm.json"), c.ManifestPath())
	assert.Equal(t, root, c.PluginDir())
	assert.Equal(t, 5, c.BackupRetainCount())

	assert.NotNil(t, c.Manifests())
	assert.NotNil(t, c.Lockfiles())
	assert.NotNil(t, c.Metadata())
	assert.NotNil(t, c.Repositories())
	assert.NotNil(t, c.Dispatch())
	assert.NotNil(t, c.PluginDirectory())
	assert.NotNil(t, c.Descriptors())
	assert.NotNil(t, c.Events())
	assert.NotNil(t, c.Resolution())
	assert.NotNil(t, c.Lifecycle())
	assert.NotNil(t, c.Backups())
	assert.NotNil(t, c.DependencyAnalyzer())
	assert.NotNil(t, c.Logger())
}

func TestNew_DefaultBackupRetainCount(t *testing.T) {
	t.Parallel()

	c, err := container.New(container.Options{RootDir: t.TempDir(), BackupRetainCount: -3})
	require.NoError(t, err)
	assert.Equal(t, 5, c.BackupRetainCount())
}
