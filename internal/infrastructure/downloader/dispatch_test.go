package downloader

import (
	"testing"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_DriverFor(t *testing.T) {
	t.Parallel()

	d := NewDispatch(nil)

	for _, kind := range []entities.RepositoryKind{
		entities.RepositoryGitHub,
		entities.RepositoryModrinth,
		entities.RepositorySpigotMC,
		entities.RepositoryHangar,
		entities.RepositoryJenkins,
	} {
		drv, ok := d.DriverFor(kind)
		require.True(t, ok, "expected a driver for %s", kind)
		assert.NotNil(t, drv)
	}
}

func TestDispatch_DriverFor_LocalIsUnregistered(t *testing.T) {
	t.Parallel()

	d := NewDispatch(nil)
	_, ok := d.DriverFor(entities.RepositoryLocal)
	assert.False(t, ok)
}
