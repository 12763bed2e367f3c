package entities_test

import (
	"testing"

	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func name(t *testing.T, s string) values.PluginName {
	t.Helper()
	n, err := values.NewPluginName(s)
	require.NoError(t, err)
	return n
}

func TestManifest_AddRemoveUpdate(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	foo := name(t, "Foo")

	require.NoError(t, m.Add(foo, entities.Managed(values.Latest())))

	err := m.Add(foo, entities.Managed(values.Fixed("1.0.0")))
	var pluginErr *mpmerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, mpmerrors.AlreadyExists, pluginErr.Kind)

	require.NoError(t, m.Update(foo, entities.Managed(values.Fixed("1.0.0"))))
	spec, ok := m.Get(foo)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", spec.Requirement().Value())

	require.NoError(t, m.Remove(foo))

	err = m.Remove(foo)
	require.ErrorAs(t, err, &pluginErr)
	assert.Equal(t, mpmerrors.NotFound, pluginErr.Kind)
}

func TestManifest_AddOverUnmanagedIsAllowed(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	foo := name(t, "Foo")
	require.NoError(t, m.Add(foo, entities.Unmanaged()))
	require.NoError(t, m.Add(foo, entities.Managed(values.Latest())))
}

// S2: a 2-cycle through sync: is rejected.
func TestManifest_ValidateSync_DetectsCycle(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "A"), entities.Managed(values.Sync("B"))))
	require.NoError(t, m.Add(name(t, "B"), entities.Managed(values.Sync("A"))))

	err := m.ValidateSync()
	var syncErr *mpmerrors.SyncDependencyError
	require.ErrorAs(t, err, &syncErr)
	require.Equal(t, mpmerrors.CircularDependencySync, syncErr.Kind)
	require.GreaterOrEqual(t, len(syncErr.Cycle), 2)
	assert.Equal(t, syncErr.Cycle[0], syncErr.Cycle[len(syncErr.Cycle)-1])
}

func TestManifest_ValidateSync_TargetNotFound(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "Addon"), entities.Managed(values.Sync("Core"))))

	err := m.ValidateSync()
	var syncErr *mpmerrors.SyncDependencyError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, mpmerrors.TargetNotFound, syncErr.Kind)
}

func TestManifest_ValidateSync_TargetIsUnmanaged(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "Core"), entities.Unmanaged()))
	require.NoError(t, m.Add(name(t, "Addon"), entities.Managed(values.Sync("Core"))))

	err := m.ValidateSync()
	var syncErr *mpmerrors.SyncDependencyError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, mpmerrors.TargetIsUnmanaged, syncErr.Kind)
}

func TestManifest_ValidateSync_TargetIsSync(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "Core"), entities.Managed(values.Sync("Base"))))
	require.NoError(t, m.Add(name(t, "Base"), entities.Managed(values.Fixed("1.0"))))
	require.NoError(t, m.Add(name(t, "Addon"), entities.Managed(values.Sync("Core"))))

	err := m.ValidateSync()
	var syncErr *mpmerrors.SyncDependencyError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, mpmerrors.TargetIsSync, syncErr.Kind)
}

// S3: topological order under sync.
func TestManifest_TopologicalOrder_RespectsSync(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "Addon"), entities.Managed(values.Sync("Core"))))
	require.NoError(t, m.Add(name(t, "Core"), entities.Managed(values.Fixed("1.2.3"))))
	require.NoError(t, m.Add(name(t, "Other"), entities.Managed(values.Latest())))

	require.NoError(t, m.ValidateSync())
	order := m.TopologicalOrder()

	require.ElementsMatch(t, []string{"Addon", "Core", "Other"}, order)

	coreIdx, addonIdx := indexOf(order, "Core"), indexOf(order, "Addon")
	assert.Less(t, coreIdx, addonIdx)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestManifest_GetPluginsSyncingTo(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "Core"), entities.Managed(values.Fixed("1.2.3"))))
	require.NoError(t, m.Add(name(t, "AddonB"), entities.Managed(values.Sync("Core"))))
	require.NoError(t, m.Add(name(t, "AddonA"), entities.Managed(values.Sync("Core"))))
	require.NoError(t, m.Add(name(t, "Other"), entities.Managed(values.Latest())))

	deps := m.GetPluginsSyncingTo(name(t, "Core"))
	assert.Equal(t, []string{"AddonA", "AddonB"}, deps)
}

// §8 property 4: withSortedKeys is idempotent and case-insensitive ascending.
func TestManifest_WithSortedKeys_CaseInsensitiveAndIdempotent(t *testing.T) {
	t.Parallel()

	m := entities.NewManifest("server")
	require.NoError(t, m.Add(name(t, "bar"), entities.Unmanaged()))
	require.NoError(t, m.Add(name(t, "Foo"), entities.Unmanaged()))
	require.NoError(t, m.Add(name(t, "apple"), entities.Unmanaged()))

	first := m.WithSortedKeys()
	second := m.WithSortedKeys()

	assert.Equal(t, []string{"apple", "bar", "Foo"}, first)
	assert.Equal(t, first, second)
}

func TestPluginSpec_ParseFormatRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unmanaged", entities.Unmanaged().Format())

	spec := entities.ParsePluginSpec("unmanaged")
	assert.True(t, spec.IsUnmanaged())

	spec = entities.ParsePluginSpec("sync:Core")
	require.True(t, spec.IsManaged())
	target, ok := spec.Requirement().SyncTarget()
	require.True(t, ok)
	assert.Equal(t, "Core", target)
	assert.Equal(t, "sync:Core", spec.Format())
}
