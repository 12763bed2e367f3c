package entities

import (
	"sort"
	"strings"

	"github.com/morinoparty/mpm/internal/domain/values"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

// SchemaVersion is the current manifest format version.
const SchemaVersion = 1

// Manifest is the desired-state document: the set of plugins an operator
// has declared, each Unmanaged or Managed with a version requirement.
//
// Invariants enforced by this type and its operations:
//  1. Every key is a valid PluginName (callers construct keys via
//     values.NewPluginName, which rejects the empty string).
//  2. The Sync graph (edges src -> target for Managed(Sync(target))) is
//     acyclic; enforced by ValidateSync, not by Add/Update alone.
//  3. Every Sync(t) target must exist and be Managed with a non-Sync
//     requirement; also enforced by ValidateSync.
//  4. Key order on serialization is case-insensitive lexicographic; see
//     WithSortedKeys.
type Manifest struct {
	Name          string
	SchemaVersion int
	Plugins       map[string]PluginSpec
	// Repositories overrides the catalogue's RepositoryFile for the named
	// plugin, keyed by plugin name. Consulted by the Resolution Engine
	// before falling back to the Repository Source aggregator.
	Repositories map[string]RepositoryConfig
}

// NewManifest constructs an empty manifest with the current schema version.
func NewManifest(name string) *Manifest {
	return &Manifest{
		Name:          name,
		SchemaVersion: SchemaVersion,
		Plugins:       make(map[string]PluginSpec),
	}
}

// Add inserts a new entry. Fails with AlreadyExists if the key is present
// and is not Unmanaged (re-declaring an Unmanaged plugin as Managed is
// how a plugin is adopted, so that case is not an error at this layer;
// callers in the orchestrator decide whether adoption is permitted).
func (m *Manifest) Add(name values.PluginName, spec PluginSpec) error {
	key := name.String()
	if existing, ok := m.Plugins[key]; ok && !existing.IsUnmanaged() {
		return mpmerrors.NewPluginError(mpmerrors.AlreadyExists, key, "", nil)
	}
	m.Plugins[key] = spec
	return nil
}

// Remove deletes an entry. Fails with NotFound if absent.
func (m *Manifest) Remove(name values.PluginName) error {
	key := name.String()
	if _, ok := m.Plugins[key]; !ok {
		return mpmerrors.NewPluginError(mpmerrors.NotFound, key, "", nil)
	}
	delete(m.Plugins, key)
	return nil
}

// Update replaces an existing entry's spec. Fails with NotFound if absent.
func (m *Manifest) Update(name values.PluginName, spec PluginSpec) error {
	key := name.String()
	if _, ok := m.Plugins[key]; !ok {
		return mpmerrors.NewPluginError(mpmerrors.NotFound, key, "", nil)
	}
	m.Plugins[key] = spec
	return nil
}

// Get returns the entry for name, if present.
func (m *Manifest) Get(name values.PluginName) (PluginSpec, bool) {
	spec, ok := m.Plugins[name.String()]
	return spec, ok
}

// syncEdges returns the src -> target adjacency for every Managed(Sync(_))
// entry.
func (m *Manifest) syncEdges() map[string]string {
	edges := make(map[string]string)
	for name, spec := range m.Plugins {
		if !spec.IsManaged() {
			continue
		}
		if target, ok := spec.Requirement().SyncTarget(); ok {
			edges[name] = target
		}
	}
	return edges
}

// ValidateSync checks that the Sync graph is well-formed: every target
// exists, is Managed, is not itself a Sync, and the graph is acyclic.
//
// Cycle detection uses iterative three-color DFS (unseen/on-path/done) so
// it does not rely on call-stack recursion depth for large manifests. On
// finding a back edge to an on-path node, the cycle slice returned is the
// closed walk from that node's first occurrence through itself again.
func (m *Manifest) ValidateSync() error {
	edges := m.syncEdges()

	// Cycles are checked first: every member of a cycle is itself a Sync
	// target, so the TargetIsSync check below would otherwise mask them.
	if cycle := findCycle(m.sortedNames(), edges); cycle != nil {
		return mpmerrors.NewCircularDependencyError(cycle)
	}

	for src, target := range edges {
		targetSpec, ok := m.Plugins[target]
		if !ok {
			return mpmerrors.NewSyncError(mpmerrors.TargetNotFound, src, target)
		}
		if targetSpec.IsUnmanaged() {
			return mpmerrors.NewSyncError(mpmerrors.TargetIsUnmanaged, src, target)
		}
		if _, isSync := targetSpec.Requirement().SyncTarget(); isSync {
			return mpmerrors.NewSyncError(mpmerrors.TargetIsSync, src, target)
		}
	}
	return nil
}

const (
	colorUnseen = iota
	colorOnPath
	colorDone
)

// findCycle runs iterative DFS over the src->target edges in names,
// returning the closed-walk cycle path on the first one found, or nil.
func findCycle(names []string, edges map[string]string) []string {
	color := make(map[string]int, len(names))
	for _, n := range names {
		color[n] = colorUnseen
	}

	for _, start := range names {
		if color[start] != colorUnseen {
			continue
		}
		if cycle := dfsFindCycle(start, edges, color); cycle != nil {
			return cycle
		}
	}
	return nil
}

// dfsFindCycle walks the single outgoing edge per node (the sync graph is
// out-degree <= 1) using an explicit stack, coloring nodes on-path grey
// and done black.
func dfsFindCycle(start string, edges map[string]string, color map[string]int) []string {
	var path []string
	node := start

	for {
		if color[node] == colorDone {
			return nil
		}
		if color[node] == colorOnPath {
			for i, n := range path {
				if n == node {
					cycle := append(append([]string{}, path[i:]...), node)
					return cycle
				}
			}
			return nil
		}

		color[node] = colorOnPath
		path = append(path, node)

		next, ok := edges[node]
		if !ok {
			break
		}
		node = next
	}

	for _, n := range path {
		color[n] = colorDone
	}
	return nil
}

// TopologicalOrder returns every plugin name exactly once via Kahn's
// algorithm over edges target -> dependent (so a Sync target precedes its
// dependents). Unmanaged plugins and managed plugins without a Sync
// requirement are sources with in-degree 0. Callers MUST run ValidateSync first and gate
// on success: if the graph has a cycle, this still returns every plugin
// (appending unresolved names at the end) rather than looping forever.
func (m *Manifest) TopologicalOrder() []string {
	edges := m.syncEdges() // src -> target
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)

	names := m.sortedNames()
	for _, name := range names {
		inDegree[name] = 0
	}
	for src, target := range edges {
		dependents[target] = append(dependents[target], src)
		inDegree[src]++
	}
	for _, deps := range dependents {
		sort.Strings(deps)
	}

	var order []string
	processed := make(map[string]bool, len(names))

	for len(processed) < len(names) {
		var ready []string
		for _, name := range names {
			if !processed[name] && inDegree[name] == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			break // cycle present; caller should have gated on ValidateSync
		}
		for _, name := range ready {
			processed[name] = true
			order = append(order, name)
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
			}
		}
	}

	if len(order) < len(names) {
		for _, name := range names {
			if !processed[name] {
				order = append(order, name)
			}
		}
	}
	return order
}

// GetPluginsSyncingTo returns every plugin whose requirement is
// Sync(target), in case-insensitive ascending name order.
func (m *Manifest) GetPluginsSyncingTo(target values.PluginName) []string {
	var result []string
	for name, spec := range m.Plugins {
		if !spec.IsManaged() {
			continue
		}
		if t, ok := spec.Requirement().SyncTarget(); ok && t == target.String() {
			result = append(result, name)
		}
	}
	sortCaseInsensitive(result)
	return result
}

// WithSortedKeys returns the manifest's plugin names in case-insensitive
// ascending order. Idempotent: calling it twice on the same map yields
// the same slice. Applied before every write of the manifest file.
func (m *Manifest) WithSortedKeys() []string {
	return m.sortedNames()
}

func (m *Manifest) sortedNames() []string {
	names := make([]string, 0, len(m.Plugins))
	for name := range m.Plugins {
		names = append(names, name)
	}
	sortCaseInsensitive(names)
	return names
}

func sortCaseInsensitive(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}
