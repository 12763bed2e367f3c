package reposource

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
)

// listCacheTTL is how long RepositoryManager.ListAvailable's union result
// is cached before being recomputed (§4.D: "cached for 180s").
const listCacheTTL = 180 * time.Second

// Manager is the ordered, cached, best-effort aggregator over every
// configured RepositorySource (§4.D RepositoryManager).
type Manager struct {
	sources []ports.RepositorySource

	mu           sync.Mutex
	listCache    []string
	listCachedAt time.Time
	refresh      singleflight.Group
}

// NewManager constructs a Manager over sources, tried in the given order.
func NewManager(sources []ports.RepositorySource) *Manager {
	return &Manager{sources: sources}
}

// GetAvailableSources filters sources by IsAvailable, querying them
// concurrently since reachability checks are independent network calls.
func (m *Manager) GetAvailableSources(ctx context.Context) []ports.RepositorySource {
	available := make([]bool, len(m.sources))

	var wg sync.WaitGroup
	for i, src := range m.sources {
		wg.Add(1)
		go func(i int, src ports.RepositorySource) {
			defer wg.Done()
			available[i] = src.IsAvailable(ctx)
		}(i, src)
	}
	wg.Wait()

	var result []ports.RepositorySource
	for i, ok := range available {
		if ok {
			result = append(result, m.sources[i])
		}
	}
	return result
}

// ListAvailable returns the lexicographically sorted union of names across
// available sources, cached for listCacheTTL.
func (m *Manager) ListAvailable(ctx context.Context) []string {
	m.mu.Lock()
	if m.listCache != nil && time.Since(m.listCachedAt) < listCacheTTL {
		cached := m.listCache
		m.mu.Unlock()
		return cached
	}
	m.mu.Unlock()

	// Concurrent cache-miss callers collapse into the single upstream
	// fan-out below instead of each re-querying every source.
	result, _, _ := m.refresh.Do("list", func() (any, error) {
		available := m.GetAvailableSources(ctx)
		seen := make(map[string]struct{})
		var names []string

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, src := range available {
			src := src
			g.Go(func() error {
				list := src.ListAvailable(gctx)
				mu.Lock()
				for _, n := range list {
					if _, ok := seen[n]; !ok {
						seen[n] = struct{}{}
						names = append(names, n)
					}
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait() // sources swallow their own errors; nothing ever fails here

		sort.Strings(names)

		m.mu.Lock()
		m.listCache = names
		m.listCachedAt = time.Now()
		m.mu.Unlock()

		return names, nil
	})

	return result.([]string)
}

// GetRepositoryFile returns the first hit across available sources, in
// configured order.
func (m *Manager) GetRepositoryFile(ctx context.Context, name string) (entities.RepositoryFile, bool) {
	for _, src := range m.sources {
		if !src.IsAvailable(ctx) {
			continue
		}
		if f, ok := src.GetRepositoryFile(ctx, name); ok {
			return f, true
		}
	}
	return entities.RepositoryFile{}, false
}

// Reload clears the cached list, forcing the next ListAvailable call to
// recompute it.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCache = nil
	m.listCachedAt = time.Time{}
}
