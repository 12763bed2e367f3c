// Package ports defines interfaces for infrastructure dependencies. These
// are the "ports" in hexagonal architecture: abstractions the application
// layer depends on but does not implement.
package ports

import (
	"context"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

// SourceKind distinguishes where a RepositorySource reads its catalogue from.
type SourceKind int

const (
	SourceLocal SourceKind = iota
	SourceRemote
)

func (k SourceKind) String() string {
	if k == SourceRemote {
		return "remote"
	}
	return "local"
}

// RepositorySource is a pluggable catalogue provider. Implementations MUST
// swallow their own I/O failures and report them as "unavailable / empty /
// not found" rather than propagating an error: the aggregator's contract
// is best-effort (§4.D).
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type RepositorySource interface {
	// IsAvailable reports whether this source can currently be queried.
	IsAvailable(ctx context.Context) bool

	// ListAvailable enumerates every plugin name this source can serve.
	ListAvailable(ctx context.Context) []string

	// GetRepositoryFile returns the catalogue entry for name, or false if
	// this source has none.
	GetRepositoryFile(ctx context.Context, name string) (entities.RepositoryFile, bool)

	// Kind reports whether this is a Local or Remote source.
	Kind() SourceKind

	// Identifier is a human-readable label (root path or base URL), used
	// for diagnostics and source-ordering debug output.
	Identifier() string
}

// RepositoryAggregator is the ordered, cached, best-effort view over every
// configured RepositorySource (§4.D RepositoryManager).
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type RepositoryAggregator interface {
	// ListAvailable returns the lexicographically sorted union of names
	// across available sources, cached for a TTL the implementation owns.
	ListAvailable(ctx context.Context) []string

	// GetRepositoryFile returns the first hit across available sources,
	// in configured order. False if every source misses.
	GetRepositoryFile(ctx context.Context, name string) (entities.RepositoryFile, bool)

	// GetAvailableSources returns the sources currently reporting available.
	GetAvailableSources(ctx context.Context) []RepositorySource

	// Reload clears any cached list/file state.
	Reload()
}
