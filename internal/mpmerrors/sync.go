package mpmerrors

import "strings"

// SyncKind enumerates the ways validating the manifest's Sync graph can fail.
type SyncKind int

const (
	TargetNotFound SyncKind = iota
	TargetIsUnmanaged
	TargetIsSync
	VersionNotAvailable
	CircularDependencySync
)

func (k SyncKind) String() string {
	switch k {
	case TargetNotFound:
		return "sync target not found"
	case TargetIsUnmanaged:
		return "sync target is unmanaged"
	case TargetIsSync:
		return "sync target is itself a sync specifier"
	case VersionNotAvailable:
		return "sync target version not available"
	case CircularDependencySync:
		return "circular sync dependency"
	default:
		return "unknown sync error"
	}
}

// SyncDependencyError reports a problem with the manifest's sync: graph.
// Cycle is only populated for CircularDependencySync and is a closed walk:
// it begins and ends with the same plugin name.
type SyncDependencyError struct {
	Kind   SyncKind
	Plugin string
	Target string
	Cycle  []string
}

func (e *SyncDependencyError) Error() string {
	switch e.Kind {
	case CircularDependencySync:
		return "circular dependency: " + strings.Join(e.Cycle, " -> ")
	case TargetNotFound, TargetIsUnmanaged, TargetIsSync, VersionNotAvailable:
		return e.Plugin + " -> " + e.Target + ": " + e.Kind.String()
	default:
		return e.Kind.String()
	}
}

// NewSyncError constructs a SyncDependencyError naming the offending edge.
func NewSyncError(kind SyncKind, plugin, target string) *SyncDependencyError {
	return &SyncDependencyError{Kind: kind, Plugin: plugin, Target: target}
}

// NewCircularDependencyError constructs the cycle variant from a closed walk of names.
func NewCircularDependencyError(cycle []string) *SyncDependencyError {
	return &SyncDependencyError{Kind: CircularDependencySync, Cycle: cycle}
}
