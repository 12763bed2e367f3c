package entities

import (
	"fmt"
	"time"
)

// LockfileVersion is the current lock file format version (§6).
const LockfileVersion = "1.0"

// Lockfile is an optional record of the exact resolved version, artifact,
// and repository for every managed plugin, for reproducible reinstalls.
type Lockfile struct {
	LockfileVersion string
	GeneratedAt     time.Time
	Plugins         map[string]LockEntry
}

// LockEntry is one plugin's pinned resolution.
type LockEntry struct {
	Version     LockedVersion
	Download    DownloadRecord
	Repository  RepositoryRef
	InstalledAt time.Time
}

// NewLockfile returns an empty lockfile at the current format version.
func NewLockfile(generatedAt time.Time) *Lockfile {
	return &Lockfile{
		LockfileVersion: LockfileVersion,
		GeneratedAt:     generatedAt,
		Plugins:         make(map[string]LockEntry),
	}
}

// Set records or replaces the lock entry for name.
func (l *Lockfile) Set(name string, entry LockEntry) {
	if l.Plugins == nil {
		l.Plugins = make(map[string]LockEntry)
	}
	l.Plugins[name] = entry
}

// Get returns the lock entry for name, if present.
func (l *Lockfile) Get(name string) (LockEntry, bool) {
	entry, ok := l.Plugins[name]
	return entry, ok
}

// Validate checks the lockfile's format invariants.
func (l *Lockfile) Validate() error {
	if l.LockfileVersion != LockfileVersion {
		return fmt.Errorf("unsupported lockfile version: %s", l.LockfileVersion)
	}
	for name, entry := range l.Plugins {
		if entry.Version.Raw == "" {
			return fmt.Errorf("plugin %q: locked version is required", name)
		}
	}
	return nil
}
