// Package services holds domain logic that needs more than one value
// object or entity to operate but still performs no I/O.
package services

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// SortVersionsNewestFirst orders raw upstream version tokens newest
// first. Tokens that parse as semver are compared numerically; tokens
// that don't are grouped after all semver tokens and left in their
// original relative order (a repository's own listing order, typically
// already newest-first for non-semver tags).
func SortVersionsNewestFirst(raw []string) []string {
	type parsed struct {
		raw string
		ver *semver.Version
	}

	entries := make([]parsed, len(raw))
	for i, r := range raw {
		v, err := semver.NewVersion(r)
		if err != nil {
			entries[i] = parsed{raw: r}
			continue
		}
		entries[i] = parsed{raw: r, ver: v}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.ver != nil && b.ver != nil:
			return a.ver.GreaterThan(b.ver)
		case a.ver != nil:
			return true
		case b.ver != nil:
			return false
		default:
			return false
		}
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.raw
	}
	return out
}

// IsNewer reports whether candidate is a newer version than current.
// Falls back to string inequality (candidate != current) when either
// token fails to parse as semver, treating any non-semver mismatch as
// "newer" so callers still detect an update is available.
func IsNewer(current, candidate string) bool {
	currentVer, err1 := semver.NewVersion(current)
	candidateVer, err2 := semver.NewVersion(candidate)
	if err1 != nil || err2 != nil {
		return current != candidate
	}
	return candidateVer.GreaterThan(currentVer)
}

// SemverComparer adapts IsNewer to an interface value, so application
// services can depend on a VersionComparer port instead of a free function.
type SemverComparer struct{}

// IsNewer reports whether candidate is a newer version than current.
func (SemverComparer) IsNewer(current, candidate string) bool { return IsNewer(current, candidate) }
