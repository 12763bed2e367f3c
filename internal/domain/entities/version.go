package entities

import "regexp"

// LockedVersion pairs the upstream's raw version token with its
// normalized form, produced by applying a repository's versionPattern
// (first regex match) to raw, or raw unchanged if no pattern is set.
type LockedVersion struct {
	Raw        string
	Normalized string
}

// NormalizeVersion applies pattern (if non-empty) to raw via its first
// capture or, lacking one, its full match. An empty or non-matching
// pattern falls back to raw unchanged.
func NormalizeVersion(raw, pattern string) LockedVersion {
	if pattern == "" {
		return LockedVersion{Raw: raw, Normalized: raw}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return LockedVersion{Raw: raw, Normalized: raw}
	}
	match := re.FindStringSubmatch(raw)
	switch {
	case len(match) > 1:
		return LockedVersion{Raw: raw, Normalized: match[1]}
	case len(match) == 1:
		return LockedVersion{Raw: raw, Normalized: match[0]}
	default:
		return LockedVersion{Raw: raw, Normalized: raw}
	}
}

// DownloadRecord identifies the artifact selected for a locked version.
// DownloadId is repository-kind-specific: a release asset id, a
// Modrinth/Hangar version id, or a Jenkins build/file id.
type DownloadRecord struct {
	URL        string
	DownloadID string
	FileName   string
	SHA256     string
}
