package values

import "strings"

// SpecifierKind tags the variant held by a VersionSpecifier.
type SpecifierKind int

const (
	// SpecifierLatest resolves to the newest upstream version at install time.
	SpecifierLatest SpecifierKind = iota
	// SpecifierFixed pins to an exact version string.
	SpecifierFixed
	// SpecifierTag resolves by upstream tag name. Reserved: implementations
	// may reject it with VersionResolutionFailed.
	SpecifierTag
	// SpecifierPattern resolves to the newest upstream version whose raw
	// form matches a regular expression.
	SpecifierPattern
	// SpecifierSync adopts the concrete version currently resolved for
	// another plugin in the same manifest.
	SpecifierSync
)

const (
	prefixLatest  = "latest"
	prefixSync    = "sync:"
	prefixTag     = "tag:"
	prefixPattern = "pattern:"
)

// VersionSpecifier is a tagged variant describing how to resolve a
// plugin's installed version. The zero value is not valid; construct one
// with ParseVersionSpecifier.
type VersionSpecifier struct {
	kind  SpecifierKind
	value string // Fixed: version; Tag: tag name; Pattern: regex; Sync: target plugin name
}

// Latest returns the Latest specifier.
func Latest() VersionSpecifier { return VersionSpecifier{kind: SpecifierLatest} }

// Fixed returns a Fixed specifier pinned to the exact version v.
//
// v must not itself be the literal "latest": ParseVersionSpecifier would
// have produced SpecifierLatest for that input, so a Fixed specifier
// holding "latest" can never arise from parsing on-wire text (§4.A).
func Fixed(v string) VersionSpecifier { return VersionSpecifier{kind: SpecifierFixed, value: v} }

// Tag returns a Tag specifier for the given upstream tag name.
func Tag(t string) VersionSpecifier { return VersionSpecifier{kind: SpecifierTag, value: t} }

// Pattern returns a Pattern specifier holding the raw (unparsed) regex.
func Pattern(r string) VersionSpecifier { return VersionSpecifier{kind: SpecifierPattern, value: r} }

// Sync returns a Sync specifier bound to the given target plugin name.
func Sync(target string) VersionSpecifier { return VersionSpecifier{kind: SpecifierSync, value: target} }

// Kind reports which variant this specifier holds.
func (v VersionSpecifier) Kind() SpecifierKind { return v.kind }

// Value returns the variant's payload: the fixed version, tag name,
// pattern regex, or sync target, according to Kind(). Empty for Latest.
func (v VersionSpecifier) Value() string { return v.value }

// IsSync reports whether this specifier is a Sync variant.
func (v VersionSpecifier) IsSync() bool { return v.kind == SpecifierSync }

// SyncTarget returns the target plugin name and true if this is a Sync
// specifier, else the zero value and false.
func (v VersionSpecifier) SyncTarget() (string, bool) {
	if v.kind != SpecifierSync {
		return "", false
	}
	return v.value, true
}

// ParseVersionSpecifier parses the on-wire form of a version specifier.
// Rules are tried in order, with case-insensitive prefix matching:
//
//	"latest"        -> Latest
//	"sync:<target>" -> Sync (target must be non-empty after trimming)
//	"tag:<t>"       -> Tag
//	"pattern:<r>"   -> Pattern
//	anything else   -> Fixed(s)
func ParseVersionSpecifier(s string) VersionSpecifier {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)

	if lower == prefixLatest {
		return Latest()
	}
	if strings.HasPrefix(lower, prefixSync) {
		target := strings.TrimSpace(trimmed[len(prefixSync):])
		if target != "" {
			return Sync(target)
		}
	}
	if strings.HasPrefix(lower, prefixTag) {
		return Tag(trimmed[len(prefixTag):])
	}
	if strings.HasPrefix(lower, prefixPattern) {
		return Pattern(trimmed[len(prefixPattern):])
	}
	return Fixed(trimmed)
}

// Format renders the on-wire form of the specifier, the inverse of
// ParseVersionSpecifier.
func (v VersionSpecifier) Format() string {
	switch v.kind {
	case SpecifierLatest:
		return prefixLatest
	case SpecifierSync:
		return prefixSync + v.value
	case SpecifierTag:
		return prefixTag + v.value
	case SpecifierPattern:
		return prefixPattern + v.value
	case SpecifierFixed:
		return v.value
	default:
		return v.value
	}
}

// Equals compares two specifiers structurally.
func (v VersionSpecifier) Equals(other VersionSpecifier) bool {
	return v.kind == other.kind && v.value == other.value
}
