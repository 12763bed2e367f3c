package entities

import "github.com/morinoparty/mpm/internal/domain/values"

// SpecKind tags the variant held by a PluginSpec.
type SpecKind int

const (
	// SpecUnmanaged marks a plugin present on disk but outside tool control.
	SpecUnmanaged SpecKind = iota
	// SpecManaged marks a plugin whose version the tool resolves and installs.
	SpecManaged
)

// PluginSpec is one manifest entry: either Unmanaged or Managed with a
// VersionSpecifier requirement.
type PluginSpec struct {
	kind        SpecKind
	requirement values.VersionSpecifier
}

// Unmanaged constructs the Unmanaged variant.
func Unmanaged() PluginSpec {
	return PluginSpec{kind: SpecUnmanaged}
}

// Managed constructs the Managed variant with the given requirement.
func Managed(requirement values.VersionSpecifier) PluginSpec {
	return PluginSpec{kind: SpecManaged, requirement: requirement}
}

// Kind reports which variant this spec holds.
func (p PluginSpec) Kind() SpecKind { return p.kind }

// IsUnmanaged reports whether this is the Unmanaged variant.
func (p PluginSpec) IsUnmanaged() bool { return p.kind == SpecUnmanaged }

// IsManaged reports whether this is the Managed variant.
func (p PluginSpec) IsManaged() bool { return p.kind == SpecManaged }

// Requirement returns the Managed variant's version specifier. Zero value
// for Unmanaged.
func (p PluginSpec) Requirement() values.VersionSpecifier { return p.requirement }

// unmanagedToken is the manifest-level sentinel for the Unmanaged variant.
// It is distinct from any VersionSpecifier on-wire form.
const unmanagedToken = "unmanaged"

// ParsePluginSpec parses one manifest entry value.
func ParsePluginSpec(raw string) PluginSpec {
	if raw == unmanagedToken {
		return Unmanaged()
	}
	return Managed(values.ParseVersionSpecifier(raw))
}

// Format renders the manifest on-wire form of this spec.
func (p PluginSpec) Format() string {
	if p.kind == SpecUnmanaged {
		return unmanagedToken
	}
	return p.requirement.Format()
}
