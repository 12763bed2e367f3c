// Package values contains the pure value objects of the plugin manager's
// domain model. None of these types perform I/O.
package values

import (
	"fmt"
	"strings"
)

// PluginName is a validated, non-empty plugin identifier. Equality is
// case-sensitive: it is the key shared across the manifest, the metadata
// store, and filesystem-resident artifacts.
type PluginName struct {
	value string
}

// NewPluginName creates a PluginName, trimming whitespace and rejecting
// the empty string.
func NewPluginName(name string) (PluginName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PluginName{}, fmt.Errorf("plugin name cannot be empty")
	}
	return PluginName{value: name}, nil
}

// MustNewPluginName creates a PluginName or panics. Reserved for names the
// caller has already validated.
func MustNewPluginName(name string) PluginName {
	pn, err := NewPluginName(name)
	if err != nil {
		panic(err)
	}
	return pn
}

// String returns the plugin name.
func (p PluginName) String() string {
	return p.value
}

// IsEmpty reports whether this is the zero value.
func (p PluginName) IsEmpty() bool {
	return p.value == ""
}

// Equals compares two plugin names case-sensitively.
func (p PluginName) Equals(other PluginName) bool {
	return p.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (p PluginName) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PluginName) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 {
		return fmt.Errorf("invalid plugin name JSON")
	}
	s = s[1 : len(s)-1]

	name, err := NewPluginName(s)
	if err != nil {
		return err
	}
	*p = name
	return nil
}
