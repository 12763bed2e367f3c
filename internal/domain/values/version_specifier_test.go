package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseVersionSpecifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  SpecifierKind
		value string
	}{
		{"latest", "latest", SpecifierLatest, ""},
		{"latest uppercase", "LATEST", SpecifierLatest, ""},
		{"latest mixed case", "LaTeSt", SpecifierLatest, ""},
		{"sync", "sync:core", SpecifierSync, "core"},
		{"sync case-insensitive prefix", "SYNC:Core", SpecifierSync, "Core"},
		{"sync empty target falls back to fixed", "sync:", SpecifierFixed, "sync:"},
		{"tag", "tag:v1", SpecifierTag, "v1"},
		{"pattern", "pattern:^1\\.2\\..*$", SpecifierPattern, "^1\\.2\\..*$"},
		{"fixed", "1.2.3", SpecifierFixed, "1.2.3"},
		{"fixed looks like a word", "stable", SpecifierFixed, "stable"},
		{"trims whitespace", "  1.2.3  ", SpecifierFixed, "1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := ParseVersionSpecifier(tt.input)
			assert.Equal(t, tt.kind, spec.Kind())
			assert.Equal(t, tt.value, spec.Value())
		})
	}
}

func Test_VersionSpecifier_FormatRoundTrip(t *testing.T) {
	tests := []VersionSpecifier{
		Latest(),
		Fixed("1.2.3"),
		Tag("v5"),
		Pattern("^5\\..*"),
		Sync("core"),
	}

	for _, spec := range tests {
		t.Run(spec.Format(), func(t *testing.T) {
			roundTripped := ParseVersionSpecifier(spec.Format())
			assert.True(t, spec.Equals(roundTripped), "expected %+v, got %+v", spec, roundTripped)
		})
	}
}

func Test_VersionSpecifier_FixedNeverHoldsLatest(t *testing.T) {
	spec := ParseVersionSpecifier("latest")
	require.Equal(t, SpecifierLatest, spec.Kind())
	assert.NotEqual(t, SpecifierFixed, spec.Kind())
}

func Test_VersionSpecifier_SyncTarget(t *testing.T) {
	spec := Sync("core")
	target, ok := spec.SyncTarget()
	assert.True(t, ok)
	assert.Equal(t, "core", target)

	_, ok = Fixed("1.0").SyncTarget()
	assert.False(t, ok)
}

func FuzzParseVersionSpecifier(f *testing.F) {
	seeds := []string{
		"latest", "LATEST", "sync:core", "SYNC:", "tag:v1", "pattern:.*",
		"1.2.3", "", "sync:a:b", "pattern:(unterminated",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		spec := ParseVersionSpecifier(input)
		formatted := spec.Format()
		reparsed := ParseVersionSpecifier(formatted)
		if !spec.Equals(reparsed) {
			t.Fatalf("round-trip mismatch for %q: %+v != %+v", input, spec, reparsed)
		}
	})
}
