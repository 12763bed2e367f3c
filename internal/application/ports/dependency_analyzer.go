package ports

import "context"

// DependencyDescriptor is the dependency declaration embedded in an
// artifact's in-archive descriptor (plugin.yml: depend, softDepend,
// loadBefore fields).
type DependencyDescriptor struct {
	Name       string
	Depend     []string
	SoftDepend []string
	LoadBefore []string
}

// DescriptorReader extracts a DependencyDescriptor from a plugin artifact
// without fully extracting it (§4.J). Implementations read the descriptor
// entry directly out of the archive.
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type DescriptorReader interface {
	ReadDescriptor(ctx context.Context, artifactPath string) (DependencyDescriptor, error)
}
