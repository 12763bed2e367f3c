package ports

import "context"

// PluginDirectory is the host's plugin folder: where installed artifact
// files live. It owns no state about which plugin a file belongs to -
// that mapping is read from each artifact's descriptor by a
// DescriptorReader.
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type PluginDirectory interface {
	// ListArtifacts returns the absolute paths of every artifact file in
	// the plugin directory, excluding a configured "local/" subtree and
	// the tool's own binary/artifact.
	ListArtifacts(ctx context.Context) ([]string, error)

	// MoveInto atomically moves the file at sourcePath into the plugin
	// directory under fileName (copy then delete source, since sourcePath
	// may be on a different filesystem than the plugin directory).
	MoveInto(ctx context.Context, sourcePath, fileName string) error

	// Delete removes fileName from the plugin directory. Not an error if
	// already absent.
	Delete(ctx context.Context, fileName string) error
}
