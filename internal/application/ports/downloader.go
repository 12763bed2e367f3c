package ports

import (
	"context"

	"github.com/morinoparty/mpm/internal/domain/entities"
)

// VersionData is one upstream version as reported by a Downloader: the raw
// token the repository uses plus an opaque kind-specific id needed to
// fetch the artifact (release asset id, version id, file id).
type VersionData struct {
	DownloadID string
	Version    string
}

// LocalFile is the result of a completed download: a file on local disk
// staged for the lifecycle orchestrator to move into the plugin directory.
type LocalFile struct {
	Path string
	Size int64
}

// UrlData is the opaque, per-kind address a Downloader extracts from a
// RepositoryConfig.ID (e.g. a parsed "owner/repo" for GitHub, a project
// slug for Modrinth). Concrete shape is driver-private; callers only pass
// it back to the same driver.
type UrlData any

// Downloader is the per-upstream-kind client contract (§4.E). Every driver
// is constructed with an injected HTTP client for testability.
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type Downloader interface {
	// DetectKind reports whether url belongs to this driver's upstream.
	DetectKind(url string) bool

	// ExtractUrlData parses a RepositoryConfig.ID into this driver's
	// opaque address type. False if the id does not parse.
	ExtractUrlData(id string) (UrlData, bool)

	// GetLatestVersion returns the newest available version.
	GetLatestVersion(ctx context.Context, urlData UrlData) (VersionData, error)

	// GetVersionByName returns the version matching rawVersion exactly.
	// Fails if no such version exists upstream.
	GetVersionByName(ctx context.Context, urlData UrlData, rawVersion string) (VersionData, error)

	// GetAllVersions returns every known version, newest first.
	GetAllVersions(ctx context.Context, urlData UrlData) ([]VersionData, error)

	// DownloadByVersion fetches the artifact for version. When a version
	// exposes multiple files: an empty fileNamePattern selects the
	// repository's primary/featured file; otherwise the first file whose
	// name matches the regex is selected, and DownloadByVersion fails if
	// none match.
	DownloadByVersion(ctx context.Context, urlData UrlData, version VersionData, fileNamePattern string) (LocalFile, error)
}

// DownloaderDispatch resolves the driver responsible for a repository kind.
type DownloaderDispatch interface {
	DriverFor(kind entities.RepositoryKind) (Downloader, bool)
}
