package downloader

import (
	"context"
	"regexp"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

var modrinthURL = regexp.MustCompile(`^https?://modrinth\.com/plugin/([\w.-]+)`)

// ModrinthUrlData addresses one Modrinth project by its slug or id.
type ModrinthUrlData struct {
	Project string
}

type modrinthFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
}

type modrinthVersion struct {
	ID            string         `json:"id"`
	VersionNumber string         `json:"version_number"`
	Files         []modrinthFile `json:"files"`
}

const modrinthAPIBase = "https://api.modrinth.com/v2"

// Modrinth is the Downloader driver for projects hosted on Modrinth.
type Modrinth struct {
	client  *retryablehttp.Client
	baseURL string
}

// NewModrinth constructs a Modrinth driver.
func NewModrinth() *Modrinth {
	return &Modrinth{client: newHTTPClient(), baseURL: modrinthAPIBase}
}

// DetectKind reports whether url points at modrinth.com/plugin.
func (d *Modrinth) DetectKind(url string) bool { return modrinthURL.MatchString(url) }

// ExtractUrlData treats id as the project slug or id directly, unless it
// is a full modrinth.com URL.
func (d *Modrinth) ExtractUrlData(id string) (ports.UrlData, bool) {
	if m := modrinthURL.FindStringSubmatch(id); m != nil {
		return ModrinthUrlData{Project: m[1]}, true
	}
	if id == "" {
		return nil, false
	}
	return ModrinthUrlData{Project: id}, true
}

func (d *Modrinth) project(urlData ports.UrlData) (ModrinthUrlData, bool) {
	u, ok := urlData.(ModrinthUrlData)
	return u, ok
}

func toModrinthVersionData(v modrinthVersion) ports.VersionData {
	return ports.VersionData{DownloadID: v.ID, Version: v.VersionNumber}
}

// GetLatestVersion returns the project's newest listed version (Modrinth
// returns versions newest-first).
func (d *Modrinth) GetLatestVersion(ctx context.Context, urlData ports.UrlData) (ports.VersionData, error) {
	versions, err := d.GetAllVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	if len(versions) == 0 {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "no versions published", nil)
	}
	return versions[0], nil
}

// GetVersionByName returns the version whose version_number equals
// rawVersion exactly.
func (d *Modrinth) GetVersionByName(ctx context.Context, urlData ports.UrlData, rawVersion string) (ports.VersionData, error) {
	versions, err := d.allVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	for _, v := range versions {
		if v.VersionNumber == rawVersion {
			return toModrinthVersionData(v), nil
		}
	}
	return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "version not found: "+rawVersion, nil)
}

// GetAllVersions returns every published version, newest first.
func (d *Modrinth) GetAllVersions(ctx context.Context, urlData ports.UrlData) ([]ports.VersionData, error) {
	versions, err := d.allVersions(ctx, urlData)
	if err != nil {
		return nil, err
	}
	out := make([]ports.VersionData, len(versions))
	for i, v := range versions {
		out[i] = toModrinthVersionData(v)
	}
	return out, nil
}

func (d *Modrinth) allVersions(ctx context.Context, urlData ports.UrlData) ([]modrinthVersion, error) {
	u, ok := d.project(urlData)
	if !ok {
		return nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a modrinth urlData", nil)
	}
	var versions []modrinthVersion
	url := d.baseURL + "/project/" + u.Project + "/version"
	if err := getJSON(ctx, d.client, url, nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// DownloadByVersion fetches the version's selected file.
func (d *Modrinth) DownloadByVersion(ctx context.Context, urlData ports.UrlData, version ports.VersionData, fileNamePattern string) (ports.LocalFile, error) {
	versions, err := d.allVersions(ctx, urlData)
	if err != nil {
		return ports.LocalFile{}, err
	}

	var match *modrinthVersion
	for i, v := range versions {
		if v.ID == version.DownloadID {
			match = &versions[i]
			break
		}
	}
	if match == nil {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", "version id not found: "+version.DownloadID, nil)
	}

	files := reorderPrimaryFirst(match.Files)
	file, err := selectFile(files, fileNamePattern, func(f modrinthFile) string { return f.Filename })
	if err != nil {
		return ports.LocalFile{}, err
	}
	return downloadToTemp(ctx, d.client, file.URL, nil)
}

// reorderPrimaryFirst moves the file flagged primary to index 0, so
// selectFile's "empty pattern = primary" rule holds even when the API
// doesn't already list it first.
func reorderPrimaryFirst(files []modrinthFile) []modrinthFile {
	for i, f := range files {
		if f.Primary && i != 0 {
			reordered := make([]modrinthFile, 0, len(files))
			reordered = append(reordered, f)
			reordered = append(reordered, files[:i]...)
			reordered = append(reordered, files[i+1:]...)
			return reordered
		}
	}
	return files
}
