package downloader

import (
	"context"
	"regexp"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

var hangarURL = regexp.MustCompile(`^https?://hangar\.papermc\.io/([\w.-]+)/([\w.-]+)`)
var hangarOwnerSlug = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

// HangarUrlData addresses one Hangar project.
type HangarUrlData struct {
	Owner string
	Slug  string
}

type hangarDownload struct {
	FileInfo struct {
		Name string `json:"name"`
	} `json:"fileInfo"`
	DownloadURL string `json:"downloadUrl"`
}

type hangarVersion struct {
	Name      string                    `json:"name"`
	Downloads map[string]hangarDownload `json:"downloads"`
}

type hangarVersionPage struct {
	Result []hangarVersion `json:"result"`
}

const hangarAPIBase = "https://hangar.papermc.io/api/v1"

// Hangar is the Downloader driver for projects hosted on PaperMC Hangar.
type Hangar struct {
	client  *retryablehttp.Client
	baseURL string
}

// NewHangar constructs a Hangar driver.
func NewHangar() *Hangar {
	return &Hangar{client: newHTTPClient(), baseURL: hangarAPIBase}
}

// DetectKind reports whether url points at hangar.papermc.io.
func (d *Hangar) DetectKind(url string) bool { return hangarURL.MatchString(url) }

// ExtractUrlData parses "owner/slug" or a full Hangar URL.
func (d *Hangar) ExtractUrlData(id string) (ports.UrlData, bool) {
	if m := hangarURL.FindStringSubmatch(id); m != nil {
		return HangarUrlData{Owner: m[1], Slug: m[2]}, true
	}
	if hangarOwnerSlug.MatchString(id) {
		return HangarUrlData{Owner: splitFirst(id), Slug: splitRest(id)}, true
	}
	return nil, false
}

func splitFirst(ownerSlug string) string {
	for i, c := range ownerSlug {
		if c == '/' {
			return ownerSlug[:i]
		}
	}
	return ownerSlug
}

func splitRest(ownerSlug string) string {
	for i, c := range ownerSlug {
		if c == '/' {
			return ownerSlug[i+1:]
		}
	}
	return ""
}

func (d *Hangar) project(urlData ports.UrlData) (HangarUrlData, bool) {
	u, ok := urlData.(HangarUrlData)
	return u, ok
}

func (d *Hangar) listVersions(ctx context.Context, urlData ports.UrlData) ([]hangarVersion, error) {
	u, ok := d.project(urlData)
	if !ok {
		return nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a hangar urlData", nil)
	}
	var page hangarVersionPage
	url := d.baseURL + "/projects/" + u.Owner + "/" + u.Slug + "/versions"
	if err := getJSON(ctx, d.client, url, nil, &page); err != nil {
		return nil, err
	}
	return page.Result, nil
}

func toHangarVersionData(v hangarVersion) ports.VersionData {
	return ports.VersionData{DownloadID: v.Name, Version: v.Name}
}

// GetLatestVersion returns the project's newest listed version (Hangar
// returns versions newest-first).
func (d *Hangar) GetLatestVersion(ctx context.Context, urlData ports.UrlData) (ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	if len(versions) == 0 {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "no versions published", nil)
	}
	return toHangarVersionData(versions[0]), nil
}

// GetVersionByName returns the version named exactly rawVersion.
func (d *Hangar) GetVersionByName(ctx context.Context, urlData ports.UrlData, rawVersion string) (ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	for _, v := range versions {
		if v.Name == rawVersion {
			return toHangarVersionData(v), nil
		}
	}
	return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "version not found: "+rawVersion, nil)
}

// GetAllVersions returns every published version, newest first.
func (d *Hangar) GetAllVersions(ctx context.Context, urlData ports.UrlData) ([]ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return nil, err
	}
	out := make([]ports.VersionData, len(versions))
	for i, v := range versions {
		out[i] = toHangarVersionData(v)
	}
	return out, nil
}

// DownloadByVersion fetches the version's selected platform file.
func (d *Hangar) DownloadByVersion(ctx context.Context, urlData ports.UrlData, version ports.VersionData, fileNamePattern string) (ports.LocalFile, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return ports.LocalFile{}, err
	}

	var match *hangarVersion
	for i, v := range versions {
		if v.Name == version.DownloadID {
			match = &versions[i]
			break
		}
	}
	if match == nil {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", "version not found: "+version.DownloadID, nil)
	}

	downloads := make([]hangarDownload, 0, len(match.Downloads))
	for _, dl := range match.Downloads {
		downloads = append(downloads, dl)
	}
	file, err := selectFile(downloads, fileNamePattern, func(dl hangarDownload) string { return dl.FileInfo.Name })
	if err != nil {
		return ports.LocalFile{}, err
	}
	return downloadToTemp(ctx, d.client, file.DownloadURL, nil)
}
