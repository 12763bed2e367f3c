package downloader

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

var spigotURL = regexp.MustCompile(`^https?://www\.spigotmc\.org/resources/[\w.-]+\.(\d+)`)
var spigotBareID = regexp.MustCompile(`^\d+$`)

// SpigotMCUrlData addresses one SpigotMC resource by its numeric id.
type SpigotMCUrlData struct {
	ResourceID string
}

type spigetVersion struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Resource int64  `json:"resource"`
}

const spigetAPIBase = "https://api.spiget.org/v2"

// SpigotMC is the Downloader driver for resources hosted on SpigotMC. There
// is no official public download API, so this drives the unofficial Spiget
// mirror (api.spiget.org), the same way the rest of the plugin-manager
// ecosystem does.
type SpigotMC struct {
	client  *retryablehttp.Client
	baseURL string
}

// NewSpigotMC constructs a SpigotMC driver.
func NewSpigotMC() *SpigotMC {
	return &SpigotMC{client: newHTTPClient(), baseURL: spigetAPIBase}
}

// DetectKind reports whether url points at a spigotmc.org resource page.
func (d *SpigotMC) DetectKind(url string) bool { return spigotURL.MatchString(url) }

// ExtractUrlData accepts a bare numeric resource id or a full resource URL.
func (d *SpigotMC) ExtractUrlData(id string) (ports.UrlData, bool) {
	if m := spigotURL.FindStringSubmatch(id); m != nil {
		return SpigotMCUrlData{ResourceID: m[1]}, true
	}
	if spigotBareID.MatchString(id) {
		return SpigotMCUrlData{ResourceID: id}, true
	}
	return nil, false
}

func (d *SpigotMC) resource(urlData ports.UrlData) (SpigotMCUrlData, bool) {
	u, ok := urlData.(SpigotMCUrlData)
	return u, ok
}

func (d *SpigotMC) listVersions(ctx context.Context, urlData ports.UrlData) ([]spigetVersion, error) {
	u, ok := d.resource(urlData)
	if !ok {
		return nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a spigotmc urlData", nil)
	}
	var versions []spigetVersion
	url := d.baseURL + "/resources/" + u.ResourceID + "/versions?size=500&sort=-releaseDate"
	if err := getJSON(ctx, d.client, url, nil, &versions); err != nil {
		return nil, err
	}
	sort.SliceStable(versions, func(i, j int) bool { return versions[i].ID > versions[j].ID })
	return versions, nil
}

func toSpigetVersionData(v spigetVersion) ports.VersionData {
	return ports.VersionData{DownloadID: strconv.FormatInt(v.ID, 10), Version: v.Name}
}

// GetLatestVersion returns the resource's newest version.
func (d *SpigotMC) GetLatestVersion(ctx context.Context, urlData ports.UrlData) (ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	if len(versions) == 0 {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "no versions published", nil)
	}
	return toSpigetVersionData(versions[0]), nil
}

// GetVersionByName returns the version whose display name equals rawVersion
// exactly.
func (d *SpigotMC) GetVersionByName(ctx context.Context, urlData ports.UrlData, rawVersion string) (ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return ports.VersionData{}, err
	}
	for _, v := range versions {
		if v.Name == rawVersion {
			return toSpigetVersionData(v), nil
		}
	}
	return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "version not found: "+rawVersion, nil)
}

// GetAllVersions returns every published version, newest first.
func (d *SpigotMC) GetAllVersions(ctx context.Context, urlData ports.UrlData) ([]ports.VersionData, error) {
	versions, err := d.listVersions(ctx, urlData)
	if err != nil {
		return nil, err
	}
	out := make([]ports.VersionData, len(versions))
	for i, v := range versions {
		out[i] = toSpigetVersionData(v)
	}
	return out, nil
}

// DownloadByVersion fetches the version's (single) download artifact.
// Spiget resolves the file server-side, so fileNamePattern is accepted for
// interface symmetry but has nothing to select among.
func (d *SpigotMC) DownloadByVersion(ctx context.Context, urlData ports.UrlData, version ports.VersionData, fileNamePattern string) (ports.LocalFile, error) {
	u, ok := d.resource(urlData)
	if !ok {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a spigotmc urlData", nil)
	}
	url := d.baseURL + "/resources/" + u.ResourceID + "/versions/" + version.DownloadID + "/download"
	return downloadToTemp(ctx, d.client, url, nil)
}
