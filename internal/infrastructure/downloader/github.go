package downloader

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

var githubOwnerRepo = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)
var githubURL = regexp.MustCompile(`^https?://github\.com/([\w.-]+)/([\w.-]+)`)

// GitHubUrlData addresses one GitHub repository.
type GitHubUrlData struct {
	Owner string
	Repo  string
}

type githubAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	ID      int64         `json:"id"`
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

const githubAPIBase = "https://api.github.com"

// GitHub is the Downloader driver for repositories hosted on GitHub, using
// the Releases API.
type GitHub struct {
	client  *retryablehttp.Client
	headers map[string]string
	baseURL string
}

// NewGitHub constructs a GitHub driver. headers may carry an Authorization
// token to raise the unauthenticated rate limit.
func NewGitHub(headers map[string]string) *GitHub {
	return &GitHub{client: newHTTPClient(), headers: headers, baseURL: githubAPIBase}
}

// DetectKind reports whether url points at github.com.
func (d *GitHub) DetectKind(url string) bool {
	return githubURL.MatchString(url)
}

// ExtractUrlData parses "owner/repo" (or a full github.com URL) into a
// GitHubUrlData.
func (d *GitHub) ExtractUrlData(id string) (ports.UrlData, bool) {
	if m := githubURL.FindStringSubmatch(id); m != nil {
		return GitHubUrlData{Owner: m[1], Repo: strings.TrimSuffix(m[2], ".git")}, true
	}
	if githubOwnerRepo.MatchString(id) {
		parts := strings.SplitN(id, "/", 2)
		return GitHubUrlData{Owner: parts[0], Repo: parts[1]}, true
	}
	return nil, false
}

func (d *GitHub) repo(urlData ports.UrlData) (GitHubUrlData, bool) {
	u, ok := urlData.(GitHubUrlData)
	return u, ok
}

func (d *GitHub) apiBase(u GitHubUrlData) string {
	return fmt.Sprintf("%s/repos/%s/%s", d.baseURL, u.Owner, u.Repo)
}

func toVersionData(r githubRelease) ports.VersionData {
	return ports.VersionData{DownloadID: strconv.FormatInt(r.ID, 10), Version: r.TagName}
}

// GetLatestVersion returns the repository's latest release.
func (d *GitHub) GetLatestVersion(ctx context.Context, urlData ports.UrlData) (ports.VersionData, error) {
	u, ok := d.repo(urlData)
	if !ok {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a github urlData", nil)
	}
	var release githubRelease
	if err := getJSON(ctx, d.client, d.apiBase(u)+"/releases/latest", d.headers, &release); err != nil {
		return ports.VersionData{}, err
	}
	return toVersionData(release), nil
}

// GetVersionByName returns the release tagged exactly rawVersion.
func (d *GitHub) GetVersionByName(ctx context.Context, urlData ports.UrlData, rawVersion string) (ports.VersionData, error) {
	u, ok := d.repo(urlData)
	if !ok {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a github urlData", nil)
	}
	var release githubRelease
	if err := getJSON(ctx, d.client, d.apiBase(u)+"/releases/tags/"+rawVersion, d.headers, &release); err != nil {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "tag not found: "+rawVersion, err)
	}
	return toVersionData(release), nil
}

// GetAllVersions returns every release, newest first (GitHub's default
// release listing order).
func (d *GitHub) GetAllVersions(ctx context.Context, urlData ports.UrlData) ([]ports.VersionData, error) {
	u, ok := d.repo(urlData)
	if !ok {
		return nil, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a github urlData", nil)
	}
	var releases []githubRelease
	if err := getJSON(ctx, d.client, d.apiBase(u)+"/releases?per_page=100", d.headers, &releases); err != nil {
		return nil, err
	}
	out := make([]ports.VersionData, len(releases))
	for i, r := range releases {
		out[i] = toVersionData(r)
	}
	return out, nil
}

// DownloadByVersion fetches the release's selected asset.
func (d *GitHub) DownloadByVersion(ctx context.Context, urlData ports.UrlData, version ports.VersionData, fileNamePattern string) (ports.LocalFile, error) {
	u, ok := d.repo(urlData)
	if !ok {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a github urlData", nil)
	}
	var release githubRelease
	if err := getJSON(ctx, d.client, d.apiBase(u)+"/releases/"+version.DownloadID, d.headers, &release); err != nil {
		return ports.LocalFile{}, err
	}

	asset, err := selectFile(release.Assets, fileNamePattern, func(a githubAsset) string { return a.Name })
	if err != nil {
		return ports.LocalFile{}, err
	}

	return downloadToTemp(ctx, d.client, asset.BrowserDownloadURL, d.headers)
}
