package downloader

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

var jenkinsJobURL = regexp.MustCompile(`^(https?://[^/]+(?:/[\w.-]+)*?)/job/([\w.-]+)/?$`)

// JenkinsUrlData addresses one Jenkins job by its base server URL and job
// path segment.
type JenkinsUrlData struct {
	BaseURL string
	Job     string
}

type jenkinsArtifact struct {
	FileName     string `json:"fileName"`
	RelativePath string `json:"relativePath"`
}

type jenkinsBuild struct {
	Number    int               `json:"number"`
	Artifacts []jenkinsArtifact `json:"artifacts"`
	URL       string            `json:"url"`
}

// Jenkins is the Downloader driver for plugins published as artifacts of a
// Jenkins freestyle or pipeline job.
type Jenkins struct {
	client *retryablehttp.Client
}

// NewJenkins constructs a Jenkins driver.
func NewJenkins() *Jenkins {
	return &Jenkins{client: newHTTPClient()}
}

// DetectKind reports whether url looks like a Jenkins job URL
// (".../job/<name>").
func (d *Jenkins) DetectKind(url string) bool { return jenkinsJobURL.MatchString(url) }

// ExtractUrlData splits a Jenkins job URL into its server base and job name.
func (d *Jenkins) ExtractUrlData(id string) (ports.UrlData, bool) {
	m := jenkinsJobURL.FindStringSubmatch(id)
	if m == nil {
		return nil, false
	}
	return JenkinsUrlData{BaseURL: m[1], Job: m[2]}, true
}

func (d *Jenkins) job(urlData ports.UrlData) (JenkinsUrlData, bool) {
	u, ok := urlData.(JenkinsUrlData)
	return u, ok
}

func (d *Jenkins) jobBase(u JenkinsUrlData) string {
	return strings.TrimSuffix(u.BaseURL, "/") + "/job/" + u.Job
}

func (d *Jenkins) fetchBuild(ctx context.Context, u JenkinsUrlData, buildPath string) (jenkinsBuild, error) {
	var build jenkinsBuild
	url := d.jobBase(u) + "/" + buildPath + "/api/json?tree=number,url,artifacts[fileName,relativePath]"
	if err := getJSON(ctx, d.client, url, nil, &build); err != nil {
		return jenkinsBuild{}, err
	}
	return build, nil
}

func toJenkinsVersionData(b jenkinsBuild) ports.VersionData {
	n := strconv.Itoa(b.Number)
	return ports.VersionData{DownloadID: n, Version: n}
}

// GetLatestVersion returns the job's last successful build.
func (d *Jenkins) GetLatestVersion(ctx context.Context, urlData ports.UrlData) (ports.VersionData, error) {
	u, ok := d.job(urlData)
	if !ok {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a jenkins urlData", nil)
	}
	build, err := d.fetchBuild(ctx, u, "lastSuccessfulBuild")
	if err != nil {
		return ports.VersionData{}, err
	}
	return toJenkinsVersionData(build), nil
}

// GetVersionByName returns the build numbered rawVersion.
func (d *Jenkins) GetVersionByName(ctx context.Context, urlData ports.UrlData, rawVersion string) (ports.VersionData, error) {
	u, ok := d.job(urlData)
	if !ok {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a jenkins urlData", nil)
	}
	build, err := d.fetchBuild(ctx, u, rawVersion)
	if err != nil {
		return ports.VersionData{}, mpmerrors.NewPluginError(mpmerrors.VersionResolutionFailed, "", "build not found: "+rawVersion, err)
	}
	return toJenkinsVersionData(build), nil
}

// GetAllVersions reports only the latest build: Jenkins exposes no single
// endpoint listing every retained build's artifacts without N requests, and
// job retention windows make "all versions" an unbounded, policy-dependent
// set.
func (d *Jenkins) GetAllVersions(ctx context.Context, urlData ports.UrlData) ([]ports.VersionData, error) {
	latest, err := d.GetLatestVersion(ctx, urlData)
	if err != nil {
		return nil, err
	}
	return []ports.VersionData{latest}, nil
}

// DownloadByVersion fetches the build's selected artifact.
func (d *Jenkins) DownloadByVersion(ctx context.Context, urlData ports.UrlData, version ports.VersionData, fileNamePattern string) (ports.LocalFile, error) {
	u, ok := d.job(urlData)
	if !ok {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.UnsupportedRepository, "", "not a jenkins urlData", nil)
	}
	build, err := d.fetchBuild(ctx, u, version.DownloadID)
	if err != nil {
		return ports.LocalFile{}, err
	}
	artifact, err := selectFile(build.Artifacts, fileNamePattern, func(a jenkinsArtifact) string { return a.FileName })
	if err != nil {
		return ports.LocalFile{}, err
	}
	url := d.jobBase(u) + "/" + version.DownloadID + "/artifact/" + artifact.RelativePath
	return downloadToTemp(ctx, d.client, url, nil)
}
