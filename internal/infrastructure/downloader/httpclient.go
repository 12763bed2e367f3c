// Package downloader implements the per-upstream-kind Downloader drivers
// (§4.E) plus the Dispatch registry that selects among them by
// RepositoryKind.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/mpmerrors"
)

const requestTimeout = 30 * time.Second

// newHTTPClient returns a retryablehttp client configured for the
// idempotent GETs every driver issues against upstream JSON APIs. Retries
// aren't mandated by §4.E, but they cost nothing against idempotent reads
// and absorb upstream flakiness the same way reposource.Remote does.
func newHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = requestTimeout
	client.Logger = slog.NewLogLogger(slog.DiscardHandler, 0)
	// Once retries run out, hand back the last response instead of the
	// client's own give-up error, so callers can report its status.
	client.ErrorHandler = func(resp *http.Response, err error, _ int) (*http.Response, error) {
		if resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return client
}

// getJSON issues a GET against url with headers, decoding a 2xx JSON body
// into out. Non-2xx responses become a DownloadFailed PluginError carrying
// the upstream status.
func getJSON(ctx context.Context, client *retryablehttp.Client, url string, headers map[string]string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", fmt.Sprintf("%s: status %d", url, resp.StatusCode), nil)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// downloadToTemp streams url's body into a new temp file, returning its
// path and size.
func downloadToTemp(ctx context.Context, client *retryablehttp.Client, url string, headers map[string]string) (ports.LocalFile, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.LocalFile{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ports.LocalFile{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.LocalFile{}, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", fmt.Sprintf("%s: status %d", url, resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp("", "mpm-download-*")
	if err != nil {
		return ports.LocalFile{}, err
	}
	defer func() { _ = tmp.Close() }()

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return ports.LocalFile{}, err
	}

	return ports.LocalFile{Path: tmp.Name(), Size: size}, nil
}

// selectFile picks the download target among candidate file names: an
// empty fileNamePattern selects primary (index 0); otherwise the first
// name matching the regex. Fails if the pattern matches nothing (§4.E).
func selectFile[T any](files []T, fileNamePattern string, nameOf func(T) string) (T, error) {
	var zero T
	if len(files) == 0 {
		return zero, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", "no files available for this version", nil)
	}
	if fileNamePattern == "" {
		return files[0], nil
	}
	re, err := regexp.Compile(fileNamePattern)
	if err != nil {
		return zero, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", "invalid fileNamePattern: "+fileNamePattern, err)
	}
	for _, f := range files {
		if re.MatchString(nameOf(f)) {
			return f, nil
		}
	}
	return zero, mpmerrors.NewPluginError(mpmerrors.DownloadFailed, "", "no file matched pattern "+fileNamePattern, nil)
}
