package reposource

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/morinoparty/mpm/internal/domain/entities"
	"github.com/morinoparty/mpm/internal/infrastructure/jsonschema"
)

// defaultTimeout is the per-request timeout a Remote source uses absent an
// override (§4.D: "per-request and connect timeouts SHOULD default to 30s").
const defaultTimeout = 30 * time.Second

// Remote is an HTTP-backed RepositorySource reachable at a base URL, with
// static headers applied to every request. Any I/O failure reads as
// unavailable/empty/nil per §4.D - errors are swallowed, never propagated.
type Remote struct {
	baseURL string
	headers map[string]string
	client  *retryablehttp.Client
}

// NewRemote constructs a Remote source. A discarding logger is attached to
// the retryable client so retry chatter does not reach stderr by default.
func NewRemote(baseURL string, headers map[string]string) *Remote {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = defaultTimeout
	client.Logger = slog.NewLogLogger(slog.DiscardHandler, 0)
	return &Remote{baseURL: baseURL, headers: headers, client: client}
}

func (r *Remote) newRequest(ctx context.Context, method, url string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// IsAvailable issues a HEAD on <base>/_list.json.
func (r *Remote) IsAvailable(ctx context.Context) bool {
	req, err := r.newRequest(ctx, http.MethodHead, r.baseURL+"/_list.json")
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ListAvailable GETs <base>/_list.json, a JSON array of plugin names.
func (r *Remote) ListAvailable(ctx context.Context) []string {
	req, err := r.newRequest(ctx, http.MethodGet, r.baseURL+"/_list.json")
	if err != nil {
		return nil
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil
	}
	sort.Strings(names)
	return names
}

// GetRepositoryFile GETs <base>/plugins/<name>.json.
func (r *Remote) GetRepositoryFile(ctx context.Context, name string) (entities.RepositoryFile, bool) {
	req, err := r.newRequest(ctx, http.MethodGet, r.baseURL+"/plugins/"+name+".json")
	if err != nil {
		return entities.RepositoryFile{}, false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return entities.RepositoryFile{}, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entities.RepositoryFile{}, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.RepositoryFile{}, false
	}
	if err := jsonschema.ValidateCatalogue(body); err != nil {
		return entities.RepositoryFile{}, false
	}
	var wire repositoryFileWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return entities.RepositoryFile{}, false
	}
	return fromWire(wire), true
}

// Kind reports SourceRemote.
func (r *Remote) Kind() ports.SourceKind { return ports.SourceRemote }

// Identifier returns the base URL.
func (r *Remote) Identifier() string { return r.baseURL }
