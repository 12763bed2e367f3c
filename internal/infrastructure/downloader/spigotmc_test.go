package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/morinoparty/mpm/internal/application/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpigotMC(srvURL string) *SpigotMC {
	return &SpigotMC{client: newHTTPClient(), baseURL: srvURL}
}

func TestSpigotMC_ExtractUrlData(t *testing.T) {
	t.Parallel()

	d := NewSpigotMC()

	u, ok := d.ExtractUrlData("https://www.spigotmc.org/resources/essentialsx.9089/")
	require.True(t, ok)
	assert.Equal(t, SpigotMCUrlData{ResourceID: "9089"}, u)

	u, ok = d.ExtractUrlData("9089")
	require.True(t, ok)
	assert.Equal(t, SpigotMCUrlData{ResourceID: "9089"}, u)

	_, ok = d.ExtractUrlData("not-numeric")
	assert.False(t, ok)
}

func TestSpigotMC_GetLatestVersion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources/9089/versions", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":5,"name":"2.20.1"},{"id":4,"name":"2.19.0"}]`))
	}))
	defer srv.Close()

	d := newTestSpigotMC(srv.URL)
	v, err := d.GetLatestVersion(context.Background(), SpigotMCUrlData{ResourceID: "9089"})
	require.NoError(t, err)
	assert.Equal(t, "5", v.DownloadID)
	assert.Equal(t, "2.20.1", v.Version)
}

func TestSpigotMC_DownloadByVersion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources/9089/versions/5/download", r.URL.Path)
		_, _ = w.Write([]byte("jar-bytes"))
	}))
	defer srv.Close()

	d := newTestSpigotMC(srv.URL)
	file, err := d.DownloadByVersion(context.Background(), SpigotMCUrlData{ResourceID: "9089"}, ports.VersionData{DownloadID: "5"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, file.Path)
}
