package release

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/fault"
)

func TestFeed_Releases(t *testing.T) {
	t.Parallel()

	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"tag_name":   "v1.5.0",
			"name":       "GDS.FM 1.5.0",
			"body":       "Fixes",
			"prerelease": false,
			"assets": []map[string]any{{
				"name":                 "GDS.FM-1.5.0.zip",
				"browser_download_url": "https://example.test/a.zip",
				"size":                 2048,
			}},
		}})
	}))
	t.Cleanup(server.Close)

	feed, err := NewFeed(server.URL+"/api/v3/", "gdsfm", "player")
	require.NoError(t, err)

	releases, err := feed.Releases(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "/api/v3/repos/gdsfm/player/releases", gotPath)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "GDS.FM 1.5.0", releases[0].Name)
	assert.Equal(t, "v1.5.0", releases[0].Version())
	require.Len(t, releases[0].Assets, 1)
	assert.Equal(t, int64(2048), releases[0].Assets[0].Size)
	assert.Equal(t, "https://example.test/a.zip", releases[0].Assets[0].DownloadURL)
}

func TestFeed_ReleasesErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/bad/") {
			_, _ = w.Write([]byte("{"))
			return
		}
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	feed, err := NewFeed(server.URL, "gdsfm", "limited")
	require.NoError(t, err)
	_, err = feed.Releases(context.Background())
	assert.ErrorIs(t, err, fault.ErrTransport)

	feed, err = NewFeed(server.URL, "bad", "json")
	require.NoError(t, err)
	_, err = feed.Releases(context.Background())
	assert.ErrorIs(t, err, fault.ErrDecode)
}

func TestNewFeed_RequiresRepo(t *testing.T) {
	_, err := NewFeed("", "gdsfm", " ")
	assert.Error(t, err)
}

func TestFeed_DownloadReportsProgress(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("x"), 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short.zip" {
			_, _ = w.Write(payload[:10])
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	feed, err := NewFeed(server.URL, "gdsfm", "player")
	require.NoError(t, err)

	var buf bytes.Buffer
	var fractions []float64
	n, err := feed.Download(context.Background(),
		Asset{Name: "GDS.FM.zip", DownloadURL: server.URL + "/GDS.FM.zip", Size: int64(len(payload))},
		&buf, func(f float64) { fractions = append(fractions, f) })
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}

	_, err = feed.Download(context.Background(),
		Asset{Name: "short.zip", DownloadURL: server.URL + "/short.zip", Size: 100},
		&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, fault.ErrDownload)

	_, err = feed.Download(context.Background(), Asset{Name: "none.zip"}, &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, fault.ErrDownload)
}
