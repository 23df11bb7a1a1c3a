package app

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/loop"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/release"
	"github.com/five82/gdsfm/internal/update"
)

type archiveSource struct{ archive []byte }

func (s archiveSource) Releases(context.Context) ([]release.Release, error) {
	return []release.Release{{
		TagName: "v1.5.0",
		Name:    "GDS.FM 1.5.0",
		Assets:  []release.Asset{{Name: "GDS.FM-1.5.0.zip", DownloadURL: "https://example.test/GDS.FM-1.5.0.zip"}},
	}}, nil
}

func (s archiveSource) Download(_ context.Context, _ release.Asset, dest io.Writer, progress func(float64)) (int64, error) {
	n, err := dest.Write(s.archive)
	progress(1)
	return int64(n), err
}

func testArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("GDS.FM/gdsfm")
	require.NoError(t, err)
	_, err = w.Write([]byte("bin"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func runTestCheck(t *testing.T, source release.Source, input string) (string, *pending.Store, *countingInstaller, error) {
	t.Helper()
	root := t.TempDir()
	store := pending.NewStore(filepath.Join(root, "pending"), filepath.Join(root, "deferred-update.toml"))
	installer := &countingInstaller{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := loop.New()
	go l.Run(ctx)

	mgr := update.NewManager(l, update.Options{
		Source:    source,
		Store:     store,
		Installer: installer,
		Criteria:  release.Criteria{Prefix: "GDS.FM", Current: "v1.0.0"},
		WorkDir:   filepath.Join(root, "downloads"),
	})

	var out bytes.Buffer
	err := runCheck(ctx, l, mgr, strings.NewReader(input), &out)
	return out.String(), store, installer, err
}

func TestRunCheck_InstallNow(t *testing.T) {
	out, store, installer, err := runTestCheck(t, archiveSource{archive: testArchive(t)}, "y\n")
	require.NoError(t, err)

	assert.Contains(t, out, "GDS.FM 1.5.0 is ready to install.")
	assert.Contains(t, out, "Installed v1.5.0.")
	assert.Len(t, installer.bundles, 1)

	rec, err := store.LoadRecord()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRunCheck_DeclineDefersUpdate(t *testing.T) {
	out, store, installer, err := runTestCheck(t, archiveSource{archive: testArchive(t)}, "n\n")
	require.NoError(t, err)

	assert.Contains(t, out, "The update will be installed when you quit GDS.FM.")
	assert.Empty(t, installer.bundles)

	rec, err := store.LoadRecord()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "v1.5.0", rec.ReleaseVersion)
}

func TestRunCheck_UpToDate(t *testing.T) {
	out, _, installer, err := runTestCheck(t, emptySource{}, "")
	require.NoError(t, err)

	assert.Contains(t, out, "You're running the latest version of GDS.FM.")
	assert.NotContains(t, out, "Install now?")
	assert.Empty(t, installer.bundles)
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" y ":   true,
		"n\n":   false,
		"":      false,
		"maybe": false,
	} {
		var out bytes.Buffer
		assert.Equal(t, want, confirm(strings.NewReader(input), &out, "? "), "input %q", input)
		assert.Equal(t, "? ", out.String())
	}
}
