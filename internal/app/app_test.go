package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/update"
)

func TestNewInstaller_ConfiguredPathReplacesBundle(t *testing.T) {
	installer, err := newInstaller("/opt/GDS.FM")
	require.NoError(t, err)
	assert.Equal(t, &update.BundleReplacer{InstallPath: "/opt/GDS.FM"}, installer)
}

func TestNewInstaller_DefaultReplacesOnlyExecutable(t *testing.T) {
	installer, err := newInstaller("")
	require.NoError(t, err)
	exe, ok := installer.(*update.ExecutableReplacer)
	require.True(t, ok, "installer is %T", installer)
	assert.NotEmpty(t, exe.Path)
}

func TestResolveExecutable_FollowsSymlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "opt", "gdsfm")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("bin"), 0o755))
	link := filepath.Join(root, "gdsfm")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := resolveExecutable(func() (string, error) { return link, nil })
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveExecutable_Error(t *testing.T) {
	_, err := resolveExecutable(func() (string, error) { return "", errors.New("no proc") })
	assert.ErrorContains(t, err, "locate executable")
}
