package release

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/gdsfm/internal/fault"
)

// Unpack extracts the archive at zipPath into destDir and returns the bundle
// directory: the archive's single top-level directory when it has one,
// otherwise destDir itself.
func Unpack(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: open archive: %w", fault.ErrDecode, err)
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create unpack dir: %w", err)
	}
	root, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("resolve unpack dir: %w", err)
	}

	tops := make(map[string]bool)
	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		// macOS archives carry resource forks we never install.
		if strings.HasPrefix(name, "__MACOSX") {
			continue
		}
		target := filepath.Join(root, name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return "", fmt.Errorf("%w: archive entry %q escapes destination", fault.ErrDecode, f.Name)
		}
		if top := strings.SplitN(filepath.ToSlash(name), "/", 2)[0]; top != "" {
			tops[top] = true
		}
		if err := extract(f, root, target); err != nil {
			return "", fmt.Errorf("%w: extract %s: %w", fault.ErrDecode, f.Name, err)
		}
	}

	if len(tops) == 1 {
		for top := range tops {
			candidate := filepath.Join(root, top)
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate, nil
			}
		}
	}
	return root, nil
}

func extract(f *zip.File, root, target string) error {
	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(target, 0o755)
	case mode&os.ModeSymlink != 0:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		link, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
		resolved := filepath.Join(filepath.Dir(target), string(link))
		if filepath.IsAbs(string(link)) || !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
			return fmt.Errorf("symlink %q escapes destination", link)
		}
		return os.Symlink(string(link), target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
