// Package pending persists at most one downloaded-but-not-installed update
// bundle together with the record that describes it.
package pending

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/gdsfm/internal/fault"
)

// DeferredUpdate describes a persisted bundle waiting to be installed.
type DeferredUpdate struct {
	BundlePath     string `toml:"path"`
	ReleaseVersion string `toml:"version"`
	ReleaseName    string `toml:"name"`
	AssetName      string `toml:"asset"`
}

// Store keeps pending bundles under dir and the single record at recordPath.
// dir must live outside the application's install path so a bundle survives
// the application being replaced.
type Store struct {
	dir        string
	recordPath string
}

// NewStore returns a store rooted at dir with its record at recordPath.
func NewStore(dir, recordPath string) *Store {
	return &Store{dir: dir, recordPath: recordPath}
}

// Dir returns the pending bundle directory.
func (s *Store) Dir() string {
	return s.dir
}

// Persist moves bundlePath into the pending directory, replacing any earlier
// pending bundle, and returns the durable path. A rename that crosses devices
// falls back to a recursive copy.
func (s *Store) Persist(bundlePath string) (string, error) {
	info, err := os.Stat(bundlePath)
	if err != nil {
		return "", fmt.Errorf("%w: stat bundle: %w", fault.ErrStorage, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: bundle %s is not a directory", fault.ErrStorage, bundlePath)
	}
	if filepath.Dir(filepath.Clean(bundlePath)) == filepath.Clean(s.dir) {
		return bundlePath, nil
	}

	if err := os.RemoveAll(s.dir); err != nil {
		return "", fmt.Errorf("%w: reset pending dir: %w", fault.ErrStorage, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create pending dir: %w", fault.ErrStorage, err)
	}

	dest := filepath.Join(s.dir, filepath.Base(bundlePath))
	if err := MoveDir(bundlePath, dest); err != nil {
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("%w: persist bundle: %w", fault.ErrStorage, err)
	}
	return dest, nil
}

// StoreRecord overwrites the persisted record.
func (s *Store) StoreRecord(rec DeferredUpdate) error {
	if err := os.MkdirAll(filepath.Dir(s.recordPath), 0o755); err != nil {
		return fmt.Errorf("%w: create record dir: %w", fault.ErrStorage, err)
	}
	bytes, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal record: %w", fault.ErrStorage, err)
	}

	tmp := s.recordPath + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("%w: write record: %w", fault.ErrStorage, err)
	}
	if err := os.Rename(tmp, s.recordPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: commit record: %w", fault.ErrStorage, err)
	}
	return nil
}

// LoadRecord returns the persisted record, or nil when there is none.
func (s *Store) LoadRecord() (*DeferredUpdate, error) {
	bytes, err := os.ReadFile(s.recordPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read record: %w", fault.ErrStorage, err)
	}

	var rec DeferredUpdate
	if err := toml.Unmarshal(bytes, &rec); err != nil {
		return nil, fmt.Errorf("%w: parse record: %w", fault.ErrStorage, err)
	}
	if strings.TrimSpace(rec.BundlePath) == "" {
		return nil, nil
	}
	return &rec, nil
}

// Clear removes the record and the pending bundle directory. Clearing an
// empty store is a no-op.
func (s *Store) Clear() error {
	var errs []error
	if err := os.Remove(s.recordPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove record: %w", err))
	}
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove pending dir: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", fault.ErrStorage, errors.Join(errs...))
	}
	return nil
}

// Validate reports whether the record's bundle still exists as a readable
// directory.
func (s *Store) Validate(rec DeferredUpdate) bool {
	if strings.TrimSpace(rec.BundlePath) == "" {
		return false
	}
	dir, err := os.Open(rec.BundlePath)
	if err != nil {
		return false
	}
	defer func() { _ = dir.Close() }()

	info, err := dir.Stat()
	if err != nil || !info.IsDir() {
		return false
	}
	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return true
}

// ValidateOnLaunch loads the record and clears it when its bundle is gone.
// It returns the surviving record, if any.
func (s *Store) ValidateOnLaunch() (*DeferredUpdate, error) {
	rec, err := s.LoadRecord()
	if err != nil {
		if clearErr := s.Clear(); clearErr != nil {
			return nil, errors.Join(err, clearErr)
		}
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if s.Validate(*rec) {
		return rec, nil
	}
	if err := s.Clear(); err != nil {
		return nil, err
	}
	return nil, nil
}

// MoveDir renames src to dest, copying and then removing src when the rename
// fails because the paths are on different devices.
func MoveDir(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyTree(src, dest); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return CopyFile(path, target, info.Mode().Perm())
		}
	})
}

// CopyFile copies the contents of src to dest, creating dest with perm.
func CopyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
