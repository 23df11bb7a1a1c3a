package update

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/fault"
	"github.com/five82/gdsfm/internal/pending"
)

// Installer replaces the running application with a bundle directory.
type Installer interface {
	Install(bundlePath string) error
}

// BundleReplacer swaps InstallPath for a new bundle. The previous bundle is
// renamed aside first and restored if the new one cannot be moved in.
type BundleReplacer struct {
	InstallPath string
}

var _ Installer = (*BundleReplacer)(nil)

// Install moves bundlePath to InstallPath. The bundle is consumed on success.
func (r *BundleReplacer) Install(bundlePath string) error {
	if r.InstallPath == "" {
		return fmt.Errorf("%w: no install path configured", fault.ErrInstall)
	}
	info, err := os.Stat(bundlePath)
	if err != nil {
		return fmt.Errorf("%w: stat bundle: %w", fault.ErrInstall, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: bundle %s is not a directory", fault.ErrInstall, bundlePath)
	}
	if err := os.MkdirAll(filepath.Dir(r.InstallPath), 0o755); err != nil {
		return fmt.Errorf("%w: create install parent: %w", fault.ErrInstall, err)
	}

	backup := r.InstallPath + ".previous"
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("%w: clear backup: %w", fault.ErrInstall, err)
	}

	hadPrevious := false
	if _, err := os.Lstat(r.InstallPath); err == nil {
		if err := os.Rename(r.InstallPath, backup); err != nil {
			return fmt.Errorf("%w: move current bundle aside: %w", fault.ErrInstall, err)
		}
		hadPrevious = true
	}

	if err := pending.MoveDir(bundlePath, r.InstallPath); err != nil {
		_ = os.RemoveAll(r.InstallPath)
		if hadPrevious {
			if restoreErr := os.Rename(backup, r.InstallPath); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("restore previous bundle: %w", restoreErr))
			}
		}
		return fmt.Errorf("%w: move bundle into place: %w", fault.ErrInstall, err)
	}

	if hadPrevious {
		if err := os.RemoveAll(backup); err != nil {
			log.Warn().Err(err).Str("path", backup).Msg("remove previous bundle")
		}
	}
	log.Info().Str("path", r.InstallPath).Msg("bundle installed")
	return nil
}

// ExecutableReplacer swaps a single executable file for the binary of the
// same name inside a bundle. Other files next to the executable are left
// alone. The bundle may hold the binary at its root or under bin/.
type ExecutableReplacer struct {
	Path string
}

var _ Installer = (*ExecutableReplacer)(nil)

// Install replaces Path with the bundle's binary and removes the bundle.
func (r *ExecutableReplacer) Install(bundlePath string) error {
	if r.Path == "" {
		return fmt.Errorf("%w: no executable path configured", fault.ErrInstall)
	}
	src, err := bundleBinary(bundlePath, filepath.Base(r.Path))
	if err != nil {
		return err
	}

	staged := r.Path + ".new"
	_ = os.Remove(staged)
	if err := pending.CopyFile(src, staged, 0o755); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("%w: stage executable: %w", fault.ErrInstall, err)
	}

	backup := r.Path + ".previous"
	_ = os.Remove(backup)
	hadPrevious := false
	if _, err := os.Lstat(r.Path); err == nil {
		if err := os.Rename(r.Path, backup); err != nil {
			_ = os.Remove(staged)
			return fmt.Errorf("%w: move current executable aside: %w", fault.ErrInstall, err)
		}
		hadPrevious = true
	}

	if err := os.Rename(staged, r.Path); err != nil {
		_ = os.Remove(staged)
		if hadPrevious {
			if restoreErr := os.Rename(backup, r.Path); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("restore previous executable: %w", restoreErr))
			}
		}
		return fmt.Errorf("%w: move executable into place: %w", fault.ErrInstall, err)
	}

	if hadPrevious {
		if err := os.Remove(backup); err != nil {
			log.Warn().Err(err).Str("path", backup).Msg("remove previous executable")
		}
	}
	if err := os.RemoveAll(bundlePath); err != nil {
		log.Warn().Err(err).Str("path", bundlePath).Msg("remove installed bundle")
	}
	log.Info().Str("path", r.Path).Msg("executable installed")
	return nil
}

func bundleBinary(bundlePath, name string) (string, error) {
	for _, candidate := range []string{
		filepath.Join(bundlePath, name),
		filepath.Join(bundlePath, "bin", name),
	} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: bundle %s has no %s binary", fault.ErrInstall, bundlePath, name)
}
