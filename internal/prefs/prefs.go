// Package prefs handles user preferences persistence.
// Preferences are stored in ~/.config/gdsfm/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/gdsfm/internal/search"
)

// Prefs holds user preferences.
type Prefs struct {
	MusicService search.Service `toml:"music_service"`
	// ShowVinylIcon draws a spinning record while playing.
	ShowVinylIcon bool `toml:"show_vinyl_icon"`
	// ClickToPlay binds the primary action to play/pause; otherwise it opens
	// the menu.
	ClickToPlay bool `toml:"click_to_play"`

	AnalyticsUserID         string `toml:"analytics_user_id,omitempty"`
	AnalyticsInstallTracked bool   `toml:"analytics_install_tracked"`
}

const defaultPrefsPath = "~/.config/gdsfm/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Default returns the preferences of a fresh install.
func Default() Prefs {
	return Prefs{
		MusicService:  search.AppleMusic,
		ShowVinylIcon: true,
		ClickToPlay:   true,
	}
}

// raw distinguishes unset booleans from false.
type raw struct {
	MusicService            string `toml:"music_service"`
	ShowVinylIcon           *bool  `toml:"show_vinyl_icon"`
	ClickToPlay             *bool  `toml:"click_to_play"`
	AnalyticsUserID         string `toml:"analytics_user_id"`
	AnalyticsInstallTracked bool   `toml:"analytics_install_tracked"`
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return prefs, nil // Graceful degradation, missing included
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	var r raw
	if err := toml.Unmarshal(bytes, &r); err != nil {
		return Default(), nil // Graceful degradation
	}

	prefs.MusicService = search.Parse(r.MusicService)
	if r.ShowVinylIcon != nil {
		prefs.ShowVinylIcon = *r.ShowVinylIcon
	}
	if r.ClickToPlay != nil {
		prefs.ClickToPlay = *r.ClickToPlay
	}
	prefs.AnalyticsUserID = strings.TrimSpace(r.AnalyticsUserID)
	prefs.AnalyticsInstallTracked = r.AnalyticsInstallTracked

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
