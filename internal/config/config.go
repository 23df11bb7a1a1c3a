package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the agent reads from config.toml.
type Config struct {
	StreamURL    string
	LiveInfoURL  string
	PollInterval time.Duration
	LogDir       string
	Updates      Updates
	Analytics    Analytics
}

// Updates configures the self-update lifecycle.
type Updates struct {
	Enabled         bool
	APIURL          string
	Owner           string
	Repo            string
	ReleasePrefix   string
	AllowPrerelease bool
	Interval        time.Duration
	PendingDir      string
	RecordPath      string
	// InstallPath is the bundle directory being replaced. Empty replaces
	// only the running executable.
	InstallPath string
}

// Analytics configures event emission.
type Analytics struct {
	Enabled  bool
	APIURL   string
	APIToken string
}

const (
	defaultConfigPath    = "~/.config/gdsfm/config.toml"
	defaultStreamURL     = "https://gdsfm.out.airtime.pro/gdsfm_a"
	defaultLiveInfoURL   = "https://gdsfm.airtime.pro/api/live-info-v2?timezone=utc"
	defaultPollSeconds   = 30
	defaultLogDir        = "~/.local/share/gdsfm/logs"
	defaultUpdatesAPI    = "https://api.github.com"
	defaultReleasePrefix = "GDS.FM"
	defaultIntervalHours = 24
	defaultPendingDir    = "~/.local/share/gdsfm/pending-updates"
	defaultRecordPath    = "~/.config/gdsfm/deferred-update.toml"
)

// Active reports whether update checks can run.
func (u Updates) Active() bool {
	return u.Enabled && u.Owner != "" && u.Repo != ""
}

// Active reports whether events should be sent.
func (a Analytics) Active() bool {
	return a.Enabled && a.APIURL != ""
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StreamURL:    defaultStreamURL,
		LiveInfoURL:  defaultLiveInfoURL,
		PollInterval: defaultPollSeconds * time.Second,
		LogDir:       mustExpand(defaultLogDir),
		Updates: Updates{
			Enabled:       true,
			APIURL:        defaultUpdatesAPI,
			ReleasePrefix: defaultReleasePrefix,
			Interval:      defaultIntervalHours * time.Hour,
			PendingDir:    mustExpand(defaultPendingDir),
			RecordPath:    mustExpand(defaultRecordPath),
		},
	}
}

type rawConfig struct {
	StreamURL   string `toml:"stream_url"`
	LiveInfoURL string `toml:"live_info_url"`
	PollSeconds int    `toml:"poll_seconds"`
	LogDir      string `toml:"log_dir"`
	Updates     struct {
		Enabled         *bool  `toml:"enabled"`
		APIURL          string `toml:"api_url"`
		Owner           string `toml:"owner"`
		Repo            string `toml:"repo"`
		ReleasePrefix   string `toml:"release_prefix"`
		AllowPrerelease bool   `toml:"allow_prerelease"`
		IntervalHours   int    `toml:"interval_hours"`
		PendingDir      string `toml:"pending_dir"`
		RecordPath      string `toml:"record_path"`
		InstallPath     string `toml:"install_path"`
	} `toml:"updates"`
	Analytics struct {
		Enabled  bool   `toml:"enabled"`
		APIURL   string `toml:"api_url"`
		APIToken string `toml:"api_token"`
	} `toml:"analytics"`
}

// Load locates and parses config.toml, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.StreamURL = orDefault(raw.StreamURL, defaultStreamURL)
	cfg.LiveInfoURL = orDefault(raw.LiveInfoURL, defaultLiveInfoURL)
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	cfg.LogDir = mustExpand(orDefault(raw.LogDir, defaultLogDir))

	u := raw.Updates
	if u.Enabled != nil {
		cfg.Updates.Enabled = *u.Enabled
	}
	cfg.Updates.APIURL = orDefault(u.APIURL, defaultUpdatesAPI)
	cfg.Updates.Owner = strings.TrimSpace(u.Owner)
	cfg.Updates.Repo = strings.TrimSpace(u.Repo)
	cfg.Updates.ReleasePrefix = orDefault(u.ReleasePrefix, defaultReleasePrefix)
	cfg.Updates.AllowPrerelease = u.AllowPrerelease
	if u.IntervalHours > 0 {
		cfg.Updates.Interval = time.Duration(u.IntervalHours) * time.Hour
	}
	cfg.Updates.PendingDir = mustExpand(orDefault(u.PendingDir, defaultPendingDir))
	cfg.Updates.RecordPath = mustExpand(orDefault(u.RecordPath, defaultRecordPath))
	if install := strings.TrimSpace(u.InstallPath); install != "" {
		cfg.Updates.InstallPath = mustExpand(install)
	}

	cfg.Analytics.Enabled = raw.Analytics.Enabled
	cfg.Analytics.APIURL = strings.TrimSpace(raw.Analytics.APIURL)
	cfg.Analytics.APIToken = strings.TrimSpace(raw.Analytics.APIToken)

	return cfg, nil
}

// LogPath returns the agent's log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/gdsfm.log")
	}
	return filepath.Join(c.LogDir, "gdsfm.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
