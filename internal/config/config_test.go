package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StreamURL != defaultStreamURL {
		t.Fatalf("StreamURL = %q, want %q", cfg.StreamURL, defaultStreamURL)
	}
	if cfg.LiveInfoURL != defaultLiveInfoURL {
		t.Fatalf("LiveInfoURL = %q, want %q", cfg.LiveInfoURL, defaultLiveInfoURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if !cfg.Updates.Enabled || cfg.Updates.Active() {
		t.Fatalf("Updates enabled=%v active=%v, want enabled but inactive without a repo", cfg.Updates.Enabled, cfg.Updates.Active())
	}
	if cfg.Updates.Interval != 24*time.Hour {
		t.Fatalf("Updates.Interval = %v, want 24h", cfg.Updates.Interval)
	}
	if !strings.HasPrefix(cfg.Updates.PendingDir, home) {
		t.Fatalf("PendingDir = %q, want it under HOME %q", cfg.Updates.PendingDir, home)
	}
	if cfg.Analytics.Active() {
		t.Fatalf("analytics active by default")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
stream_url = "  https://radio.example/live  "
poll_seconds = 10
log_dir = "  ~/.gdsfm/logs  "

[updates]
owner = " gdsfm "
repo = "player"
allow_prerelease = true
interval_hours = 6
install_path = "~/Applications/GDS.FM"

[analytics]
enabled = true
api_url = "https://events.example/api/event"
api_token = " secret "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StreamURL != "https://radio.example/live" {
		t.Fatalf("StreamURL = %q", cfg.StreamURL)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %v, want 10s", cfg.PollInterval)
	}
	if !strings.HasPrefix(cfg.LogDir, home) {
		t.Fatalf("LogDir = %q, want it under HOME %q", cfg.LogDir, home)
	}
	if cfg.LogPath() != filepath.Join(cfg.LogDir, "gdsfm.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
	if !cfg.Updates.Active() || cfg.Updates.Owner != "gdsfm" {
		t.Fatalf("Updates = %+v, want active for gdsfm/player", cfg.Updates)
	}
	if !cfg.Updates.AllowPrerelease || cfg.Updates.Interval != 6*time.Hour {
		t.Fatalf("Updates = %+v", cfg.Updates)
	}
	if cfg.Updates.InstallPath != filepath.Join(home, "Applications", "GDS.FM") {
		t.Fatalf("InstallPath = %q", cfg.Updates.InstallPath)
	}
	if cfg.Updates.ReleasePrefix != defaultReleasePrefix {
		t.Fatalf("ReleasePrefix = %q", cfg.Updates.ReleasePrefix)
	}
	if !cfg.Analytics.Active() || cfg.Analytics.APIToken != "secret" {
		t.Fatalf("Analytics = %+v", cfg.Analytics)
	}
}

func TestLoad_UpdatesCanBeDisabled(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[updates]\nenabled = false\nowner = \"o\"\nrepo = \"r\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Updates.Active() {
		t.Fatalf("updates active with enabled = false")
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
stream_url = "   "
log_dir = ""
poll_seconds = -5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StreamURL != defaultStreamURL {
		t.Fatalf("StreamURL = %q, want %q", cfg.StreamURL, defaultStreamURL)
	}
	if cfg.PollInterval != defaultPollSeconds*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`stream_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenLogDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/gdsfm.log")) {
		t.Fatalf("LogPath = %q, want it to end with /gdsfm.log", got)
	}
}
