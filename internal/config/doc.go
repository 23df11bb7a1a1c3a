// Package config loads the agent's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/gdsfm/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Fields
//
//	stream_url     = "https://gdsfm.out.airtime.pro/gdsfm_a"
//	live_info_url  = "https://gdsfm.airtime.pro/api/live-info-v2?timezone=utc"
//	poll_seconds   = 30
//	log_dir        = "~/.local/share/gdsfm/logs"
//
//	[updates]
//	enabled          = true
//	api_url          = "https://api.github.com"
//	owner            = ""
//	repo             = ""
//	release_prefix   = "GDS.FM"
//	allow_prerelease = false
//	interval_hours   = 24
//	pending_dir      = "~/.local/share/gdsfm/pending-updates"
//	record_path      = "~/.config/gdsfm/deferred-update.toml"
//	install_path     = ""   # empty: replace only the running executable
//
//	[analytics]
//	enabled   = false
//	api_url   = ""
//	api_token = ""
//
// Update checks only run when owner and repo are set. The pending directory
// must live outside install_path so a deferred bundle survives the swap.
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute. Expansion failures keep the path as written.
//
// # Error Handling
//
// A missing file is not an error. Open, read and parse failures are returned
// wrapped ("open config", "read config", "parse config").
package config
