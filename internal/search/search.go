// Package search builds "find this track" links for the supported music
// services and opens them in the user's browser.
package search

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Service identifies a music service. The value is what prefs.toml stores.
type Service string

const (
	AppleMusic Service = "apple_music"
	Spotify    Service = "spotify"
	Tidal      Service = "tidal"
)

// Services lists every service in menu order.
func Services() []Service {
	return []Service{AppleMusic, Spotify, Tidal}
}

// Parse returns the named service, falling back to AppleMusic.
func Parse(name string) Service {
	switch Service(strings.ToLower(strings.TrimSpace(name))) {
	case Spotify:
		return Spotify
	case Tidal:
		return Tidal
	default:
		return AppleMusic
	}
}

// DisplayName is the human-readable service name.
func (s Service) DisplayName() string {
	switch s {
	case Spotify:
		return "Spotify"
	case Tidal:
		return "Tidal"
	default:
		return "Apple Music"
	}
}

// URL returns the search link for artist and track on s. artist may be empty.
func URL(s Service, artist, track string) string {
	query := strings.TrimSpace(strings.TrimSpace(artist) + " " + strings.TrimSpace(track))
	switch s {
	case Spotify:
		return "https://open.spotify.com/search/" + url.PathEscape(query)
	case Tidal:
		return "https://tidal.com/search?q=" + queryEscape(query)
	default:
		return "https://music.apple.com/search?term=" + queryEscape(query)
	}
}

func queryEscape(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}

// Opener opens a URL outside the process.
type Opener interface {
	Open(link string) error
}

// Command constants
const (
	openCommand    = "open"
	xdgOpenCommand = "xdg-open"
	rundllCommand  = "rundll32"
	rundllArg      = "url.dll,FileProtocolHandler"
)

// SystemOpener hands links to the platform's default handler.
type SystemOpener struct{}

// Open starts the handler and does not wait for it.
func (SystemOpener) Open(link string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command(openCommand, link)
	case "windows":
		cmd = exec.Command(rundllCommand, rundllArg, link)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command(xdgOpenCommand, link)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", link, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
