// Package stream owns the audio player handle for the live stream.
package stream

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/fault"
	"github.com/five82/gdsfm/internal/loop"
)

// Status mirrors the transport's buffering and playback progress.
type Status int

const (
	StatusWaitingToPlay Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusWaitingToPlay:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Player is an open handle on a stream.
type Player interface {
	Play()
	Pause()
	Close() error
}

// Transport opens players. notify may be called from any goroutine.
type Transport interface {
	Open(url string, notify func(Status)) (Player, error)
}

// Session binds one stream URL to at most one open player. All methods must
// be called on the owner context; status callbacks are delivered there too.
type Session struct {
	owner     loop.Owner
	transport Transport
	url       string

	player   Player
	gen      uint64
	onStatus func(Status)
}

// NewSession returns a closed session for url.
func NewSession(owner loop.Owner, transport Transport, url string) *Session {
	return &Session{owner: owner, transport: transport, url: url}
}

// OnStatus sets the status callback.
func (s *Session) OnStatus(fn func(Status)) {
	s.onStatus = fn
}

// IsOpen reports whether a player handle is held.
func (s *Session) IsOpen() bool {
	return s.player != nil
}

// URL returns the stream URL.
func (s *Session) URL() string {
	return s.url
}

// Play opens the handle if needed and starts or resumes playback.
func (s *Session) Play() error {
	if s.player == nil {
		s.gen++
		gen := s.gen
		player, err := s.transport.Open(s.url, func(status Status) {
			s.owner.Post(func() { s.deliver(gen, status) })
		})
		if err != nil {
			return fmt.Errorf("%w: open stream: %w", fault.ErrTransport, err)
		}
		s.player = player
		log.Debug().Str("url", s.url).Msg("stream opened")
	}
	s.player.Play()
	return nil
}

// Stop pauses and releases the handle. No status callback for the released
// handle runs after Stop returns.
func (s *Session) Stop() {
	if s.player == nil {
		return
	}
	player := s.player
	s.player = nil
	s.gen++

	player.Pause()
	if err := player.Close(); err != nil {
		log.Warn().Err(err).Msg("close stream")
	}
	log.Debug().Str("url", s.url).Msg("stream released")
}

func (s *Session) deliver(gen uint64, status Status) {
	if gen != s.gen || s.player == nil {
		return
	}
	if s.onStatus != nil {
		s.onStatus(status)
	}
}
