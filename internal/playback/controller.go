// Package playback implements the play/pause state machine over a stream
// session.
package playback

import (
	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/stream"
)

// State is the user-visible playback state.
type State int

const (
	StateStopped State = iota
	StateLoading
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Transition is one state change.
type Transition struct {
	From State
	To   State
}

// Session is the subset of *stream.Session the controller drives.
type Session interface {
	Play() error
	Stop()
	IsOpen() bool
	OnStatus(fn func(stream.Status))
}

var _ Session = (*stream.Session)(nil)

// Controller owns a Session. It must only be used on the owner context the
// session delivers status on.
type Controller struct {
	session   Session
	state     State
	observers []func(Transition)
}

// NewController wires the controller to session's status signal.
func NewController(session Session) *Controller {
	c := &Controller{session: session}
	session.OnStatus(c.handleStatus)
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// OnTransition registers an observer. Observers run synchronously, in
// registration order, for every transition, and must not call back into the
// controller.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.observers = append(c.observers, fn)
}

// Play starts the stream from Stopped. It is a no-op in Loading and Playing.
// When the session cannot open the state stays Stopped and the
// fault.ErrTransport error is returned.
func (c *Controller) Play() error {
	if c.state != StateStopped {
		return nil
	}
	if err := c.session.Play(); err != nil {
		c.session.Stop()
		log.Warn().Err(err).Msg("start playback")
		return err
	}
	c.move(StateLoading)
	return nil
}

// Pause stops and releases the stream. It is a no-op when Stopped.
func (c *Controller) Pause() {
	if c.state == StateStopped {
		return
	}
	c.session.Stop()
	c.move(StateStopped)
}

// Toggle plays when Stopped and pauses otherwise.
func (c *Controller) Toggle() error {
	if c.state == StateStopped {
		return c.Play()
	}
	c.Pause()
	return nil
}

func (c *Controller) handleStatus(status stream.Status) {
	switch {
	case c.state == StateLoading && status == stream.StatusPlaying:
		c.move(StatePlaying)
	case c.state == StatePlaying && status == stream.StatusWaitingToPlay:
		c.move(StateLoading)
	default:
		log.Debug().Str("state", c.state.String()).Str("status", status.String()).Msg("status ignored")
	}
}

func (c *Controller) move(to State) {
	if to == c.state {
		return
	}
	t := Transition{From: c.state, To: to}
	c.state = to
	log.Info().Str("from", t.From.String()).Str("to", t.To.String()).Msg("playback state")
	for _, fn := range c.observers {
		fn(t)
	}
}
