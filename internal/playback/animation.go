package playback

import "time"

// Icon names the status glyph.
type Icon int

const (
	IconPlay Icon = iota
	IconPause
	IconVinyl
	IconDashedCircle
)

// Animation describes how the status icon is drawn for a state. A zero
// Interval means the icon is static.
type Animation struct {
	Icon     Icon
	Interval time.Duration
	// Step is the rotation per tick in degrees. Negative turns clockwise.
	Step float64
}

// Rotating reports whether the icon animates.
func (a Animation) Rotating() bool {
	return a.Interval > 0 && a.Step != 0
}

// AnimationFor returns the icon treatment for state. showVinyl is the user's
// vinyl icon preference.
func AnimationFor(state State, showVinyl bool) Animation {
	switch state {
	case StateLoading:
		return Animation{Icon: IconDashedCircle, Interval: 100 * time.Millisecond, Step: -30}
	case StatePlaying:
		if showVinyl {
			return Animation{Icon: IconVinyl, Interval: 50 * time.Millisecond, Step: -3}
		}
		return Animation{Icon: IconPause}
	default:
		if showVinyl {
			return Animation{Icon: IconVinyl}
		}
		return Animation{Icon: IconPlay}
	}
}

// Tooltip returns the hover text for the status icon. It is empty when
// stopped.
func Tooltip(state State, artist, track string) string {
	if state == StateStopped {
		return ""
	}
	if artist != "" && track != "" {
		return artist + " — " + track
	}
	return "GDS.FM"
}

// ToggleLabel is the menu label of the play/pause action.
func ToggleLabel(state State) string {
	switch state {
	case StateLoading:
		return "Stop"
	case StatePlaying:
		return "Pause"
	default:
		return "Play"
	}
}
