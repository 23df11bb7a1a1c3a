package ui

import (
	"math"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/five82/gdsfm/internal/playback"
)

// Glyph frames in clockwise order, one per quarter turn.
var (
	vinylFrames  = []string{"◐", "◓", "◑", "◒"}
	dashedFrames = []string{"◜", "◝", "◞", "◟"}
)

func staticGlyph(icon playback.Icon) string {
	switch icon {
	case playback.IconPause:
		return "⏸"
	case playback.IconVinyl:
		return vinylFrames[0]
	case playback.IconDashedCircle:
		return dashedFrames[0]
	default:
		return "▶"
	}
}

// iconSpinner converts an animation into spinner frames. A terminal glyph can
// only show quarter turns, so each frame lasts as many ticks as a quarter turn
// takes at the animation's step.
func iconSpinner(a playback.Animation) spinner.Spinner {
	if !a.Rotating() {
		return spinner.Spinner{Frames: []string{staticGlyph(a.Icon)}, FPS: time.Second}
	}

	var frames []string
	if a.Icon == playback.IconDashedCircle {
		frames = dashedFrames
	} else {
		frames = vinylFrames
	}
	if a.Step > 0 {
		frames = reversed(frames)
	}

	ticks := math.Max(1, math.Round(90/math.Abs(a.Step)))
	return spinner.Spinner{
		Frames: frames,
		FPS:    time.Duration(ticks) * a.Interval,
	}
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
