package ui

import (
	"reflect"
	"testing"
	"time"

	"github.com/five82/gdsfm/internal/playback"
)

func TestIconSpinner(t *testing.T) {
	tests := []struct {
		name     string
		state    playback.State
		vinyl    bool
		frames   []string
		interval time.Duration
	}{
		{"loading", playback.StateLoading, true, dashedFrames, 300 * time.Millisecond},
		{"playing vinyl", playback.StatePlaying, true, vinylFrames, 1500 * time.Millisecond},
		{"playing plain", playback.StatePlaying, false, []string{"⏸"}, time.Second},
		{"stopped vinyl", playback.StateStopped, true, []string{"◐"}, time.Second},
		{"stopped plain", playback.StateStopped, false, []string{"▶"}, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := iconSpinner(playback.AnimationFor(tt.state, tt.vinyl))
			if !reflect.DeepEqual(sp.Frames, tt.frames) {
				t.Fatalf("Frames = %v, want %v", sp.Frames, tt.frames)
			}
			if sp.FPS != tt.interval {
				t.Fatalf("FPS = %v, want %v", sp.FPS, tt.interval)
			}
		})
	}
}

func TestIconSpinner_PositiveStepTurnsCounterClockwise(t *testing.T) {
	sp := iconSpinner(playback.Animation{Icon: playback.IconVinyl, Interval: 10 * time.Millisecond, Step: 45})
	want := []string{"◒", "◑", "◓", "◐"}
	if !reflect.DeepEqual(sp.Frames, want) {
		t.Fatalf("Frames = %v, want %v", sp.Frames, want)
	}
	if sp.FPS != 20*time.Millisecond {
		t.Fatalf("FPS = %v, want 20ms", sp.FPS)
	}
}
