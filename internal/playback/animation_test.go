package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnimationFor(t *testing.T) {
	tests := []struct {
		state     State
		showVinyl bool
		want      Animation
	}{
		{StateStopped, true, Animation{Icon: IconVinyl}},
		{StateStopped, false, Animation{Icon: IconPlay}},
		{StateLoading, true, Animation{Icon: IconDashedCircle, Interval: 100 * time.Millisecond, Step: -30}},
		{StateLoading, false, Animation{Icon: IconDashedCircle, Interval: 100 * time.Millisecond, Step: -30}},
		{StatePlaying, true, Animation{Icon: IconVinyl, Interval: 50 * time.Millisecond, Step: -3}},
		{StatePlaying, false, Animation{Icon: IconPause}},
	}
	for _, tt := range tests {
		got := AnimationFor(tt.state, tt.showVinyl)
		assert.Equal(t, tt.want, got, "%s vinyl=%v", tt.state, tt.showVinyl)
		assert.Equal(t, tt.want.Interval > 0, got.Rotating())
	}
}

func TestTooltip(t *testing.T) {
	assert.Empty(t, Tooltip(StateStopped, "Air", "Playground Love"))
	assert.Equal(t, "Air — Playground Love", Tooltip(StatePlaying, "Air", "Playground Love"))
	assert.Equal(t, "GDS.FM", Tooltip(StateLoading, "", "Playground Love"))
	assert.Equal(t, "GDS.FM", Tooltip(StatePlaying, "", ""))
}

func TestToggleLabel(t *testing.T) {
	assert.Equal(t, "Play", ToggleLabel(StateStopped))
	assert.Equal(t, "Stop", ToggleLabel(StateLoading))
	assert.Equal(t, "Pause", ToggleLabel(StatePlaying))
}
