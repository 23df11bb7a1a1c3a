package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/gdsfm/internal/stream"
)

func TestBufferedStreamer_ReportsPlayingAndUnderrun(t *testing.T) {
	samples := make(chan [2]float64, 4)
	var got []stream.Status
	b := &bufferedStreamer{samples: samples, notify: func(s stream.Status) { got = append(got, s) }}
	out := make([][2]float64, 4)

	samples <- [2]float64{0.5, 0.5}
	n, ok := b.Stream(out)
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, [2]float64{0.5, 0.5}, out[0])
	assert.Equal(t, [2]float64{}, out[1])

	b.Stream(out)
	assert.Equal(t, []stream.Status{stream.StatusPlaying, stream.StatusWaitingToPlay}, got)

	close(samples)
	b.Stream(out)
	assert.True(t, b.done)
	assert.Len(t, got, 2)
}
