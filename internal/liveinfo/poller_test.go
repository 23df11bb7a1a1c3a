package liveinfo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/loop"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	results []fetchResult
	gate    chan struct{}
}

type fetchResult struct {
	meta TrackMetadata
	err  error
}

func (f *scriptedFetcher) FetchLiveInfo(ctx context.Context) (TrackMetadata, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return TrackMetadata{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.meta, r.err
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPoller_FetchesOnStartAndEveryInterval(t *testing.T) {
	l := loop.New()
	sched := loop.NewManual()
	morning := TrackMetadata{ShowName: "Morning Show"}
	fetcher := &scriptedFetcher{results: []fetchResult{{meta: morning}}}

	p := NewPoller(l, sched, fetcher, 0)
	var updates []TrackMetadata
	p.OnUpdate(func(m TrackMetadata) { updates = append(updates, m) })

	p.Start(context.Background())
	l.Settle()
	require.Len(t, updates, 1)
	assert.Equal(t, morning, p.Current())

	sched.Advance(DefaultInterval)
	l.Settle()
	sched.Advance(DefaultInterval)
	l.Settle()
	assert.Equal(t, 3, fetcher.count())
	assert.Len(t, updates, 3)
}

func TestPoller_FailureKeepsPreviousMetadata(t *testing.T) {
	l := loop.New()
	sched := loop.NewManual()
	good := TrackMetadata{ShowName: "Night Drive", ArtistName: "Boards of Canada", TrackTitle: "Dayvan Cowboy"}
	boom := errors.New("connection reset")
	fetcher := &scriptedFetcher{results: []fetchResult{
		{meta: good},
		{err: boom},
		{err: boom},
		{meta: TrackMetadata{ShowName: "Night Drive"}},
	}}

	p := NewPoller(l, sched, fetcher, time.Minute)
	var failures []int
	p.OnError(func(_ error, n int) { failures = append(failures, n) })

	p.Start(context.Background())
	l.Settle()
	for range 2 {
		sched.Advance(time.Minute)
		l.Settle()
	}
	assert.Equal(t, good, p.Current())
	assert.Equal(t, 2, p.Failures())
	assert.ErrorIs(t, p.LastError(), boom)
	assert.Equal(t, []int{1, 2}, failures)

	sched.Advance(time.Minute)
	l.Settle()
	assert.Zero(t, p.Failures())
	assert.NoError(t, p.LastError())
	assert.Equal(t, "Night Drive", p.Current().ShowName)
	assert.Empty(t, p.Current().ArtistName)
}

func TestPoller_SkipsTickWhileFetchInFlight(t *testing.T) {
	l := loop.New()
	sched := loop.NewManual()
	fetcher := &scriptedFetcher{
		results: []fetchResult{{meta: TrackMetadata{ShowName: "Slow"}}},
		gate:    make(chan struct{}),
	}

	p := NewPoller(l, sched, fetcher, time.Second)
	p.Start(context.Background())
	sched.Advance(3 * time.Second)

	close(fetcher.gate)
	l.Settle()
	assert.Equal(t, 1, fetcher.count())
	assert.Equal(t, "Slow", p.Current().ShowName)

	sched.Advance(time.Second)
	l.Settle()
	assert.Equal(t, 2, fetcher.count())
}

func TestPoller_StopDiscardsResults(t *testing.T) {
	l := loop.New()
	sched := loop.NewManual()
	fetcher := &scriptedFetcher{results: []fetchResult{{meta: TrackMetadata{ShowName: "Late"}}}}

	p := NewPoller(l, sched, fetcher, time.Second)
	updates := 0
	p.OnUpdate(func(TrackMetadata) { updates++ })

	p.Start(context.Background())
	p.Stop()
	l.Settle()
	assert.Zero(t, updates)
	assert.Zero(t, sched.Pending())

	sched.Advance(5 * time.Second)
	l.Settle()
	assert.Zero(t, updates)
}
