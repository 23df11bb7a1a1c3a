package liveinfo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/loop"
)

// DefaultInterval is the refresh cadence of the now-playing display.
const DefaultInterval = 30 * time.Second

// Poller refreshes TrackMetadata on a repeating schedule. All methods and
// callbacks run on the owner context.
type Poller struct {
	owner    loop.Owner
	sched    loop.Scheduler
	fetcher  Fetcher
	interval time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	handle   loop.Handle
	running  bool
	inflight bool

	current  TrackMetadata
	failures int
	lastErr  error

	onUpdate func(TrackMetadata)
	onError  func(err error, failures int)
}

// NewPoller returns a stopped poller. A non-positive interval uses
// DefaultInterval.
func NewPoller(owner loop.Owner, sched loop.Scheduler, fetcher Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{owner: owner, sched: sched, fetcher: fetcher, interval: interval}
}

// OnUpdate is called after every successful fetch.
func (p *Poller) OnUpdate(fn func(TrackMetadata)) { p.onUpdate = fn }

// OnError is called after every failed fetch with the consecutive failure count.
func (p *Poller) OnError(fn func(err error, failures int)) { p.onError = fn }

// Current returns the last successfully fetched metadata.
func (p *Poller) Current() TrackMetadata { return p.current }

// Failures returns the number of consecutive failed fetches.
func (p *Poller) Failures() int { return p.failures }

// LastError returns the most recent fetch error, nil after a success.
func (p *Poller) LastError() error { return p.lastErr }

// Interval returns the refresh cadence.
func (p *Poller) Interval() time.Duration { return p.interval }

// Start fetches immediately and then on every interval. Starting a running
// poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if p.running {
		return
	}
	p.running = true
	p.inflight = false
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.poll()
	p.handle = p.sched.ScheduleRepeating(p.interval, p.poll)
}

// Stop cancels the schedule and any fetch in flight. Results of a cancelled
// fetch are discarded.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.sched.Cancel(p.handle)
	p.cancel()
}

// Refresh triggers an out-of-band fetch.
func (p *Poller) Refresh() {
	if p.running {
		p.poll()
	}
}

func (p *Poller) poll() {
	if p.inflight {
		log.Debug().Msg("live info fetch still in flight; skipping tick")
		return
	}
	p.inflight = true
	ctx := p.ctx
	loop.Call(p.owner, func() (TrackMetadata, error) {
		return p.fetcher.FetchLiveInfo(ctx)
	}, func(meta TrackMetadata, err error) {
		if ctx != p.ctx {
			return
		}
		p.inflight = false
		if !p.running {
			return
		}
		p.apply(meta, err)
	})
}

func (p *Poller) apply(meta TrackMetadata, err error) {
	if err != nil {
		p.failures++
		p.lastErr = err
		log.Warn().Err(err).Int("failures", p.failures).Msg("live info poll failed")
		if p.onError != nil {
			p.onError(err, p.failures)
		}
		return
	}
	if p.failures > 0 {
		log.Info().Int("failures", p.failures).Msg("live info poll recovered")
	}
	p.failures = 0
	p.lastErr = nil
	p.current = meta
	log.Debug().
		Str("show", meta.ShowName).
		Str("artist", meta.ArtistName).
		Str("track", meta.TrackTitle).
		Msg("live info updated")
	if p.onUpdate != nil {
		p.onUpdate(meta)
	}
}
