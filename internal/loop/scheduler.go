package loop

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled repeating task.
type Handle uint64

// Scheduler runs functions on a fixed period.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// Ticker schedules with real time and posts each tick onto its owner.
type Ticker struct {
	owner Owner

	mu    sync.Mutex
	next  Handle
	stops map[Handle]chan struct{}
}

var _ Scheduler = (*Ticker)(nil)

// NewTicker returns a scheduler whose ticks run on owner.
func NewTicker(owner Owner) *Ticker {
	return &Ticker{owner: owner, stops: make(map[Handle]chan struct{})}
}

// ScheduleRepeating starts a ticker. The first run happens one interval from now.
func (t *Ticker) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	t.mu.Lock()
	t.next++
	h := t.next
	stop := make(chan struct{})
	t.stops[h] = stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.owner.Post(func() {
					if t.active(h) {
						fn()
					}
				})
			}
		}
	}()
	return h
}

// Cancel stops h. Ticks already queued for h are dropped.
func (t *Ticker) Cancel(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stop, ok := t.stops[h]; ok {
		close(stop)
		delete(t.stops, h)
	}
}

// Stop cancels every scheduled task.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, stop := range t.stops {
		close(stop)
		delete(t.stops, h)
	}
}

func (t *Ticker) active(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stops[h]
	return ok
}

// Manual is a virtual-time scheduler. Advance fires due tasks synchronously on
// the calling goroutine, which acts as the owner.
type Manual struct {
	now    time.Duration
	next   Handle
	timers map[Handle]*manualTimer
}

type manualTimer struct {
	interval time.Duration
	due      time.Duration
	fn       func()
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns a scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{timers: make(map[Handle]*manualTimer)}
}

// ScheduleRepeating registers fn to fire every interval of virtual time.
func (m *Manual) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	m.next++
	m.timers[m.next] = &manualTimer{interval: interval, due: m.now + interval, fn: fn}
	return m.next
}

// Cancel removes h.
func (m *Manual) Cancel(h Handle) {
	delete(m.timers, h)
}

// Pending reports how many tasks are scheduled.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// Advance moves virtual time forward by d, firing every task that comes due in
// due-time order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		timer := m.earliest()
		if timer == nil || timer.due > target {
			break
		}
		m.now = timer.due
		timer.due += timer.interval
		timer.fn()
	}
	m.now = target
}

func (m *Manual) earliest() *manualTimer {
	handles := make([]Handle, 0, len(m.timers))
	for h := range m.timers {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		a, b := m.timers[handles[i]], m.timers[handles[j]]
		if a.due != b.due {
			return a.due < b.due
		}
		return handles[i] < handles[j]
	})
	if len(handles) == 0 {
		return nil
	}
	return m.timers[handles[0]]
}
