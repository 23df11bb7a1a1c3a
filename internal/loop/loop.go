package loop

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Owner is the single serialized context that owns core state. Work posted to
// it runs one function at a time, in the order it was posted.
type Owner interface {
	// Post enqueues fn on the owner context. It never blocks.
	Post(fn func())
	// Go runs work on a worker goroutine and posts then back to the owner
	// once work returns.
	Go(work func(), then func())
}

// Loop is the Owner used by the application. Run drives it from one goroutine;
// tests call Settle instead.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	inflight int
	wake     chan struct{}
}

var _ Owner = (*Loop)(nil)

// New returns an idle loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. Nil functions are ignored.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on its own goroutine. A panic inside work is logged and then is
// still posted, so owners never lose their completion.
func (l *Loop) Go(work func(), then func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Msgf("worker panic: %v", r)
				}
			}()
			work()
		}()

		l.mu.Lock()
		if then != nil {
			l.queue = append(l.queue, then)
		}
		l.inflight--
		l.mu.Unlock()
		l.signal()
	}()
}

// Run processes posted work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.runPending()
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Settle runs posted work and waits for in-flight workers until the loop is
// idle. It must not be called while Run is active.
func (l *Loop) Settle() {
	for {
		l.runPending()
		l.mu.Lock()
		idle := len(l.queue) == 0 && l.inflight == 0
		l.mu.Unlock()
		if idle {
			return
		}
		<-l.wake
	}
}

func (l *Loop) runPending() {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("owner task panic: %v", r)
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs work on a worker and delivers its result to done on the owner.
// A panic in work is reported to done as an error.
func Call[T any](o Owner, work func() (T, error), done func(T, error)) {
	var (
		value T
		err   error
	)
	o.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("worker panic: %v", r)
			}
		}()
		value, err = work()
	}, func() {
		done(value, err)
	})
}
