package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_PostRunsInOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() {
		l.Post(func() { got = append(got, 99) })
	})
	l.Settle()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 99}, got)
}

func TestLoop_GoPostsCompletionAfterWork(t *testing.T) {
	l := New()
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	l.Go(func() { record("work") }, func() { record("then") })
	l.Settle()

	assert.Equal(t, []string{"work", "then"}, order)
}

func TestLoop_GoSurvivesPanic(t *testing.T) {
	l := New()
	ran := false
	l.Go(func() { panic("boom") }, func() { ran = true })
	l.Settle()
	assert.True(t, ran)
}

func TestCall_DeliversResultAndPanicAsError(t *testing.T) {
	l := New()

	var value int
	var err error
	Call(l, func() (int, error) { return 42, nil }, func(v int, e error) { value, err = v, e })
	l.Settle()
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	Call(l, func() (int, error) { panic("bad") }, func(v int, e error) { value, err = v, e })
	l.Settle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker panic")

	sentinel := errors.New("x")
	Call(l, func() (string, error) { return "", sentinel }, func(_ string, e error) { err = e })
	l.Settle()
	assert.ErrorIs(t, err, sentinel)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManual_AdvanceFiresDueTasks(t *testing.T) {
	m := NewManual()
	var fast, slow int
	m.ScheduleRepeating(10*time.Second, func() { fast++ })
	h := m.ScheduleRepeating(30*time.Second, func() { slow++ })

	m.Advance(29 * time.Second)
	assert.Equal(t, 2, fast)
	assert.Equal(t, 0, slow)

	m.Advance(time.Second)
	assert.Equal(t, 3, fast)
	assert.Equal(t, 1, slow)

	m.Cancel(h)
	m.Advance(60 * time.Second)
	assert.Equal(t, 9, fast)
	assert.Equal(t, 1, slow)
	assert.Equal(t, 1, m.Pending())
}

func TestTicker_PostsTicksToOwner(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.Run(ctx)

	ticker := NewTicker(l)
	t.Cleanup(ticker.Stop)

	fired := make(chan struct{}, 8)
	h := ticker.ScheduleRepeating(5*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired")
	}
	ticker.Cancel(h)
	assert.False(t, ticker.active(h))
}
