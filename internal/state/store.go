package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/gdsfm/internal/liveinfo"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/playback"
	"github.com/five82/gdsfm/internal/prefs"
	"github.com/five82/gdsfm/internal/update"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Playback playback.State
	Prefs    prefs.Prefs

	Metadata            liveinfo.TrackMetadata
	HasMetadata         bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures

	UpdatesEnabled   bool
	Update           update.State
	Deferred         *pending.DeferredUpdate
	UpdateBusy       bool
	AwaitingDecision bool
	Installing       bool

	Notice      string
	NoticeError bool
	NoticeAt    time.Time
}

// IsOffline returns true when the live-info feed has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// UpdateStatus summarizes the updater for the menu and status pane.
type UpdateStatus struct {
	State            update.State
	Deferred         *pending.DeferredUpdate
	Busy             bool
	AwaitingDecision bool
	Installing       bool
}

// Store coordinates concurrent updates to the snapshot. The owner loop writes
// it; the UI goroutine reads it.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetPlayback records the playback state.
func (s *Store) SetPlayback(st playback.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Playback = st
}

// SetPrefs records the current preferences.
func (s *Store) SetPrefs(p prefs.Prefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Prefs = p
}

// SetUpdatesEnabled records whether update actions are offered.
func (s *Store) SetUpdatesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.UpdatesEnabled = enabled
}

// UpdateMetadata replaces the metadata. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) UpdateMetadata(meta liveinfo.TrackMetadata, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Metadata = meta
	s.snapshot.HasMetadata = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetUpdate records the updater status.
func (s *Store) SetUpdate(u UpdateStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Update = u.State
	s.snapshot.Deferred = cloneDeferred(u.Deferred)
	s.snapshot.UpdateBusy = u.Busy
	s.snapshot.AwaitingDecision = u.AwaitingDecision
	s.snapshot.Installing = u.Installing
}

// SetNotice shows a one-line message in the status surface.
func (s *Store) SetNotice(msg string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notice = msg
	s.snapshot.NoticeError = isError
	s.snapshot.NoticeAt = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Deferred = cloneDeferred(s.snapshot.Deferred)
	snap.Update.Release.Assets = cloneAssets(s.snapshot.Update.Release.Assets)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneDeferred(rec *pending.DeferredUpdate) *pending.DeferredUpdate {
	if rec == nil {
		return nil
	}
	dup := *rec
	return &dup
}

func cloneAssets[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
