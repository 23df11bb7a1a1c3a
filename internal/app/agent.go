package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/analytics"
	"github.com/five82/gdsfm/internal/fault"
	"github.com/five82/gdsfm/internal/liveinfo"
	"github.com/five82/gdsfm/internal/loop"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/playback"
	"github.com/five82/gdsfm/internal/prefs"
	"github.com/five82/gdsfm/internal/search"
	"github.com/five82/gdsfm/internal/state"
	"github.com/five82/gdsfm/internal/stream"
	"github.com/five82/gdsfm/internal/ui"
	"github.com/five82/gdsfm/internal/update"
)

// deps are the collaborators an agent is built from. Updater may be nil when
// self-update is not configured.
type deps struct {
	Transport stream.Transport
	Fetcher   liveinfo.Fetcher
	Updater   *update.Manager
	Emitter   analytics.Emitter
	Opener    search.Opener
	Scheduler loop.Scheduler
	SavePrefs func(prefs.Prefs) error

	StreamURL      string
	PollInterval   time.Duration
	UpdateInterval time.Duration
}

// agent wires the three state machines to the snapshot store and implements
// ui.Intents. Everything except the Intents methods runs on the loop.
type agent struct {
	loop  *loop.Loop
	sched loop.Scheduler
	store *state.Store

	prefs     prefs.Prefs
	savePrefs func(prefs.Prefs) error

	session *stream.Session
	player  *playback.Controller
	poller  *liveinfo.Poller
	updater *update.Manager
	emitter analytics.Emitter
	opener  search.Opener

	updateInterval time.Duration

	quitMu   sync.Mutex
	onQuit   func()
	finished bool
	relaunch bool
	done     chan struct{}
}

var _ ui.Intents = (*agent)(nil)

func newAgent(l *loop.Loop, p prefs.Prefs, d deps) *agent {
	a := &agent{
		loop:           l,
		sched:          d.Scheduler,
		store:          &state.Store{},
		prefs:          p,
		savePrefs:      d.SavePrefs,
		updater:        d.Updater,
		emitter:        d.Emitter,
		opener:         d.Opener,
		updateInterval: d.UpdateInterval,
		done:           make(chan struct{}),
	}
	if a.emitter == nil {
		a.emitter = analytics.Nop{}
	}
	if a.opener == nil {
		a.opener = search.SystemOpener{}
	}

	a.session = stream.NewSession(l, d.Transport, d.StreamURL)
	a.player = playback.NewController(a.session)
	a.poller = liveinfo.NewPoller(l, d.Scheduler, d.Fetcher, d.PollInterval)

	a.store.SetPrefs(p)
	a.store.SetUpdatesEnabled(a.updater != nil)

	a.player.OnTransition(a.handleTransition)
	a.poller.OnUpdate(func(meta liveinfo.TrackMetadata) {
		a.store.UpdateMetadata(meta, nil)
	})
	a.poller.OnError(func(err error, _ int) {
		a.store.UpdateMetadata(liveinfo.TrackMetadata{}, err)
	})
	if a.updater != nil {
		a.updater.OnState(func(update.State) { a.publishUpdate() })
	}
	return a
}

// launch runs the did-finish-launching sequence: validate any deferred
// update, start metadata polling, start the stream.
func (a *agent) launch(ctx context.Context) {
	if a.updater != nil {
		a.updater.ValidateOnLaunch(func(*pending.DeferredUpdate, error) { a.publishUpdate() })
		a.updater.StartBackground(a.sched, a.updateInterval)
	}
	a.poller.Start(ctx)
	if err := a.player.Play(); err != nil {
		a.store.SetNotice("Could not start the stream: "+err.Error(), true)
	}
}

func (a *agent) handleTransition(t playback.Transition) {
	a.store.SetPlayback(t.To)
	switch {
	case t.From == playback.StateStopped:
		a.emitter.Track(analytics.PlaybackStarted, nil)
	case t.To == playback.StateStopped:
		a.emitter.Track(analytics.PlaybackStopped, nil)
	}
}

func (a *agent) publishUpdate() {
	if a.updater == nil {
		return
	}
	a.store.SetUpdate(state.UpdateStatus{
		State:            a.updater.State(),
		Deferred:         a.updater.Deferred(),
		Busy:             a.updater.Busy(),
		AwaitingDecision: a.updater.AwaitingDecision(),
		Installing:       a.updater.Installing(),
	})
}

// TogglePlayback implements ui.Intents.
func (a *agent) TogglePlayback() {
	a.loop.Post(func() {
		if err := a.player.Toggle(); err != nil {
			a.store.SetNotice("Could not start the stream: "+err.Error(), true)
		}
	})
}

// OpenSearch implements ui.Intents.
func (a *agent) OpenSearch() {
	a.loop.Post(func() {
		meta := a.poller.Current()
		if !meta.HasTrack() {
			return
		}
		link := search.URL(a.prefs.MusicService, meta.ArtistName, meta.TrackTitle)
		analytics.TrackLink(a.emitter, link)

		var err error
		a.loop.Go(func() { err = a.opener.Open(link) }, func() {
			if err != nil {
				log.Warn().Err(err).Str("url", link).Msg("open search link")
				a.store.SetNotice("Could not open "+a.prefs.MusicService.DisplayName(), true)
			}
		})
	})
}

// SetMusicService implements ui.Intents.
func (a *agent) SetMusicService(s search.Service) {
	a.changePrefs(func(p *prefs.Prefs) { p.MusicService = s })
}

// SetShowVinyl implements ui.Intents.
func (a *agent) SetShowVinyl(on bool) {
	a.changePrefs(func(p *prefs.Prefs) { p.ShowVinylIcon = on })
}

// SetClickToPlay implements ui.Intents.
func (a *agent) SetClickToPlay(on bool) {
	a.changePrefs(func(p *prefs.Prefs) { p.ClickToPlay = on })
}

func (a *agent) changePrefs(fn func(*prefs.Prefs)) {
	a.loop.Post(func() {
		fn(&a.prefs)
		a.store.SetPrefs(a.prefs)
		a.persistPrefs()
	})
}

func (a *agent) persistPrefs() {
	if a.savePrefs == nil {
		return
	}
	snapshot := a.prefs
	var err error
	a.loop.Go(func() { err = a.savePrefs(snapshot) }, func() {
		if err != nil {
			log.Warn().Err(err).Msg("save preferences")
		}
	})
}

// CheckForUpdates implements ui.Intents.
func (a *agent) CheckForUpdates() {
	a.loop.Post(func() {
		if a.updater == nil {
			return
		}
		a.updater.Check(update.TriggerManual, func(o update.Outcome, err error) {
			a.publishUpdate()
			switch {
			case errors.Is(err, fault.ErrBusy):
				a.store.SetNotice("An update is already in progress.", false)
			case err != nil:
				a.store.SetNotice("Update check failed: "+err.Error(), true)
			case o == update.OutcomeUpToDate:
				a.store.SetNotice("You're running the latest version of GDS.FM.", false)
			}
		})
		a.publishUpdate()
	})
}

// InstallUpdate implements ui.Intents.
func (a *agent) InstallUpdate() {
	a.loop.Post(func() {
		if a.updater == nil {
			return
		}
		a.updater.InstallDeferred(func(err error) {
			a.publishUpdate()
			a.afterInstall(err)
		})
		a.publishUpdate()
	})
}

// Decide implements ui.Intents.
func (a *agent) Decide(d update.Decision) {
	a.loop.Post(func() {
		if a.updater == nil {
			return
		}
		a.updater.Decide(d, func(err error) {
			a.publishUpdate()
			if d == update.Defer {
				if err != nil {
					a.store.SetNotice("Could not save the update: "+err.Error(), true)
					return
				}
				a.store.SetNotice("The update will be installed when you quit GDS.FM.", false)
				return
			}
			a.afterInstall(err)
		})
		a.publishUpdate()
	})
}

// afterInstall relaunches on success.
func (a *agent) afterInstall(err error) {
	switch {
	case errors.Is(err, fault.ErrNoUpdate):
		a.store.SetNotice("There is no update waiting to be installed.", false)
	case err != nil:
		a.store.SetNotice("Update failed: "+err.Error(), true)
	default:
		a.store.SetNotice("Update installed. Restarting GDS.FM...", false)
		a.quitMu.Lock()
		a.relaunch = true
		a.quitMu.Unlock()
		a.terminate()
	}
}

// Quit implements ui.Intents.
func (a *agent) Quit() {
	a.loop.Post(a.terminate)
}

// terminate asks the updater whether the process may exit now. A deferred
// update is installed first; the reply finishes the shutdown.
func (a *agent) terminate() {
	if finished, _ := a.result(); finished {
		return
	}
	if a.updater == nil {
		a.finish()
		return
	}
	reply := a.updater.ShouldTerminate(func() {
		a.publishUpdate()
		a.finish()
	})
	a.publishUpdate()
	if reply == update.TerminateLater {
		if a.updater.Installing() {
			a.store.SetNotice("Installing update before quitting...", false)
		}
		return
	}
	a.finish()
}

// finish stops every component and tells the UI to exit. It runs once.
func (a *agent) finish() {
	a.quitMu.Lock()
	if a.finished {
		a.quitMu.Unlock()
		return
	}
	a.finished = true
	onQuit := a.onQuit
	a.quitMu.Unlock()

	a.poller.Stop()
	if a.updater != nil {
		a.updater.Close()
	}
	a.player.Pause()
	log.Info().Msg("shutting down")

	if onQuit != nil {
		onQuit()
	}
	close(a.done)
}

func (a *agent) setOnQuit(fn func()) {
	a.quitMu.Lock()
	defer a.quitMu.Unlock()
	a.onQuit = fn
}

// result reports whether finish ran and whether a relaunch was requested.
func (a *agent) result() (finished, relaunch bool) {
	a.quitMu.Lock()
	defer a.quitMu.Unlock()
	return a.finished, a.relaunch
}
