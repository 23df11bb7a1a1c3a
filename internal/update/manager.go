package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/fault"
	"github.com/five82/gdsfm/internal/loop"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/release"
)

// DefaultCheckInterval spaces automatic checks.
const DefaultCheckInterval = 24 * time.Hour

// Store is the persisted pending-update store. *pending.Store implements it.
type Store interface {
	Persist(bundlePath string) (string, error)
	StoreRecord(rec pending.DeferredUpdate) error
	LoadRecord() (*pending.DeferredUpdate, error)
	Clear() error
	Validate(rec pending.DeferredUpdate) bool
	ValidateOnLaunch() (*pending.DeferredUpdate, error)
}

var _ Store = (*pending.Store)(nil)

// Options configures a Manager.
type Options struct {
	Source    release.Source
	Store     Store
	Installer Installer
	Criteria  release.Criteria
	// WorkDir holds in-progress downloads. Empty uses the system temp dir.
	WorkDir string
}

// candidate is a downloaded, unpacked bundle not yet persisted or installed.
type candidate struct {
	release release.Release
	asset   release.Asset
	bundle  string
	workDir string
}

// probe is the result of querying the feed.
type probe struct {
	release release.Release
	asset   release.Asset
}

// Manager runs the update lifecycle. Every method and callback runs on the
// owner context; network and file work runs on loop workers.
type Manager struct {
	owner     loop.Owner
	source    release.Source
	store     Store
	installer Installer
	criteria  release.Criteria
	workDir   string

	ctx    context.Context
	cancel context.CancelFunc

	state      State
	cycle      uint64
	checking   bool
	installing bool
	awaiting   *candidate
	deferred   *pending.DeferredUpdate
	replies    []func()
	observers  []func(State)

	// validated is set once the persisted record has been read, by launch
	// validation or by this manager writing the record itself.
	validated  bool
	validating bool
	// quitQueued holds a termination request until the check or launch
	// validation in flight completes.
	quitQueued bool

	sched     loop.Scheduler
	bgHandle  loop.Handle
	bgRunning bool
}

// NewManager returns an idle manager.
func NewManager(owner loop.Owner, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		owner:     owner,
		source:    opts.Source,
		store:     opts.Store,
		installer: opts.Installer,
		criteria:  opts.Criteria,
		workDir:   opts.WorkDir,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnState registers an observer for every state change.
func (m *Manager) OnState(fn func(State)) {
	m.observers = append(m.observers, fn)
}

// State returns the current updater state.
func (m *Manager) State() State { return m.state }

// Deferred returns a copy of the pending record, or nil.
func (m *Manager) Deferred() *pending.DeferredUpdate {
	if m.deferred == nil {
		return nil
	}
	rec := *m.deferred
	return &rec
}

// Installing reports whether a bundle swap is running.
func (m *Manager) Installing() bool { return m.installing }

// AwaitingDecision reports whether a manual check is waiting on Decide.
func (m *Manager) AwaitingDecision() bool { return m.awaiting != nil }

// Busy reports whether a check, launch validation, decision, install or
// queued termination is outstanding.
func (m *Manager) Busy() bool {
	return m.checking || m.validating || m.installing || m.awaiting != nil || m.quitQueued
}

// ValidateOnLaunch drops a record whose bundle disappeared and loads the
// surviving one. done may be nil.
func (m *Manager) ValidateOnLaunch(done func(*pending.DeferredUpdate, error)) {
	m.validating = true
	loop.Call(m.owner, m.store.ValidateOnLaunch, func(rec *pending.DeferredUpdate, err error) {
		m.validating = false
		if err != nil {
			log.Warn().Err(err).Msg("validate deferred update")
		}
		if !m.validated {
			m.deferred = rec
			m.validated = true
		}
		if m.deferred != nil {
			log.Info().Str("version", m.deferred.ReleaseVersion).Str("path", m.deferred.BundlePath).Msg("deferred update pending")
		}
		if done != nil {
			done(m.Deferred(), err)
		}
		m.resumeTermination()
	})
}

// Check queries the feed and downloads the newest eligible release. An
// automatic check persists the download for install on quit; a manual check
// ends in OutcomeAwaitingDecision. A check while another check, decision or
// install is outstanding fails with fault.ErrBusy, and done runs before Check
// returns in that case.
func (m *Manager) Check(trigger Trigger, done func(Outcome, error)) {
	if done == nil {
		done = func(Outcome, error) {}
	}
	if m.Busy() {
		done(OutcomeUpToDate, fault.ErrBusy)
		return
	}
	caller := done
	done = func(o Outcome, err error) {
		caller(o, err)
		m.resumeTermination()
	}
	m.checking = true
	m.cycle++
	cycle := m.cycle
	m.setState(Idle())
	log.Info().Str("trigger", trigger.String()).Msg("checking for updates")

	clearFirst := trigger == TriggerManual && m.deferred != nil
	if clearFirst {
		log.Info().Str("version", m.deferred.ReleaseVersion).Msg("clearing deferred update for manual check")
		m.deferred = nil
		m.validated = true
	}
	var current *pending.DeferredUpdate
	if trigger == TriggerAutomatic {
		current = m.Deferred()
	}

	ctx := m.ctx
	loop.Call(m.owner, func() (probe, error) {
		if clearFirst {
			if err := m.store.Clear(); err != nil {
				log.Warn().Err(err).Msg("clear deferred update")
			}
		}
		releases, err := m.source.Releases(ctx)
		if err != nil {
			return probe{}, err
		}
		r, a, err := release.Select(releases, m.criteria)
		return probe{release: r, asset: a}, err
	}, func(p probe, err error) {
		if err != nil {
			m.finishCheck()
			if errors.Is(err, fault.ErrNoUpdate) {
				log.Info().Msg("no update available")
				done(OutcomeUpToDate, nil)
				return
			}
			log.Warn().Err(err).Msg("update check failed")
			done(OutcomeUpToDate, err)
			return
		}
		if current != nil && !release.Newer(p.release.TagName, current.ReleaseVersion) {
			log.Info().Str("version", current.ReleaseVersion).Msg("deferred update is already the newest")
			m.finishCheck()
			done(OutcomeUpToDate, nil)
			return
		}
		log.Info().Str("version", p.release.TagName).Str("asset", p.asset.Name).Msg("new version detected")
		m.setState(Detected(p.release, p.asset))
		m.download(trigger, cycle, p, done)
	})
}

func (m *Manager) download(trigger Trigger, cycle uint64, p probe, done func(Outcome, error)) {
	m.setState(Downloading(p.release, p.asset, 0))
	ctx := m.ctx
	loop.Call(m.owner, func() (candidate, error) {
		return m.fetchBundle(ctx, cycle, p)
	}, func(c candidate, err error) {
		if err != nil {
			m.finishCheck()
			err = asKind(fault.ErrDownload, err)
			log.Error().Err(err).Str("version", p.release.TagName).Msg("update download failed")
			done(OutcomeUpToDate, err)
			return
		}
		m.setState(Downloaded(c.release, c.asset, c.bundle))
		if trigger == TriggerManual {
			m.checking = false
			m.awaiting = &c
			log.Info().Str("version", c.release.TagName).Msg("update downloaded; awaiting decision")
			done(OutcomeAwaitingDecision, nil)
			return
		}
		m.persist(c, func(err error) {
			if err != nil {
				done(OutcomeUpToDate, err)
				return
			}
			done(OutcomeDeferred, nil)
		})
	})
}

// fetchBundle runs on a worker.
func (m *Manager) fetchBundle(ctx context.Context, cycle uint64, p probe) (candidate, error) {
	if m.workDir != "" {
		if err := os.MkdirAll(m.workDir, 0o755); err != nil {
			return candidate{}, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(m.workDir, "gdsfm-update-")
	if err != nil {
		return candidate{}, fmt.Errorf("create download dir: %w", err)
	}

	name := filepath.Base(p.asset.Name)
	if name == "." || name == string(filepath.Separator) {
		name = "update.zip"
	}
	archive := filepath.Join(dir, name)
	f, err := os.Create(archive)
	if err != nil {
		_ = os.RemoveAll(dir)
		return candidate{}, fmt.Errorf("create archive: %w", err)
	}
	_, err = m.source.Download(ctx, p.asset, f, func(fraction float64) {
		m.owner.Post(func() { m.progress(cycle, fraction) })
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return candidate{}, err
	}

	bundle, err := release.Unpack(archive, filepath.Join(dir, "bundle"))
	_ = os.Remove(archive)
	if err != nil {
		_ = os.RemoveAll(dir)
		return candidate{}, err
	}
	return candidate{release: p.release, asset: p.asset, bundle: bundle, workDir: dir}, nil
}

func (m *Manager) progress(cycle uint64, fraction float64) {
	if cycle != m.cycle || m.state.Phase != PhaseDownloading || fraction <= m.state.Fraction {
		return
	}
	m.setState(Downloading(m.state.Release, m.state.Asset, fraction))
}

// persist moves c into the pending store and records it. A failure is both a
// storage and an install error.
func (m *Manager) persist(c candidate, done func(error)) {
	m.checking = true
	loop.Call(m.owner, func() (pending.DeferredUpdate, error) {
		defer func() { _ = os.RemoveAll(c.workDir) }()
		path, err := m.store.Persist(c.bundle)
		if err != nil {
			return pending.DeferredUpdate{}, err
		}
		rec := pending.DeferredUpdate{
			BundlePath:     path,
			ReleaseVersion: c.release.TagName,
			ReleaseName:    c.release.Name,
			AssetName:      c.asset.Name,
		}
		if err := m.store.StoreRecord(rec); err != nil {
			_ = m.store.Clear()
			return pending.DeferredUpdate{}, err
		}
		return rec, nil
	}, func(rec pending.DeferredUpdate, err error) {
		m.checking = false
		if err != nil {
			m.setState(Idle())
			err = fmt.Errorf("%w: defer update: %w", fault.ErrInstall, err)
			log.Error().Err(err).Str("version", c.release.TagName).Msg("store deferred update")
			done(err)
			return
		}
		m.deferred = &rec
		m.validated = true
		m.setState(Downloaded(c.release, c.asset, rec.BundlePath))
		log.Info().Str("version", rec.ReleaseVersion).Str("path", rec.BundlePath).Msg("update stored for install on quit")
		done(nil)
	})
}

// Decide answers an OutcomeAwaitingDecision. InstallNow swaps the bundle in
// place; Defer persists it for install on quit. done may be nil.
func (m *Manager) Decide(d Decision, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if m.awaiting == nil {
		done(errors.New("no update is awaiting a decision"))
		return
	}
	c := *m.awaiting
	m.awaiting = nil

	if d == Defer {
		log.Info().Str("version", c.release.TagName).Msg("user deferred update")
		m.persist(c, func(err error) {
			done(err)
			m.resumeTermination()
		})
		return
	}

	log.Info().Str("version", c.release.TagName).Msg("installing update now")
	m.startInstall(func() (bool, error) {
		defer func() { _ = os.RemoveAll(c.workDir) }()
		return false, m.installer.Install(c.bundle)
	}, func(err error) {
		m.setState(Idle())
		if err != nil {
			err = asKind(fault.ErrInstall, err)
			log.Error().Err(err).Msg("install update")
			done(err)
			return
		}
		done(nil)
	})
}

// InstallDeferred installs the persisted update on demand. A record whose
// bundle is gone is cleared and reported as an install failure. done may be
// nil.
func (m *Manager) InstallDeferred(done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if m.Busy() {
		done(fault.ErrBusy)
		return
	}
	m.startInstall(func() (bool, error) {
		rec, err := m.store.LoadRecord()
		if err != nil {
			return false, err
		}
		if rec == nil {
			return false, fmt.Errorf("%w: no deferred update", fault.ErrNoUpdate)
		}
		if !m.store.Validate(*rec) {
			if clearErr := m.store.Clear(); clearErr != nil {
				log.Warn().Err(clearErr).Msg("clear invalid deferred update")
			}
			return true, fmt.Errorf("%w: bundle %s is missing; the update was cleared", fault.ErrInstall, rec.BundlePath)
		}
		log.Info().Str("version", rec.ReleaseVersion).Msg("installing deferred update")
		if err := m.installer.Install(rec.BundlePath); err != nil {
			return false, err
		}
		if err := m.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("clear installed update")
		}
		return true, nil
	}, func(err error) {
		if err != nil && !errors.Is(err, fault.ErrNoUpdate) {
			err = asKind(fault.ErrInstall, err)
			log.Error().Err(err).Msg("install deferred update")
		}
		done(err)
	})
}

// ShouldTerminate answers a termination request. With no valid deferred
// update it returns TerminateNow. Otherwise it installs on a worker, returns
// TerminateLater and calls reply once the install finishes, successful or not.
// Requests that arrive while an install is running also get TerminateLater;
// their replies run when that install finishes.
//
// A check in flight is cancelled and the request waits for it to settle, so
// a bundle it is persisting is never touched by the install. When the stored
// record has not been read yet the request waits for launch validation.
func (m *Manager) ShouldTerminate(reply func()) TerminateReply {
	if m.installing {
		log.Info().Msg("install already in progress; deferring termination")
		m.addReply(reply)
		return TerminateLater
	}
	if m.checking || m.validating || !m.validated {
		m.addReply(reply)
		m.quitQueued = true
		if m.checking {
			log.Info().Msg("update check in progress; cancelling before quit")
			m.cancel()
		}
		if !m.checking && !m.validating {
			m.ValidateOnLaunch(nil)
		}
		return TerminateLater
	}
	rec := m.deferred
	if rec == nil {
		return TerminateNow
	}
	if !m.store.Validate(*rec) {
		log.Warn().Str("path", rec.BundlePath).Msg("deferred bundle missing at quit; clearing")
		if err := m.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("clear deferred update")
		}
		m.deferred = nil
		return TerminateNow
	}

	m.addReply(reply)
	bundle, version := rec.BundlePath, rec.ReleaseVersion
	log.Info().Str("version", version).Msg("installing deferred update on quit")
	m.startInstall(func() (bool, error) {
		if err := m.installer.Install(bundle); err != nil {
			return false, err
		}
		if err := m.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("clear installed update")
		}
		return true, nil
	}, func(err error) {
		if err != nil {
			log.Error().Err(err).Str("version", version).Msg("install deferred update on quit")
			return
		}
		log.Info().Str("version", version).Msg("update installed on quit")
	})
	return TerminateLater
}

// startInstall runs work with the install flag held. work reports whether the
// deferred record was cleared. Pending termination replies run after finish.
func (m *Manager) startInstall(work func() (bool, error), finish func(error)) {
	m.installing = true
	loop.Call(m.owner, work, func(cleared bool, err error) {
		m.installing = false
		if cleared {
			m.deferred = nil
		}
		finish(err)
		m.flushReplies()
	})
}

// resumeTermination answers a queued termination request once nothing the
// install could race with is in flight.
func (m *Manager) resumeTermination() {
	if !m.quitQueued || m.checking || m.validating || m.installing {
		return
	}
	m.quitQueued = false
	if m.ShouldTerminate(nil) == TerminateNow {
		m.flushReplies()
	}
}

func (m *Manager) addReply(reply func()) {
	if reply != nil {
		m.replies = append(m.replies, reply)
	}
}

func (m *Manager) flushReplies() {
	replies := m.replies
	m.replies = nil
	for _, reply := range replies {
		reply()
	}
}

// StartBackground schedules automatic checks every interval. A non-positive
// interval uses DefaultCheckInterval.
func (m *Manager) StartBackground(sched loop.Scheduler, interval time.Duration) {
	if m.bgRunning {
		return
	}
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	m.sched = sched
	m.bgHandle = sched.ScheduleRepeating(interval, m.backgroundCheck)
	m.bgRunning = true
	log.Debug().Dur("interval", interval).Msg("background update checks scheduled")
}

// StopBackground cancels automatic checks.
func (m *Manager) StopBackground() {
	if !m.bgRunning {
		return
	}
	m.sched.Cancel(m.bgHandle)
	m.bgRunning = false
}

// Close stops background checks, cancels network work in flight and drops a
// download still waiting on Decide.
func (m *Manager) Close() {
	m.StopBackground()
	m.cancel()
	if m.awaiting != nil {
		if err := os.RemoveAll(m.awaiting.workDir); err != nil {
			log.Warn().Err(err).Str("path", m.awaiting.workDir).Msg("remove undecided download")
		}
		m.awaiting = nil
		m.setState(Idle())
	}
}

func (m *Manager) backgroundCheck() {
	m.Check(TriggerAutomatic, func(o Outcome, err error) {
		switch {
		case errors.Is(err, fault.ErrBusy):
			log.Debug().Msg("skipping background update check; updater busy")
		case err != nil:
			log.Warn().Err(err).Msg("background update check failed")
		default:
			log.Info().Str("outcome", o.String()).Msg("background update check finished")
		}
	})
}

func (m *Manager) finishCheck() {
	m.checking = false
	m.setState(Idle())
}

func (m *Manager) setState(s State) {
	m.state = s
	for _, fn := range m.observers {
		fn(s)
	}
}

func asKind(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
