package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/analytics"
	"github.com/five82/gdsfm/internal/audio"
	"github.com/five82/gdsfm/internal/config"
	"github.com/five82/gdsfm/internal/liveinfo"
	"github.com/five82/gdsfm/internal/loop"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/prefs"
	"github.com/five82/gdsfm/internal/release"
	"github.com/five82/gdsfm/internal/search"
	"github.com/five82/gdsfm/internal/ui"
	"github.com/five82/gdsfm/internal/update"
)

// Options configure the GDS.FM application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/gdsfm/prefs.toml
	Version    string
	Debug      bool
}

// Result tells the caller what to do after Run returns.
type Result struct {
	// Relaunch is set after an interactive install replaced the binary.
	Relaunch bool
}

const (
	userAgent          = "gdsfm/0.1"
	analyticsFlushWait = 2 * time.Second
)

// Run boots the agent and its status surface. A cancelled ctx is treated as a
// termination request, so a deferred update still installs before Run returns.
func Run(ctx context.Context, opts Options) (Result, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return Result{}, fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogging(cfg.LogPath(), opts.Debug)
	if err != nil {
		return Result{}, err
	}
	defer closeLog()
	log.Info().Str("version", opts.Version).Msg("starting gdsfm")

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	emitter, flush := newEmitter(cfg, &userPrefs, opts)
	defer flush()

	fetcher, err := liveinfo.NewClient(cfg.LiveInfoURL)
	if err != nil {
		return Result{}, fmt.Errorf("init live info client: %w", err)
	}

	l := loop.New()
	ticker := loop.NewTicker(l)
	defer ticker.Stop()

	updater, err := newUpdater(l, cfg, opts.Version)
	if err != nil {
		return Result{}, err
	}

	a := newAgent(l, userPrefs, deps{
		Transport: audio.NewBeepTransport(userAgent),
		Fetcher:   fetcher,
		Updater:   updater,
		Emitter:   emitter,
		Opener:    search.SystemOpener{},
		Scheduler: ticker,
		SavePrefs: func(p prefs.Prefs) error {
			return prefs.Save(opts.PrefsPath, p)
		},
		StreamURL:      cfg.StreamURL,
		PollInterval:   cfg.PollInterval,
		UpdateInterval: cfg.Updates.Interval,
	})

	program := ui.NewProgram(ui.Options{
		Store:   a.store,
		Intents: a,
		LogPath: cfg.LogPath(),
	})
	a.setOnQuit(func() { program.Send(ui.QuitMsg{}) })

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		l.Run(loopCtx)
	}()

	l.Post(func() { a.launch(loopCtx) })

	go func() {
		select {
		case <-ctx.Done():
			log.Info().Msg("termination signal received")
			a.Quit()
		case <-loopCtx.Done():
		}
	}()

	_, runErr := program.Run()

	// The UI can exit on its own after a terminal error; run the same
	// termination protocol a quit would have.
	if finished, _ := a.result(); !finished {
		a.Quit()
	}
	<-a.done
	stopLoop()
	<-loopDone

	_, relaunch := a.result()
	if runErr != nil {
		return Result{}, fmt.Errorf("run ui: %w", runErr)
	}
	return Result{Relaunch: relaunch}, nil
}

// newEmitter returns the configured analytics emitter and records the launch.
// The returned func waits briefly for queued events.
func newEmitter(cfg config.Config, p *prefs.Prefs, opts Options) (analytics.Emitter, func()) {
	if !cfg.Analytics.Active() {
		return analytics.Nop{}, func() {}
	}

	changed := analytics.EnsureUserID(p)
	client, err := analytics.NewClient(cfg.Analytics.APIURL, cfg.Analytics.APIToken, p.AnalyticsUserID, opts.Version)
	if err != nil {
		log.Warn().Err(err).Msg("analytics disabled")
		return analytics.Nop{}, func() {}
	}
	if analytics.TrackLaunch(client, p) {
		changed = true
	}
	if changed {
		if err := prefs.Save(opts.PrefsPath, *p); err != nil {
			log.Warn().Err(err).Msg("save preferences")
		}
	}
	return client, func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyticsFlushWait)
		defer cancel()
		client.Wait(ctx)
	}
}

// newUpdater builds the update manager, or nil when updates are off.
func newUpdater(owner loop.Owner, cfg config.Config, version string) (*update.Manager, error) {
	if !cfg.Updates.Active() {
		log.Info().Msg("self-update disabled")
		return nil, nil
	}

	feed, err := release.NewFeed(cfg.Updates.APIURL, cfg.Updates.Owner, cfg.Updates.Repo)
	if err != nil {
		return nil, fmt.Errorf("init release feed: %w", err)
	}

	installer, err := newInstaller(cfg.Updates.InstallPath)
	if err != nil {
		return nil, err
	}

	store := pending.NewStore(cfg.Updates.PendingDir, cfg.Updates.RecordPath)
	return update.NewManager(owner, update.Options{
		Source:    feed,
		Store:     store,
		Installer: installer,
		Criteria: release.Criteria{
			Prefix:          cfg.Updates.ReleasePrefix,
			Current:         version,
			AllowPrerelease: cfg.Updates.AllowPrerelease,
		},
		WorkDir: filepath.Join(filepath.Dir(cfg.Updates.PendingDir), "downloads"),
	}), nil
}

// newInstaller replaces the configured bundle directory, or only the running
// executable when no install path is set.
func newInstaller(installPath string) (update.Installer, error) {
	if installPath != "" {
		return &update.BundleReplacer{InstallPath: installPath}, nil
	}
	exe, err := resolveExecutable(os.Executable)
	if err != nil {
		return nil, err
	}
	return &update.ExecutableReplacer{Path: exe}, nil
}

// resolveExecutable returns the running binary with symlinks resolved, so an
// update lands on the real file rather than replacing the link.
func resolveExecutable(executable func() (string, error)) (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
