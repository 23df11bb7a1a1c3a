package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/five82/gdsfm/internal/config"
	"github.com/five82/gdsfm/internal/loop"
	"github.com/five82/gdsfm/internal/pending"
	"github.com/five82/gdsfm/internal/update"
)

// CheckUpdates runs one manual update check in the terminal: the download is
// drawn as a progress bar and the user is asked whether to install now. A "no"
// keeps the update for install on the next quit.
func CheckUpdates(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closeLog, err := setupLogging(cfg.LogPath(), opts.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	l := loop.New()
	updater, err := newUpdater(l, cfg, opts.Version)
	if err != nil {
		return err
	}
	if updater == nil {
		return errors.New("updates are not configured; set [updates] owner and repo")
	}

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go l.Run(loopCtx)

	return runCheck(loopCtx, l, updater, in, out)
}

// runCheck drives updater on owner and blocks until the check is resolved.
func runCheck(ctx context.Context, owner loop.Owner, updater *update.Manager, in io.Reader, out io.Writer) error {
	bar := newDownloadBar(out)
	owner.Post(func() {
		updater.OnState(bar.observe)
	})

	outcome, err := await(ctx, owner, func(done func(update.Outcome, error)) {
		updater.ValidateOnLaunch(func(*pending.DeferredUpdate, error) {
			updater.Check(update.TriggerManual, done)
		})
	})
	st, stateErr := await(ctx, owner, func(done func(update.State, error)) {
		bar.finish()
		done(updater.State(), nil)
	})
	if err != nil {
		return fmt.Errorf("check for updates: %w", err)
	}
	if stateErr != nil {
		return stateErr
	}

	if outcome == update.OutcomeUpToDate {
		fmt.Fprintln(out, "You're running the latest version of GDS.FM.")
		return nil
	}

	fmt.Fprintf(out, "%s is ready to install.\n", releaseLabel(st))
	decision := update.Defer
	if confirm(in, out, "Install now? [y/N]: ") {
		decision = update.InstallNow
	}

	if _, err := await(ctx, owner, func(done func(struct{}, error)) {
		updater.Decide(decision, func(err error) { done(struct{}{}, err) })
	}); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	if decision == update.InstallNow {
		fmt.Fprintf(out, "Installed %s. Restart GDS.FM to use it.\n", st.Release.TagName)
	} else {
		fmt.Fprintln(out, "The update will be installed when you quit GDS.FM.")
	}
	return nil
}

// await posts start onto owner and waits for the callback it is handed.
func await[T any](ctx context.Context, owner loop.Owner, start func(done func(T, error))) (T, error) {
	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	owner.Post(func() {
		start(func(v T, err error) { ch <- result{v, err} })
	})
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func releaseLabel(st update.State) string {
	if st.Release.Name != "" {
		return st.Release.Name
	}
	return "GDS.FM " + st.Release.TagName
}

// downloadBar renders Downloading states. It is only touched on the owner.
type downloadBar struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newDownloadBar(out io.Writer) *downloadBar {
	return &downloadBar{out: out}
}

func (d *downloadBar) observe(st update.State) {
	if st.Phase != update.PhaseDownloading && st.Phase != update.PhaseDownloaded {
		return
	}
	if d.bar == nil {
		d.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(d.out),
			progressbar.OptionSetDescription("Downloading "+st.Asset.Name),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(d.out) }),
		)
	}
	_ = d.bar.Set(int(st.Fraction * 100))
}

func (d *downloadBar) finish() {
	if d.bar != nil && !d.bar.IsFinished() {
		_ = d.bar.Finish()
	}
}
