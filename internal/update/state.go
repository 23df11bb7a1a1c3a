package update

import (
	"fmt"

	"github.com/five82/gdsfm/internal/release"
)

// Phase tags the variant held by State.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseNewVersionDetected
	PhaseDownloading
	PhaseDownloaded
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseNewVersionDetected:
		return "new version detected"
	case PhaseDownloading:
		return "downloading"
	case PhaseDownloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}

// State is the updater's progress through one check cycle. Release and Asset
// are set from NewVersionDetected on, Fraction only while Downloading and
// Bundle only once Downloaded.
type State struct {
	Phase    Phase
	Release  release.Release
	Asset    release.Asset
	Fraction float64
	Bundle   string
}

// Idle is the None state.
func Idle() State { return State{} }

// Detected is the NewVersionDetected state.
func Detected(r release.Release, a release.Asset) State {
	return State{Phase: PhaseNewVersionDetected, Release: r, Asset: a}
}

// Downloading is the Downloading state; fraction is clamped to [0, 1].
func Downloading(r release.Release, a release.Asset, fraction float64) State {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	return State{Phase: PhaseDownloading, Release: r, Asset: a, Fraction: fraction}
}

// Downloaded is the Downloaded state.
func Downloaded(r release.Release, a release.Asset, bundle string) State {
	return State{Phase: PhaseDownloaded, Release: r, Asset: a, Fraction: 1, Bundle: bundle}
}

func (s State) String() string {
	switch s.Phase {
	case PhaseNone:
		return "idle"
	case PhaseDownloading:
		return fmt.Sprintf("downloading %s (%.0f%%)", s.Release.TagName, s.Fraction*100)
	default:
		return fmt.Sprintf("%s %s", s.Phase, s.Release.TagName)
	}
}

// Trigger says who started a check.
type Trigger int

const (
	TriggerAutomatic Trigger = iota
	TriggerManual
)

func (t Trigger) String() string {
	if t == TriggerManual {
		return "manual"
	}
	return "automatic"
}

// Outcome is the successful result of a check.
type Outcome int

const (
	// OutcomeUpToDate means no eligible newer release exists.
	OutcomeUpToDate Outcome = iota
	// OutcomeDeferred means the update was persisted for install on quit.
	OutcomeDeferred
	// OutcomeAwaitingDecision means a manual check downloaded an update and
	// Decide must be called.
	OutcomeAwaitingDecision
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up to date"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeAwaitingDecision:
		return "awaiting decision"
	default:
		return "unknown"
	}
}

// Decision answers OutcomeAwaitingDecision.
type Decision int

const (
	InstallNow Decision = iota
	Defer
)

// TerminateReply answers a termination request.
type TerminateReply int

const (
	TerminateNow TerminateReply = iota
	// TerminateLater means an install is running; the reply callback passed to
	// ShouldTerminate runs when it finishes.
	TerminateLater
)
