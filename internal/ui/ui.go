package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/gdsfm/internal/playback"
	"github.com/five82/gdsfm/internal/search"
	"github.com/five82/gdsfm/internal/state"
	"github.com/five82/gdsfm/internal/update"
)

// DefaultRefreshInterval is how often the UI re-reads the snapshot store.
const DefaultRefreshInterval = 250 * time.Millisecond

// logLimit is the number of log lines kept in the log pane.
const logLimit = 400

// Intents receives user actions. Implementations must not block: they hand
// the work to the owner loop and return.
type Intents interface {
	TogglePlayback()
	OpenSearch()
	SetMusicService(s search.Service)
	SetShowVinyl(on bool)
	SetClickToPlay(on bool)
	CheckForUpdates()
	InstallUpdate()
	Decide(d update.Decision)
	Quit()
}

// Options configures the UI.
type Options struct {
	Store     *state.Store
	Intents   Intents
	LogPath   string
	PollTick  time.Duration
	ThemeName string
}

// Model is the root state of the status surface.
type Model struct {
	store    *state.Store
	intents  Intents
	logPath  string
	pollTick time.Duration

	keys  keyMap
	help  help.Model
	theme Theme

	width  int
	height int
	ready  bool

	snapshot state.Snapshot

	anim    playback.Animation
	spinner spinner.Model

	menuOpen bool
	cursor   int

	showHelp    bool
	showLogs    bool
	logViewport viewport.Model
	logLines    []string
	logErr      error

	quitting bool
}

// New creates the model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultRefreshInterval
	}

	m := Model{
		store:    opts.Store,
		intents:  opts.Intents,
		logPath:  opts.LogPath,
		pollTick: pollTick,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    GetTheme(opts.ThemeName),
	}
	m.anim = playback.AnimationFor(playback.StateStopped, true)
	m.spinner = m.newSpinner(m.anim)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, 0)
		}
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		return m.applySnapshot(state.Snapshot(msg))

	case spinner.TickMsg:
		if !m.anim.Rotating() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.logViewport.SetContent(m.renderLogLines())
		m.logViewport.GotoBottom()
		return m, nil

	case QuitMsg:
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		m.menuOpen = false
		m.send(func(in Intents) { in.Quit() })
		return m, nil
	}
	if m.quitting {
		return m, nil
	}

	if m.snapshot.AwaitingDecision {
		switch {
		case key.Matches(msg, m.keys.InstallNow):
			m.send(func(in Intents) { in.Decide(update.InstallNow) })
		case key.Matches(msg, m.keys.Later):
			m.send(func(in Intents) { in.Decide(update.Defer) })
		}
		return m, nil
	}

	if m.menuOpen {
		if handled, cmd := m.handleMenuKey(msg); handled {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.logViewport.SetContent(m.renderLogLines())
	case key.Matches(msg, m.keys.Primary):
		m.click(m.snapshot.Prefs.ClickToPlay)
	case key.Matches(msg, m.keys.Secondary):
		m.click(!m.snapshot.Prefs.ClickToPlay)
	case key.Matches(msg, m.keys.Search):
		m.activate(actionSearch)
	case key.Matches(msg, m.keys.CheckUpdates):
		if item := updateItem(m.snapshot); m.snapshot.UpdatesEnabled && item.selectable() {
			m.activate(item.Action)
		}
	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.resizeLogViewport()
		if m.showLogs {
			return m, readLogsCmd(m.logPath)
		}
	}
	return m, nil
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	items := buildMenu(m.snapshot)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = nextSelectable(items, clampCursor(items, m.cursor), -1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = nextSelectable(items, clampCursor(items, m.cursor), 1)
	case key.Matches(msg, m.keys.Select):
		cur := clampCursor(items, m.cursor)
		if cur < len(items) && items[cur].selectable() {
			m.menuOpen = false
			m.activate(items[cur].Action)
		}
	case key.Matches(msg, m.keys.Escape):
		m.menuOpen = false
	default:
		return false, nil
	}
	return true, nil
}

// click runs the primary click behavior: toggle playback when playFirst,
// otherwise open or close the menu.
func (m *Model) click(playFirst bool) {
	if playFirst {
		m.activate(actionToggle)
		return
	}
	m.menuOpen = !m.menuOpen
	if m.menuOpen {
		items := buildMenu(m.snapshot)
		m.cursor = clampCursor(items, 0)
	}
}

func (m *Model) activate(a action) {
	snap := m.snapshot
	switch a {
	case actionSearch:
		if snap.Metadata.HasTrack() {
			m.send(func(in Intents) { in.OpenSearch() })
		}
	case actionToggle:
		m.send(func(in Intents) { in.TogglePlayback() })
	case actionMusicService:
		next := nextService(snap.Prefs.MusicService)
		m.send(func(in Intents) { in.SetMusicService(next) })
	case actionVinyl:
		on := !snap.Prefs.ShowVinylIcon
		m.send(func(in Intents) { in.SetShowVinyl(on) })
	case actionClick:
		on := !snap.Prefs.ClickToPlay
		m.send(func(in Intents) { in.SetClickToPlay(on) })
	case actionCheckUpdates:
		m.send(func(in Intents) { in.CheckForUpdates() })
	case actionInstallUpdate:
		m.send(func(in Intents) { in.InstallUpdate() })
	case actionQuit:
		m.quitting = true
		m.send(func(in Intents) { in.Quit() })
	}
}

func (m *Model) send(fn func(Intents)) {
	if m.intents != nil {
		fn(m.intents)
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) applySnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	m.snapshot = snap
	if m.menuOpen {
		m.cursor = clampCursor(buildMenu(snap), m.cursor)
	}

	anim := playback.AnimationFor(snap.Playback, snap.Prefs.ShowVinylIcon)
	if anim == m.anim {
		return m, nil
	}
	m.anim = anim
	m.spinner = m.newSpinner(anim)
	if anim.Rotating() {
		return m, m.spinner.Tick
	}
	return m, nil
}

func (m Model) newSpinner(a playback.Animation) spinner.Model {
	return spinner.New(
		spinner.WithSpinner(iconSpinner(a)),
		spinner.WithStyle(m.theme.Styles().AccentText),
	)
}

func nextService(cur search.Service) search.Service {
	all := search.Services()
	for i, s := range all {
		if s == cur {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logLinesMsg struct {
	lines []string
	err   error
}

// QuitMsg ends the program. The application sends it once termination has
// been approved.
type QuitMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// NewProgram builds the Bubble Tea program for the status surface.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(New(opts), tea.WithAltScreen())
}
