package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/gdsfm/internal/playback"
	"github.com/five82/gdsfm/internal/state"
	"github.com/five82/gdsfm/internal/update"
)

// noticeTTL is how long a notice stays in the status line.
const noticeTTL = 15 * time.Second

func (m Model) renderMain() string {
	styles := m.theme.Styles()

	var sections []string
	sections = append(sections, m.renderStatusLine(styles))
	if notice := m.renderNotice(styles, time.Now()); notice != "" {
		sections = append(sections, notice)
	}

	switch {
	case m.quitting:
		sections = append(sections, m.renderQuitting(styles))
	case m.snapshot.AwaitingDecision:
		sections = append(sections, m.renderPrompt(styles))
	case m.menuOpen:
		sections = append(sections, m.renderMenu(styles))
	}

	if m.showLogs {
		sections = append(sections, m.renderUpdatePane(styles), m.renderLogPane(styles))
	}

	sections = append(sections, styles.Footer.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatusLine draws the icon, the state badge and the tooltip text.
func (m Model) renderStatusLine(styles Styles) string {
	snap := m.snapshot
	parts := []string{
		m.spinner.View(),
		styles.Logo.Render("GDS.FM"),
		styles.StatusStyle(snap.Playback.String()).Render(snap.Playback.String()),
	}
	if snap.IsOffline() {
		parts = append(parts, styles.StatusStyle("offline").Render("offline"))
	}
	if tip := playback.Tooltip(snap.Playback, snap.Metadata.ArtistName, snap.Metadata.TrackTitle); tip != "" {
		parts = append(parts, styles.Text.Render(tip))
	} else if show := snap.Metadata.ShowName; show != "" {
		parts = append(parts, styles.MutedText.Render(show))
	}
	if snap.Deferred != nil {
		parts = append(parts, styles.StatusStyle("downloaded").Render("update ready"))
	}
	return styles.Header.Render(strings.Join(parts, " "))
}

func (m Model) renderNotice(styles Styles, now time.Time) string {
	snap := m.snapshot
	if snap.Notice == "" || now.Sub(snap.NoticeAt) > noticeTTL {
		return ""
	}
	if snap.NoticeError {
		return " " + styles.DangerText.Render(snap.Notice)
	}
	return " " + styles.InfoText.Render(snap.Notice)
}

func (m Model) renderMenu(styles Styles) string {
	items := buildMenu(m.snapshot)
	cursor := clampCursor(items, m.cursor)

	var lines []string
	for i, it := range items {
		switch {
		case it.Separator:
			lines = append(lines, styles.FaintText.Render(strings.Repeat("─", 28)))
		case it.Header:
			lines = append(lines, styles.Logo.Render(it.Label))
		case it.Disabled || !it.selectable():
			lines = append(lines, styles.MutedText.Render("  "+it.Label))
		case i == cursor:
			lines = append(lines, styles.Selected.Render("› "+it.Label))
		default:
			lines = append(lines, styles.Text.Render("  "+it.Label))
		}
	}
	return styles.FocusBox.Render(strings.Join(lines, "\n"))
}

func (m Model) renderPrompt(styles Styles) string {
	rel := m.snapshot.Update.Release
	name := rel.Name
	if name == "" {
		name = rel.TagName
	}
	lines := []string{
		styles.AccentText.Bold(true).Render("A new version of GDS.FM is available"),
		styles.Text.Render(name + " has been downloaded and is ready to install."),
		"",
		styles.WarningText.Render("i") + styles.Text.Render(" Install & Restart   ") +
			styles.WarningText.Render("L") + styles.Text.Render(" Later (install when quitting)"),
	}
	return styles.FocusBox.Render(strings.Join(lines, "\n"))
}

func (m Model) renderQuitting(styles Styles) string {
	if m.snapshot.Installing {
		return " " + styles.WarningText.Render("Installing update, GDS.FM will quit when it finishes...")
	}
	return " " + styles.MutedText.Render("Quitting...")
}

// renderUpdatePane summarizes the updater and the live-info feed.
func (m Model) renderUpdatePane(styles Styles) string {
	return styles.Box.Render(strings.Join(updateStatusLines(m.snapshot, styles), "\n"))
}

func updateStatusLines(snap state.Snapshot, styles Styles) []string {
	label := func(s string) string { return styles.FaintText.Render(fmt.Sprintf("%-12s", s)) }

	var lines []string
	if !snap.UpdatesEnabled {
		lines = append(lines, label("Updates")+styles.MutedText.Render("disabled"))
	} else {
		phase := snap.Update.String()
		badge := "stopped"
		switch snap.Update.Phase {
		case update.PhaseNewVersionDetected:
			badge = "detected"
		case update.PhaseDownloading:
			badge = "downloading"
		case update.PhaseDownloaded:
			badge = "downloaded"
		}
		if snap.Installing {
			phase, badge = "installing", "installing"
		}
		lines = append(lines, label("Updater")+styles.StatusStyle(badge).Render(phase))

		if snap.Deferred != nil {
			lines = append(lines, label("Pending")+styles.Text.Render(snap.Deferred.ReleaseVersion+" "+snap.Deferred.BundlePath))
		} else {
			lines = append(lines, label("Pending")+styles.MutedText.Render("none"))
		}
	}

	if snap.LastUpdated.IsZero() {
		lines = append(lines, label("Live info")+styles.MutedText.Render("waiting"))
	} else {
		lines = append(lines, label("Live info")+styles.Text.Render(snap.LastUpdated.Local().Format("15:04:05")))
	}
	if snap.LastError != nil {
		lines = append(lines, label("Last error")+styles.DangerText.Render(snap.LastError.Error()))
	}
	return lines
}

func (m Model) renderLogPane(styles Styles) string {
	return styles.Box.Render(m.logViewport.View())
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	full := m.help
	full.ShowAll = true

	content := styles.Text.Bold(true).Render("Keyboard Shortcuts") + "\n\n" + full.View(m.keys)
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
	)
}
