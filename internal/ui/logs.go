package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/gdsfm/internal/logtail"
)

// readLogsCmd tails the application log off the UI goroutine.
func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

// resizeLogViewport gives the log pane whatever height the rest of the view
// leaves over.
func (m *Model) resizeLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.Width = max(m.width-4, 10)
	// status line, update pane (up to 6 rows with borders), footer, borders
	m.logViewport.Height = max(m.height-12, 3)
}

func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render(m.logErr.Error())
	}
	if len(m.logLines) == 0 {
		return styles.MutedText.Render("No log entries")
	}

	var b strings.Builder
	for i, line := range logtail.Filter(m.logLines, logtail.LevelInfo) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.colorizeLine(line, styles))
	}
	return b.String()
}

func (m Model) colorizeLine(line string, styles Styles) string {
	entry := logtail.Parse(line)
	if entry.Level == logtail.LevelUnknown {
		return styles.Text.Render(entry.Message)
	}
	return styles.FaintText.Render(entry.Time) + " " +
		levelStyle(entry.Level, styles).Bold(true).Render(levelLabel(entry.Level)) + " " +
		styles.Text.Render(entry.Message)
}

func levelStyle(level logtail.Level, styles Styles) lipgloss.Style {
	switch level {
	case logtail.LevelInfo:
		return styles.SuccessText
	case logtail.LevelWarn:
		return styles.WarningText
	case logtail.LevelError, logtail.LevelFatal:
		return styles.DangerText
	case logtail.LevelDebug, logtail.LevelTrace:
		return styles.InfoText
	default:
		return styles.Text
	}
}

func levelLabel(level logtail.Level) string {
	switch level {
	case logtail.LevelTrace:
		return "TRACE"
	case logtail.LevelDebug:
		return "DEBUG"
	case logtail.LevelInfo:
		return "INFO"
	case logtail.LevelWarn:
		return "WARN"
	case logtail.LevelError:
		return "ERROR"
	case logtail.LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}
