package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the status surface.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Primary runs the click action; Secondary runs the other one.
	Primary   key.Binding
	Secondary key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	Search       key.Binding
	CheckUpdates key.Binding
	ToggleLogs   key.Binding

	// Decision prompt
	InstallNow key.Binding
	Later      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close menu"),
		),
		Primary: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "Click"),
		),
		Secondary: key.NewBinding(
			key.WithKeys("m", "tab"),
			key.WithHelp("m", "Alternate click"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Select menu item"),
		),
		Search: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Search current track"),
		),
		CheckUpdates: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Check for updates"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Toggle update status and logs"),
		),
		InstallNow: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i", "Install now"),
		),
		Later: key.NewBinding(
			key.WithKeys("L", "esc"),
			key.WithHelp("L", "Later"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Primary, k.Secondary, k.Search, k.ToggleLogs, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Primary, k.Secondary, k.Search},
		{k.Up, k.Down, k.Select, k.Escape},
		{k.CheckUpdates, k.ToggleLogs},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
