package ui

import (
	"fmt"

	"github.com/five82/gdsfm/internal/playback"
	"github.com/five82/gdsfm/internal/state"
	"github.com/five82/gdsfm/internal/update"
)

type action int

const (
	actionNone action = iota
	actionSearch
	actionToggle
	actionMusicService
	actionVinyl
	actionClick
	actionCheckUpdates
	actionInstallUpdate
	actionQuit
)

type menuItem struct {
	Label     string
	Action    action
	Disabled  bool
	Separator bool
	Header    bool
}

func (it menuItem) selectable() bool {
	return !it.Separator && !it.Header && !it.Disabled && it.Action != actionNone
}

var separator = menuItem{Separator: true}

// buildMenu lays out the menu for the current snapshot.
func buildMenu(snap state.Snapshot) []menuItem {
	items := []menuItem{{Label: "GDS.FM", Header: true}}

	if show := snap.Metadata.ShowName; show != "" {
		items = append(items, menuItem{Label: show, Disabled: true})
	}
	if line := snap.Metadata.Line(); line != "" {
		items = append(items, menuItem{
			Label:  line,
			Action: actionSearch,
		})
	}
	if snap.IsOffline() {
		items = append(items, menuItem{Label: "Live info unavailable", Disabled: true})
	}

	items = append(items,
		separator,
		menuItem{Label: playback.ToggleLabel(snap.Playback), Action: actionToggle},
		separator,
		menuItem{Label: "Music Service: " + snap.Prefs.MusicService.DisplayName(), Action: actionMusicService},
		menuItem{Label: "Show Vinyl Icon: " + onOff(snap.Prefs.ShowVinylIcon), Action: actionVinyl},
		menuItem{Label: "Click Action: " + clickLabel(snap.Prefs.ClickToPlay), Action: actionClick},
	)

	if snap.UpdatesEnabled {
		items = append(items, separator, updateItem(snap))
	}

	items = append(items, separator, menuItem{Label: "Quit", Action: actionQuit})
	return items
}

func updateItem(snap state.Snapshot) menuItem {
	switch {
	case snap.Installing:
		return menuItem{Label: "Installing Update...", Disabled: true}
	case snap.Update.Phase == update.PhaseDownloading:
		return menuItem{Label: fmt.Sprintf("Downloading Update... %.0f%%", snap.Update.Fraction*100), Disabled: true}
	case snap.UpdateBusy:
		return menuItem{Label: "Checking for Updates...", Disabled: true}
	case snap.Deferred != nil:
		return menuItem{Label: "Install Update & Restart", Action: actionInstallUpdate}
	default:
		return menuItem{Label: "Check for Updates...", Action: actionCheckUpdates}
	}
}

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

func clickLabel(clickToPlay bool) string {
	if clickToPlay {
		return "Play/Pause"
	}
	return "Open Menu"
}

// nextSelectable returns the index of the next selectable item from cur in
// direction dir, or cur when there is none.
func nextSelectable(items []menuItem, cur, dir int) int {
	for i := cur + dir; i >= 0 && i < len(items); i += dir {
		if items[i].selectable() {
			return i
		}
	}
	return cur
}

// clampCursor moves cur onto a selectable item after the menu changed shape.
func clampCursor(items []menuItem, cur int) int {
	if cur >= 0 && cur < len(items) && items[cur].selectable() {
		return cur
	}
	if cur >= len(items) {
		cur = len(items) - 1
	}
	if next := nextSelectable(items, cur, 1); next != cur {
		return next
	}
	if prev := nextSelectable(items, cur, -1); prev != cur {
		return prev
	}
	return 0
}
