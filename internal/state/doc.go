// Package state provides the thread-safe snapshot shared between the owner
// loop and the terminal UI.
//
// The loop goroutine is the only writer: playback transitions, metadata polls,
// updater state changes and user-facing notices are recorded through the
// Set*/Update* methods. The UI goroutine polls Snapshot at its own cadence and
// never touches core state directly.
//
// Snapshot returns deep copies of the pointer and slice fields so the UI can
// keep a snapshot around while the store moves on. Metadata failures keep the
// previous metadata and increment ConsecutiveFailures; IsOffline reports two
// or more in a row.
package state
