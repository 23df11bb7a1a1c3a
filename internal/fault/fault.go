// Package fault defines the error kinds shared by the playback, metadata and
// update components. Callers match them with errors.Is; producers wrap the
// underlying cause with fmt.Errorf("%w: %w", kind, err).
package fault

import "errors"

var (
	// ErrTransport marks network or HTTP failures.
	ErrTransport = errors.New("transport error")
	// ErrDecode marks malformed JSON or archive payloads.
	ErrDecode = errors.New("decode error")
	// ErrStorage marks failures reading or writing persisted update state.
	ErrStorage = errors.New("storage error")
	// ErrDownload marks a failed update download or unpack.
	ErrDownload = errors.New("download failed")
	// ErrInstall marks a failed bundle swap, or an update that could not be
	// deferred safely.
	ErrInstall = errors.New("install failed")
	// ErrNoUpdate means the running version is already current. It is not a
	// failure.
	ErrNoUpdate = errors.New("no update available")
	// ErrBusy is returned when an update check or install is already running.
	ErrBusy = errors.New("update already in progress")
)
