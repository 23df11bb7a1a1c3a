// Package liveinfo polls the station's live-info endpoint for the current show
// and track.
//
// Client performs a single GET and decodes a document in which every level
// (shows.current, tracks.current, tracks.current.metadata) may be null; absent
// fields decode to empty strings rather than errors. Transport failures wrap
// fault.ErrTransport and malformed JSON wraps fault.ErrDecode.
//
// Poller drives the client from a loop.Scheduler. It fetches once on Start and
// then on every interval, skips a tick while a fetch is still in flight, and
// keeps the previous metadata when a fetch fails. There is no backoff; the
// next tick simply retries. Failures are logged and reported through OnError,
// never returned.
package liveinfo
