// Package loop provides the single owner context that all playback, metadata
// and update state is confined to, plus the repeating schedulers that feed it.
//
// Network and file I/O run on worker goroutines started with Go or Call; their
// completions are posted back onto the loop before they touch owned state, so
// the components built on top of it need no locks of their own.
package loop
