// Package logtail reads the tail of the application log for the log pane.
//
// Read extracts the last N lines of a file with a ring buffer of size N, so
// memory stays bounded no matter how large the log grows. A missing file is
// not an error: Read returns nil, nil until the first line is written.
//
// The application writes zerolog console lines without colour:
//
//	2026-10-14 09:30:00 INF metadata updated show="Morning Show"
//
// Parse splits such a line into timestamp, level and message so the UI can
// style each part, and Filter hides lines below a minimum level.
package logtail
