// Package update drives the self-update lifecycle: checking the release feed,
// downloading and unpacking a bundle, deferring it for install on quit, and
// swapping it into place.
//
// # State
//
// The updater moves None → NewVersionDetected → Downloading → Downloaded
// within one check and returns to None at the start of the next check or on
// any failure. Observers registered with OnState see every step.
//
// # Triggers
//
// An automatic check (StartBackground, every 24 hours by default) persists a
// downloaded bundle through the pending store and never installs. It is
// answered as up to date when the pending record already holds the newest
// release. A manual check first clears any deferred update, then stops at
// OutcomeAwaitingDecision; Decide either installs immediately or persists.
//
// # Quitting
//
// ShouldTerminate implements install-on-quit. When a valid deferred update
// exists it starts one install and returns TerminateLater; further requests
// during that install also get TerminateLater and their reply callbacks run
// when it finishes. The record is cleared on success and kept on failure.
// A request made while a check is running cancels it and waits for it to
// settle; a request made before launch validation waits for the record to be
// read. Both return TerminateLater.
//
// BundleReplacer swaps a whole bundle directory. ExecutableReplacer swaps only
// the running binary and is used when no install path is configured.
//
// Only one check, decision or install is outstanding at a time; anything else
// fails with fault.ErrBusy.
package update
