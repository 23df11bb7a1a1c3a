// Package app is the composition root of the GDS.FM agent.
//
// # Overview
//
// Run loads configuration and preferences, sets up logging and analytics,
// builds the three state machines (playback, live info polling and the update
// lifecycle) and hands the shared state.Store to the terminal UI. Every state
// machine runs on one loop.Loop; network and file work runs on loop workers
// and reports back through loop.Post.
//
// # Components
//
//   - app.go: Run and the constructors for the emitter and update manager
//   - agent.go: the agent that owns the state machines and answers UI intents
//   - check.go: CheckUpdates, a one-shot manual check for the terminal
//   - logging.go: zerolog setup
//   - relaunch_*.go: restarting the process after an interactive install
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml
//	       ├─────> prefs.Load()         Read prefs.toml
//	       ├─────> newAgent()           Wire controller, poller, updater
//	       ├─────> loop.Run()           Owner goroutine
//	       └─────> ui.NewProgram().Run() Start TUI (blocks)
//
//	Owner loop:
//	┌─────────────────────────────────────────┐
//	│ playback.Controller  ──> store.SetPlayback
//	│ liveinfo.Poller      ──> store.UpdateMetadata
//	│ update.Manager       ──> store.SetUpdate
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Termination
//
// Quitting from the UI, a SIGINT or SIGTERM, or the UI exiting on its own all
// go through the update manager's ShouldTerminate. When a deferred update is
// pending it is installed first and the process exits once the install
// finishes. Run returns Result.Relaunch after an "install now" so the caller
// can exec the new binary.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Log file cannot be opened
//   - Live info or release feed URL invalid
//
// Recoverable errors (logged and shown as a notice):
//   - Stream open and playback failures
//   - Live info fetch failures
//   - Update check, download and install failures
//   - Preference save failures
package app
