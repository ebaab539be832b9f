// Package app is the composition root of the Palimpseste reader.
//
// # Overview
//
// This package assembles the single Store and the single Bus, connects them to
// storage, the session provider and the terminal environment, and hands the
// result to the UI. Nothing here holds domain rules of its own: reducers live
// in state, events in eventbus, texts in library. The package decides the
// order in which these pieces start and how they talk to each other.
//
// # Assembly
//
// Assemble builds a Runtime from a config.Config without starting anything:
//
//  1. Open the storage backend named by cfg.Storage (file, sqlite or memory)
//  2. Wrap it in a persist.Adapter when cfg.Persist is set
//  3. Build the Store, restoring the palimpseste_state snapshot
//  4. Apply the configured theme over the restored one
//  5. Build the Bus, the Environment and the module Registry
//  6. Build an HTTP session SDK when supabase_url and supabase_key are set
//  7. Create the Bootstrap over all of the above
//
// Run does the same from a config path, configures file logging for the TUI
// and blocks in ui.Run until the user quits or the context is cancelled.
//
// # Bootstrap Phases
//
// Bootstrap.Init runs four phases in order. Each phase completes, or records
// its failure, before the next one begins:
//
//  1. Core check: the Store and the Bus must be present. A missing one is
//     fatal: OnFatal is called and Result.Ready is false.
//  2. Session: poll SDK.Available every SessionPoll until SessionTimeout,
//     build the client, subscribe to its auth transitions and query the
//     current session once. An existing session dispatches AUTH_LOGIN; no
//     session signs out a login restored from the snapshot. Timeouts and
//     provider errors land in Result.SessionErr and startup continues.
//  3. Modules: every registered Module runs by descending priority. Errors
//     and panics become ModuleFailure entries; the remaining modules still
//     run.
//  4. Wiring: Wire installs the Store/Bus sync, the Environment starts its
//     watchers and app:initialized is emitted.
//
// Init runs at most once. Concurrent and later calls block on the first run
// and get the same Result. Close removes every subscription the phases
// installed, newest first.
//
// # Data Flow
//
//	┌──────────────┐
//	│  Bootstrap   │
//	└──────┬───────┘
//	       │
//	       ├─────> session.Client    auth transitions ──> AUTH_LOGIN / AUTH_LOGOUT
//	       ├─────> Module.Init       library, gamification
//	       └─────> Wire              Store <──> Bus
//
//	Store to Bus (selector subscriptions, fire on change only):
//	  isAuthenticated, user  ──> auth:changed
//	  ui.theme               ──> ui:theme-changed
//	  ui.loading             ──> ui:loading
//	  new achievement        ──> gamification:achievement
//
//	Bus to Store (dispatch):
//	  extrait:like    ──> LIKE_ADD
//	  extrait:unlike  ──> LIKE_REMOVE
//	  extrait:read    ──> READ_INCREMENT
//
// # Environment
//
// Environment turns process-level signals into bus events. Terminal focus
// and blur map to app:foreground and app:background. A Prober polled on a
// ticker maps to network:online and network:offline; only transitions are
// emitted and the first healthy observation is the baseline. Goroutines
// started through Environment.Go that fail or panic are reported as
// error:unhandled.
//
// # Modules
//
//   - LibraryModule: loads the anthology and the optional feed, toggles
//     ui.loading around the load and emits feed:loaded
//   - GamificationModule: watches reading counters and unlocks milestones
//     with a success toast
//
// # Error Handling
//
// Fatal (Result.Ready false, Run returns the error):
//   - Missing Store or Bus
//   - Config or storage that cannot be opened
//
// Recovered and logged:
//   - Session provider unavailable or failing
//   - Module init errors and panics
//   - Listener and subscriber panics
//
// # Usage Example
//
//	rt, err := app.Assemble(ctx, cfg, app.Options{})
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	if err := rt.Boot(ctx); err != nil {
//		return err
//	}
//	rt.Bus.Emit(ctx, eventbus.ExtraitRead, "rimbaud-sensation")
package app
