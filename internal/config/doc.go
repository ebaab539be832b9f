// Package config loads the Palimpseste client configuration.
//
// # Overview
//
// The reader works without any configuration: texts come from the embedded
// anthology, state is kept under the default state directory and sessions
// are simply disabled. A config file and environment variables add the
// session provider, a remote feed and storage choices.
//
// # Resolution Order
//
// Load builds the configuration in three layers:
//
//  1. Built-in defaults (Default)
//  2. The TOML file at the given path, or ~/.config/palimpseste/config.toml;
//     a missing file is not an error, empty fields keep their default
//  3. PALIMPSESTE_* environment variables, which win over the file
//
// # Default Values
//
//   - Config file: ~/.config/palimpseste/config.toml
//   - State directory: ~/.local/share/palimpseste
//   - Storage: file
//   - Persist: true
//   - Session timeout: 5s, session poll: 100ms
//   - Connectivity poll: 30s
//   - Log file: <state_dir>/palimpseste.log
//
// # TOML Format
//
// Example config.toml:
//
//	supabase_url = "https://xyz.supabase.co"
//	supabase_key = "public-anon-key"
//	state_dir = "~/.local/share/palimpseste"
//	storage = "sqlite"
//	persist = true
//	theme = "Kanagawa"
//	session_timeout_ms = 5000
//	session_poll_ms = 100
//	connectivity_poll_ms = 30000
//	feed_url = "https://example.org/textes.json"
//
// Every field is optional. persist is a pointer in the file mapping so that
// an explicit false is told apart from an absent key.
//
// # Environment Overrides
//
// Parsed with caarlos0/env after the file:
//
//   - PALIMPSESTE_SUPABASE_URL
//   - PALIMPSESTE_SUPABASE_KEY
//   - PALIMPSESTE_STATE_DIR
//   - PALIMPSESTE_STORAGE
//   - PALIMPSESTE_FEED_URL
//
// Empty variables are ignored. Logging has its own variables, see the
// logging package.
//
// # Path Expansion
//
// The config path and state_dir accept a leading tilde and are made
// absolute. LogPath and the storage backends derive their paths from the
// expanded state directory.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (no home directory)
//   - File read errors other than os.ErrNotExist
//   - Invalid TOML, reported as "parse config"
//   - A storage value other than file, sqlite or memory
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//	if cfg.SessionConfigured() {
//		// build the session SDK
//	}
//	logPath := cfg.LogPath()
//
// # Testing Considerations
//
// Tests pass an explicit path under t.TempDir and set PALIMPSESTE_* with
// t.Setenv so the user's home directory is never read.
package config
