// Package app is the composition root of the Livra client.
//
// Open loads the configuration, opens the log file, resolves the state file
// and restores the stored session. Run builds on it: it creates the shared
// state.Store and the debounced query controller, routes failed searches
// into the store so the header can show the backend as offline, and starts
// the TUI. Login, Logout and WhoAmI serve the CLI subcommands with the same
// wiring.
//
// # Data Flow
//
//	Run()
//	 ├─> config.Load()        config.toml + LIVRA_BACKEND_URL
//	 ├─> logging.OpenFile()   slog to the log file
//	 ├─> storage.Open()       state.toml (token, theme)
//	 ├─> session.Restore()    credential -> user
//	 ├─> query.New()          debounced /posts searches
//	 └─> ui.Run()             Bubble Tea program (blocks)
//
// # Error Handling
//
// Unreadable configuration, an unusable log or state path and an invalid
// backend URL are fatal. A stored credential that no longer decodes is not:
// the session starts signed out and the credential is removed.
package app
