// Package config loads the Livra client configuration.
//
// # Discovery
//
// Load resolves its file in this order:
//
//  1. The path passed in (the -config flag)
//  2. ~/.config/livra/config.toml
//
// A missing file is not an error; every field then takes its default. Blank
// fields in an existing file also use defaults. A file that exists but does
// not parse is an error.
//
// # Fields
//
//	backend_url = "http://127.0.0.1:8000"          # base URL, may carry a path prefix
//	state_path  = "~/.config/livra/state.toml"     # credential and UI preferences
//	log_file    = "~/.local/state/livra/livra.log" # the TUI owns the terminal
//	log_level   = "info"                           # debug, info, warn, error
//	log_format  = "text"                           # text or json
//
// Paths beginning with ~ are expanded against the home directory and made
// absolute.
//
// # Environment
//
// LIVRA_BACKEND_URL, when non-blank, replaces backend_url. The -backend
// flag in turn wins over both.
package config
