// Package ui is the Bubble Tea front end of the Livra client.
//
// # Layout
//
// The posts view is a header, a command bar and two panes: a sidebar with
// the search box, the post list and the pagination strip, and a content
// pane showing the selected post rendered as Markdown. The log view
// replaces both panes with a tail of the client's own log file.
//
// # Event Flow
//
//  1. Typing in the search box or toggling the mode submits a request to
//     query.Controller, which debounces it and runs one list call at a time.
//  2. waitForResult turns each delivered page into a queryResultMsg, which
//     replaces the list in state.Store.
//  3. Opening a post starts a sequenced load; only the latest load may
//     replace the content pane.
//  4. The editor modal drives an editor.Controller; saving sends the draft
//     through livra.Backend and prepends the new post on success.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context: ctx,
//		Backend: client,
//		Session: sess,
//		Queries: queries,
//		Store:   store,
//		LogPath: cfg.LogFile,
//	})
//
// # Key Bindings
//
//   - /: Search posts
//   - m: Toggle between the user's notes and everyone's notes
//   - enter: Open the selected post
//   - [ and ]: Focus the previous or next code block, y copies it
//   - n: New post (ctrl+s saves, alt+1..8 format, ctrl+t picks tags)
//   - L and X: Sign in and sign out
//   - l: Client log view (Space toggles follow)
//   - T: Cycle theme
//   - q or Ctrl+C: Exit
package ui
