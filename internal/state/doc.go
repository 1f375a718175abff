// Package state holds the post list and the shown post for the Livra UI.
//
// # Overview
//
// Search results arrive from the query controller and post bodies from
// direct fetches; both run off the UI goroutine as commands. The Store is
// where their results meet the renderer:
//
//	query.Controller ──Result──→ store.Update / store.Clear
//	FetchPost        ──(seq)───→ store.FinishLoad
//	editor save      ──Post────→ store.Prepend
//	                               │
//	                               ↓
//	                        store.Snapshot() → render
//
// # Update Semantics
//
// A failed list refresh keeps the previous posts and pagination and only
// records the error:
//
//	store.Update(page, nil)  → posts, page, totalPages replaced
//	store.Update(nil, err)   → posts unchanged, LastError = err
//
// ConsecutiveFailures counts failed refreshes so the header can show the
// backend as offline.
//
// # Post Loads
//
// Every selection calls BeginLoad, which returns a sequence number. Only
// the result carrying the latest number is applied by FinishLoad, so a slow
// response for an earlier selection can never replace a newer one. A
// failed load leaves the shown post in place.
//
// # Copying
//
// Snapshot returns copies of the post slice and error so the renderer can
// hold on to a snapshot while commands keep updating the store. The zero
// Store is ready to use.
package state
