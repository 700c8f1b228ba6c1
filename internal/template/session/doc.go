// Package session runs live-template expansions.
//
// A Session inserts a template into a host document, creates one segment
// per $NAME$ marker, evaluates the variables and then waits at the first
// tab stop. The caller drives it with NextTab, PreviousTab, GotoEnd and
// Cancel, or by editing the document: edits made with the caret inside the
// current segment recompute the dependent variables, edits outside it
// cancel the expansion.
//
// # Lifecycle
//
//	Start -> Active(variable) -> Finished
//	                          -> Cancelled
//
// Finished and Cancelled are terminal. A template with no tab stop
// finishes inside Start.
//
// # Recompute
//
// Every variable after the current one is re-evaluated in order. An empty
// result falls back to the variable's default, unless the segment touches
// the current one. Every other segment is then synced to the value of its
// variable, so repeated names always show the same text. Passes repeat
// until nothing changes, bounded by (variables+1)*RetryFactor.
//
// # Host
//
// The host is the document and editor the session runs against. All edits
// are made inside host commands, and the session registers an undo hook so
// that undoing the insertion cancels it. A Session is not safe for
// concurrent use; drive it from the goroutine that owns the host.
package session
