// Package buffer provides the text storage a live-template session edits.
//
// A Document holds the text and a set of Markers. A Marker is a range that
// follows the text it covers as the document changes: edits before it shift
// it, edits inside it grow or shrink it, and an edit that swallows it whole
// invalidates it. Each side of a Marker is either greedy or not, which decides
// whether an insertion exactly at that boundary lands inside the range.
//
// # Offsets
//
// All positions are byte offsets into the UTF-8 text. Ranges are half-open:
// [Start, End).
//
// # Edits
//
// Insert, Delete and Replace apply one edit. ApplyEdits applies a batch that
// must be sorted from the highest offset down so that each edit leaves the
// offsets of the remaining ones intact.
//
// # Listeners
//
// ChangeListeners observe every edit. BeforeChange runs before the text and
// markers move, AfterChange after. Listeners run without the document lock
// held, so they may read the document.
//
// # Thread Safety
//
// Document methods are safe for concurrent use. Listeners are invoked on the
// goroutine that performed the edit.
package buffer
