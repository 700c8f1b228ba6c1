// Package cursor provides the caret and selection model of the engine.
//
// A Selection uses an anchor/head pair. Head is the caret, where typing
// happens; Anchor is the other end. Anchor == Head is a bare caret.
//
// Selections are values. When the document changes, the owner maps them
// through the edit with TransformSelection:
//
//	sel := cursor.NewSelection(4, 9)
//	sel = cursor.TransformSelection(sel, buffer.NewInsert(0, "ab"))
//	// sel is now 6..11
package cursor
