// Package engine provides the editor that live templates expand into.
//
// The engine combines a document, a single caret with a selection, and
// command-based undo. It implements session.Host.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - buffer: Document text, line queries and self-adjusting markers
//   - cursor: Caret and selection values, mapped through edits
//   - history: Command-based undo/redo with grouping and undo hooks
//
// # Commands
//
// Every editing operation runs as a named command. Listeners registered
// with AddCommandListener see the command start, each tracked edit before
// it is applied, and the command finish. All edits of one command undo
// together:
//
//	e := engine.New(engine.WithText("hello"))
//	e.MoveCaret(5)
//	e.Type(" world") // "hello world", caret at 11
//	e.Undo()         // "hello"
//
// Composite operations group edits explicitly:
//
//	e.RunCommand("Wrap", func() error {
//	    if err := e.Replace(0, 0, "("); err != nil {
//	        return err
//	    }
//	    return e.Replace(e.Len(), e.Len(), ")")
//	})
//
// # Untracked Edits
//
// ApplyUntracked changes the document with no history entry and no
// command notifications. Markers and the selection still follow the edit.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. The document it wraps is, but
// the caret, command state and listeners are owned by one goroutine.
//
// # Error Handling
//
// The package re-exports the errors of its sub-packages:
//
//   - ErrOffsetOutOfRange: Invalid byte offset
//   - ErrRangeInvalid: Invalid range (e.g., end < start)
//   - ErrNothingToUndo: Undo stack is empty
//   - ErrNothingToRedo: Redo stack is empty
package engine
