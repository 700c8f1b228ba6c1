package engine

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dshills/tabstop/internal/engine/buffer"
	"github.com/dshills/tabstop/internal/engine/cursor"
	"github.com/dshills/tabstop/internal/engine/history"
	"github.com/dshills/tabstop/internal/template/segment"
	"github.com/dshills/tabstop/internal/template/session"
)

// Re-export commonly used types for convenience.
type (
	// ByteOffset is a byte position in the document.
	ByteOffset = buffer.ByteOffset

	// Range represents a byte range in the document.
	Range = buffer.Range

	// Selection represents the caret and selection.
	Selection = cursor.Selection
)

// Command names of the editing operations.
const (
	CommandType    = "Type"
	CommandInsert  = "Insert"
	CommandReplace = "Replace"
	CommandUndo    = "Undo"
	CommandRedo    = "Redo"
)

// Engine is a single-caret text editor over a buffer.Document. It is the
// host live templates expand into: edits run as named commands, each
// command is one undo unit, and command listeners see every command start,
// every tracked edit, and every command finish.
//
// An Engine is not safe for concurrent use. Listeners are called
// synchronously and may call back into the engine.
type Engine struct {
	doc     *buffer.Document
	history *history.History
	sel     cursor.Selection
	log     *slog.Logger

	listeners      map[int]session.CommandListener
	listenerOrder  []int
	nextListenerID int

	commandDepth int
	inUndoRedo   bool
	untracked    bool

	removeDocListener func()
}

var _ session.Host = (*Engine)(nil)

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{
		doc:       buffer.NewDocumentFromString(cfg.text),
		history:   history.NewHistory(cfg.historyLimit),
		log:       cfg.logger,
		listeners: make(map[int]session.CommandListener),
	}
	e.removeDocListener = e.doc.OnChange(docObserver{e})
	return e
}

// Close detaches the engine from its document.
func (e *Engine) Close() {
	if e.removeDocListener != nil {
		e.removeDocListener()
		e.removeDocListener = nil
	}
}

// Document returns the underlying document.
func (e *Engine) Document() *buffer.Document { return e.doc }

// ============================================================================
// Read Operations
// ============================================================================

func (e *Engine) Text() string { return e.doc.Text() }
func (e *Engine) TextRange(start, end int) string { return e.doc.TextRange(start, end) }
func (e *Engine) Len() int { return e.doc.Len() }
func (e *Engine) LineCount() int { return e.doc.LineCount() }
func (e *Engine) LineOfOffset(offset int) int { return e.doc.LineOfOffset(offset) }
func (e *Engine) LineStartOffset(line int) int { return e.doc.LineStartOffset(line) }
func (e *Engine) LineEndOffset(line int) int { return e.doc.LineEndOffset(line) }

// CreateMarker creates a live range in the document.
func (e *Engine) CreateMarker(start, end int) segment.Marker {
	return e.doc.CreateMarker(start, end)
}

// ============================================================================
// Caret and Selection
// ============================================================================

// Caret returns the caret offset.
func (e *Engine) Caret() int { return e.sel.Head }

// MoveCaret places a bare caret at offset, clamped to the document.
func (e *Engine) MoveCaret(offset int) {
	e.sel = cursor.NewCursorSelection(offset).Clamp(e.doc.Len())
}

// Selection returns the selected range. ok is false for a bare caret.
func (e *Engine) Selection() (start, end int, ok bool) {
	r := e.sel.Range()
	return r.Start, r.End, !r.IsEmpty()
}

// SetSelection selects [start, end) with the caret at end.
func (e *Engine) SetSelection(start, end int) {
	e.sel = cursor.NewSelection(start, end).Clamp(e.doc.Len())
}

// ClearSelection collapses the selection to the caret.
func (e *Engine) ClearSelection() {
	e.sel = e.sel.MoveTo(e.sel.Head)
}

// SelectedText returns the selected text.
func (e *Engine) SelectedText() string {
	r := e.sel.Range()
	return e.doc.TextRange(r.Start, r.End)
}

// ============================================================================
// Commands
// ============================================================================

// RunCommand runs fn as one named command. Every edit fn makes becomes a
// single undo unit. Nested calls join the enclosing command.
func (e *Engine) RunCommand(name string, fn func() error) error {
	e.commandDepth++
	defer func() { e.commandDepth-- }()
	if e.commandDepth > 1 {
		return fn()
	}

	defer e.history.GroupScope(name).End()

	for _, l := range e.listenerSnapshot() {
		l.CommandStarted(name)
	}
	err := fn()
	for _, l := range e.listenerSnapshot() {
		l.BeforeCommandFinished(name)
	}
	if err != nil {
		e.log.Debug("command failed", "command", name, "error", err)
	}
	return err
}

// AddCommandListener registers l and returns a function that removes it.
func (e *Engine) AddCommandListener(l session.CommandListener) (remove func()) {
	id := e.nextListenerID
	e.nextListenerID++
	e.listeners[id] = l
	e.listenerOrder = append(e.listenerOrder, id)

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		delete(e.listeners, id)
		for i, v := range e.listenerOrder {
			if v == id {
				e.listenerOrder = append(e.listenerOrder[:i], e.listenerOrder[i+1:]...)
				break
			}
		}
	}
}

func (e *Engine) listenerSnapshot() []session.CommandListener {
	out := make([]session.CommandListener, 0, len(e.listenerOrder))
	for _, id := range e.listenerOrder {
		out = append(out, e.listeners[id])
	}
	return out
}

// InUndoRedo reports whether an undo or redo is being applied.
func (e *Engine) InUndoRedo() bool { return e.inUndoRedo }

// RegisterUndoHook records onUndo in the current command. It runs when
// that command is undone.
func (e *Engine) RegisterUndoHook(name string, onUndo func()) {
	e.history.Push(&history.HookCommand{Name: name, OnUndo: onUndo})
}

// Replace replaces [start, end) with text. Outside a command the edit is
// its own undo unit.
func (e *Engine) Replace(start, end int, text string) error {
	if _, err := e.doc.Replace(start, end, text); err != nil {
		return fmt.Errorf("replace [%d:%d): %w", start, end, err)
	}
	return nil
}

// Type replaces the selection, or inserts at the caret, and leaves the
// caret after text.
func (e *Engine) Type(text string) error {
	return e.RunCommand(CommandType, func() error {
		r := e.sel.Range()
		if err := e.Replace(r.Start, r.End, text); err != nil {
			return err
		}
		e.sel = cursor.NewCursorSelection(r.Start + len(text))
		return nil
	})
}

// Backspace deletes the selection or the rune before the caret.
func (e *Engine) Backspace() error {
	return e.RunCommand(session.CommandBackspace, func() error {
		r := e.sel.Range()
		if r.IsEmpty() {
			if r.Start == 0 {
				return nil
			}
			_, size := utf8.DecodeLastRuneInString(e.doc.TextRange(0, r.Start))
			r.Start -= size
		}
		return e.Replace(r.Start, r.End, "")
	})
}

// Delete deletes the selection or the rune after the caret.
func (e *Engine) Delete() error {
	return e.RunCommand(session.CommandDelete, func() error {
		r := e.sel.Range()
		if r.IsEmpty() {
			if r.End >= e.doc.Len() {
				return nil
			}
			_, size := utf8.DecodeRuneInString(e.doc.TextRange(r.End, e.doc.Len()))
			r.End += size
		}
		return e.Replace(r.Start, r.End, "")
	})
}

// InsertAt inserts text at offset as a command, without moving the caret
// past it.
func (e *Engine) InsertAt(offset int, text string) error {
	return e.RunCommand(CommandInsert, func() error {
		return e.Replace(offset, offset, text)
	})
}

// ReplaceRange replaces [start, end) as a command.
func (e *Engine) ReplaceRange(start, end int, text string) error {
	return e.RunCommand(CommandReplace, func() error {
		return e.Replace(start, end, text)
	})
}

// ApplyUntracked edits the document without recording history or
// notifying command listeners, as an external reload would.
func (e *Engine) ApplyUntracked(start, end int, text string) error {
	e.untracked = true
	defer func() { e.untracked = false }()
	return e.Replace(start, end, text)
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo reverts the last command.
func (e *Engine) Undo() error {
	e.inUndoRedo = true
	defer func() { e.inUndoRedo = false }()
	return e.RunCommand(CommandUndo, func() error {
		return e.history.Undo(e.doc)
	})
}

// Redo reapplies the last undone command.
func (e *Engine) Redo() error {
	e.inUndoRedo = true
	defer func() { e.inUndoRedo = false }()
	return e.RunCommand(CommandRedo, func() error {
		return e.history.Redo(e.doc)
	})
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// ============================================================================
// Document Observer
// ============================================================================

// docObserver keeps the selection and history in step with the document.
type docObserver struct {
	e *Engine
}

func (o docObserver) BeforeChange(buffer.Edit) {
	e := o.e
	if e.untracked || e.commandDepth == 0 {
		return
	}
	for _, l := range e.listenerSnapshot() {
		l.DocumentChanging()
	}
}

func (o docObserver) AfterChange(c buffer.Change) {
	e := o.e
	e.sel = cursor.TransformSelection(e.sel, c.Edit())
	if e.untracked || e.inUndoRedo {
		return
	}
	e.history.Push(history.NewChangeCommand("", c))
}
