package session

import (
	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/expr"
	"github.com/dshills/tabstop/internal/template/segment"
)

// Command names the session gives meaning to. A delete at the left edge of
// the current segment with Backspace, or at its right edge with Delete,
// leaves the segment.
const (
	CommandBackspace = "Backspace"
	CommandDelete    = "Delete"
)

// Document is the text a session expands into.
type Document interface {
	Text() string
	TextRange(start, end int) string
	Len() int
	Replace(start, end int, text string) error
	LineOfOffset(offset int) int
	LineStartOffset(line int) int
	LineEndOffset(line int) int
	CreateMarker(start, end int) segment.Marker
}

// Editor is the caret and selection over a Document.
type Editor interface {
	Caret() int
	MoveCaret(offset int)
	// Selection returns the selected range; ok is false for a bare caret.
	Selection() (start, end int, ok bool)
	// SetSelection selects [start, end) with the caret at end.
	SetSelection(start, end int)
	ClearSelection()
}

// CommandListener observes host commands.
type CommandListener interface {
	CommandStarted(name string)
	// DocumentChanging is called before each edit applied inside a command.
	DocumentChanging()
	BeforeCommandFinished(name string)
}

// Host is a document with an editor, scoped commands and undo.
type Host interface {
	Document
	Editor

	// RunCommand runs fn as one command. Nested calls join the enclosing
	// command.
	RunCommand(name string, fn func() error) error
	AddCommandListener(l CommandListener) (remove func())
	// InUndoRedo reports whether an undo or redo is being applied.
	InUndoRedo() bool
	// RegisterUndoHook records onUndo in the current command, to be called
	// when that command is undone.
	RegisterUndoHook(name string, onUndo func())
}

// SyntaxModel gives expressions access to the host's parse of the document.
type SyntaxModel interface {
	// Commit brings the model up to date with the document.
	Commit()
	ElementAt(offset int) (expr.Element, bool)
}

// Formatter reformats document text.
type Formatter interface {
	Reformat(start, end int) error
	// AdjustLineIndent indents the line holding offset and returns the
	// offset of its first non-blank position.
	AdjustLineIndent(offset int) int
}

// ChoiceSurface presents candidate values for the current variable. The
// chosen value comes back through Session.SelectChoice.
type ChoiceSurface interface {
	Offer(s *Session, candidates []expr.Candidate)
	Hide()
}

// Preprocessor runs before a template is inserted and returns the offset
// to insert at.
type Preprocessor interface {
	Preprocess(host Host, offset int, tpl *definition.Template) int
}

// Processor runs over the expanded text whenever the session reformats.
type Processor interface {
	Process(host Host, tpl *definition.Template, start, end int) error
}

// ValueProcessor is called with the current variable's value before each
// recompute. Returning false finishes the template.
type ValueProcessor func(name, value string) bool
