package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recorder logs command notifications.
type recorder struct {
	events []string
}

func (r *recorder) CommandStarted(name string) { r.events = append(r.events, "start:"+name) }
func (r *recorder) DocumentChanging() { r.events = append(r.events, "change") }
func (r *recorder) BeforeCommandFinished(name string) { r.events = append(r.events, "finish:"+name) }

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e := New()
	if e.Len() != 0 {
		t.Errorf("expected empty engine, got len %d", e.Len())
	}
	if e.Caret() != 0 {
		t.Errorf("expected caret at 0, got %d", e.Caret())
	}
}

func TestNewWithText(t *testing.T) {
	e := New(WithText("Hello, World!"))
	if got := e.Text(); got != "Hello, World!" {
		t.Errorf("expected %q, got %q", "Hello, World!", got)
	}
	if got := e.TextRange(7, 12); got != "World" {
		t.Errorf("TextRange(7, 12) = %q", got)
	}
}

func TestReplaceOutOfRange(t *testing.T) {
	e := New(WithText("Hello"))
	if err := e.Replace(3, 100, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestLineOperations(t *testing.T) {
	e := New(WithText("one\ntwo\n\nfour"))
	if got := e.LineCount(); got != 4 {
		t.Errorf("LineCount() = %d, want 4", got)
	}
	if got := e.LineOfOffset(5); got != 1 {
		t.Errorf("LineOfOffset(5) = %d, want 1", got)
	}
	if got, want := e.LineStartOffset(1), 4; got != want {
		t.Errorf("LineStartOffset(1) = %d, want %d", got, want)
	}
	if got, want := e.LineEndOffset(1), 7; got != want {
		t.Errorf("LineEndOffset(1) = %d, want %d", got, want)
	}
}

// ============================================================================
// Caret and Selection
// ============================================================================

func TestTypeMovesCaret(t *testing.T) {
	e := New(WithText("ac"))
	e.MoveCaret(1)
	if err := e.Type("b"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if got := e.Text(); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
	if got := e.Caret(); got != 2 {
		t.Errorf("caret = %d, want 2", got)
	}
}

func TestTypeReplacesSelection(t *testing.T) {
	e := New(WithText("hello world"))
	e.SetSelection(6, 11)
	if got := e.SelectedText(); got != "world" {
		t.Fatalf("SelectedText() = %q", got)
	}
	if err := e.Type("there"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if got := e.Text(); got != "hello there" {
		t.Errorf("expected %q, got %q", "hello there", got)
	}
	if _, _, ok := e.Selection(); ok {
		t.Error("selection survived typing")
	}
}

func TestSelectionFollowsEdits(t *testing.T) {
	e := New(WithText("abcdef"))
	e.SetSelection(2, 4)
	if err := e.InsertAt(0, "xx"); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	start, end, ok := e.Selection()
	if !ok || start != 4 || end != 6 {
		t.Errorf("Selection() = %d, %d, %v, want 4, 6, true", start, end, ok)
	}
	e.ClearSelection()
	if got := e.Caret(); got != 6 {
		t.Errorf("caret after ClearSelection = %d, want 6", got)
	}
}

func TestMoveCaretClamps(t *testing.T) {
	e := New(WithText("abc"))
	e.MoveCaret(10)
	if got := e.Caret(); got != 3 {
		t.Errorf("caret = %d, want 3", got)
	}
	e.MoveCaret(-1)
	if got := e.Caret(); got != 0 {
		t.Errorf("caret = %d, want 0", got)
	}
}

func TestBackspaceAndDelete(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		caret    int
		backward bool
		want     string
		caretOut int
	}{
		{"backspace", "abc", 2, true, "ac", 1},
		{"backspace at start", "abc", 0, true, "abc", 0},
		{"backspace multibyte", "aé", 3, true, "a", 1},
		{"delete", "abc", 1, false, "ac", 1},
		{"delete at end", "abc", 3, false, "abc", 3},
		{"delete multibyte", "éa", 0, false, "a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithText(tt.text))
			e.MoveCaret(tt.caret)
			var err error
			if tt.backward {
				err = e.Backspace()
			} else {
				err = e.Delete()
			}
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			if got := e.Text(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if got := e.Caret(); got != tt.caretOut {
				t.Errorf("caret = %d, want %d", got, tt.caretOut)
			}
		})
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestCommandNotifications(t *testing.T) {
	e := New(WithText("ab"))
	rec := &recorder{}
	remove := e.AddCommandListener(rec)

	err := e.RunCommand("Outer", func() error {
		if err := e.Replace(0, 0, "x"); err != nil {
			return err
		}
		return e.RunCommand("Inner", func() error {
			return e.Replace(0, 0, "y")
		})
	})
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	want := []string{"start:Outer", "change", "change", "finish:Outer"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	remove()
	remove()
	rec.events = nil
	if err := e.Type("z"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("removed listener received %v", rec.events)
	}
}

func TestCommandErrorPropagates(t *testing.T) {
	e := New()
	boom := errors.New("boom")
	if err := e.RunCommand("Fail", func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("RunCommand() = %v, want %v", err, boom)
	}
}

func TestCommandIsOneUndoUnit(t *testing.T) {
	e := New(WithText("ab"))
	err := e.RunCommand("Wrap", func() error {
		if err := e.Replace(0, 0, "("); err != nil {
			return err
		}
		return e.Replace(e.Len(), e.Len(), ")")
	})
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if got := e.Text(); got != "(ab)" {
		t.Fatalf("expected %q, got %q", "(ab)", got)
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := e.Text(); got != "ab" {
		t.Errorf("after undo expected %q, got %q", "ab", got)
	}
	if err := e.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := e.Text(); got != "(ab)" {
		t.Errorf("after redo expected %q, got %q", "(ab)", got)
	}
}

// ============================================================================
// Undo/Redo
// ============================================================================

func TestUndoRedo(t *testing.T) {
	e := New()
	if err := e.Type("Hello"); err != nil {
		t.Fatal(err)
	}
	if err := e.Type(" World"); err != nil {
		t.Fatal(err)
	}

	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := e.Text(); got != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}
	if !e.CanRedo() {
		t.Error("CanRedo() = false after undo")
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if err := e.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := e.Text(); got != "Hello" {
		t.Errorf("after redo expected %q, got %q", "Hello", got)
	}
}

func TestUndoHook(t *testing.T) {
	e := New()
	undone := 0
	err := e.RunCommand("Insert", func() error {
		e.RegisterUndoHook("hook", func() {
			if !e.InUndoRedo() {
				t.Error("hook ran outside undo")
			}
			undone++
		})
		return e.Replace(0, 0, "text")
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone != 1 {
		t.Errorf("hook called %d times, want 1", undone)
	}
	if e.InUndoRedo() {
		t.Error("InUndoRedo() = true after undo")
	}
}

func TestUndoDoesNotNotifyChanges(t *testing.T) {
	e := New()
	if err := e.Type("x"); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	e.AddCommandListener(rec)
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	// The document listener still reports the edit; InUndoRedo tells
	// listeners to ignore it.
	want := []string{"start:Undo", "change", "finish:Undo"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyUntracked(t *testing.T) {
	e := New(WithText("abc"))
	rec := &recorder{}
	e.AddCommandListener(rec)
	m := e.CreateMarker(1, 2)

	if err := e.ApplyUntracked(0, 0, "__"); err != nil {
		t.Fatalf("ApplyUntracked: %v", err)
	}
	if got := e.Text(); got != "__abc" {
		t.Errorf("expected %q, got %q", "__abc", got)
	}
	if m.Start() != 3 || m.End() != 4 {
		t.Errorf("marker = [%d, %d), want [3, 4)", m.Start(), m.End())
	}
	if e.CanUndo() {
		t.Error("untracked edit reached history")
	}
	if len(rec.events) != 0 {
		t.Errorf("untracked edit notified %v", rec.events)
	}
}

func TestCloseDetaches(t *testing.T) {
	e := New(WithText("abc"))
	e.Close()
	e.Close()
	if _, err := e.Document().Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	if e.CanUndo() {
		t.Error("closed engine recorded an edit")
	}
}
