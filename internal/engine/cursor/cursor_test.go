package cursor

import (
	"testing"

	"github.com/dshills/tabstop/internal/engine/buffer"
)

func TestSelectionBounds(t *testing.T) {
	sel := NewSelection(9, 4)
	if sel.Start() != 4 || sel.End() != 9 {
		t.Errorf("bounds = %d..%d, want 4..9", sel.Start(), sel.End())
	}
	if sel.IsEmpty() {
		t.Error("backward selection reported empty")
	}
	if got := sel.Range(); got != buffer.NewRange(4, 9) {
		t.Errorf("Range() = %s, want [4:9)", got)
	}
	if got := sel.Clamp(6); got != NewSelection(6, 4) {
		t.Errorf("Clamp(6) = %s", got)
	}
	if got := sel.MoveTo(2); !got.IsEmpty() || got.Head != 2 {
		t.Errorf("MoveTo(2) = %s", got)
	}
}

func TestTransformOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset ByteOffset
		edit   buffer.Edit
		want   ByteOffset
	}{
		{"insert before", 5, buffer.NewInsert(2, "xx"), 7},
		{"insert at", 5, buffer.NewInsert(5, "xx"), 7},
		{"insert after", 5, buffer.NewInsert(8, "xx"), 5},
		{"delete before", 5, buffer.NewDelete(0, 2), 3},
		{"delete spanning", 5, buffer.NewDelete(3, 8), 3},
		{"replace spanning", 5, buffer.NewReplace(3, 8, "abcd"), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformOffset(tt.offset, tt.edit); got != tt.want {
				t.Errorf("TransformOffset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTransformOffsetSticky(t *testing.T) {
	edit := buffer.NewInsert(5, "abc")
	if got := TransformOffsetSticky(5, edit, true); got != 5 {
		t.Errorf("sticky = %d, want 5", got)
	}
	if got := TransformOffsetSticky(5, edit, false); got != 8 {
		t.Errorf("non-sticky = %d, want 8", got)
	}
}

func TestTransformSelection(t *testing.T) {
	sel := NewSelection(4, 9)
	got := TransformSelection(sel, buffer.NewInsert(0, "ab"))
	if got != NewSelection(6, 11) {
		t.Errorf("got %s, want Selection(6->11)", got)
	}

	caret := NewCursorSelection(3)
	got = TransformSelection(caret, buffer.NewInsert(3, "zz"))
	if got != caret {
		t.Errorf("caret moved to %s on insertion at the caret", got)
	}
}
