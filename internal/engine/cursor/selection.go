package cursor

import (
	"fmt"

	"github.com/dshills/tabstop/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range.
type Range = buffer.Range

// Selection is a selected span with a direction.
type Selection struct {
	Anchor ByteOffset // Where selection started
	Head   ByteOffset // Caret position
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// NewCursorSelection creates a bare caret at offset.
func NewCursorSelection(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// IsEmpty returns true if the selection is a bare caret.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() ByteOffset {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() ByteOffset {
	return max(s.Anchor, s.Head)
}

// Range returns the selection as an ordered range.
func (s Selection) Range() Range {
	return Range{Start: s.Start(), End: s.End()}
}

// MoveTo returns a bare caret at offset.
func (s Selection) MoveTo(offset ByteOffset) Selection {
	return NewCursorSelection(offset)
}

// Clamp limits both ends to [0, maxOffset].
func (s Selection) Clamp(maxOffset ByteOffset) Selection {
	clamp := func(v ByteOffset) ByteOffset {
		return min(max(v, 0), maxOffset)
	}
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
