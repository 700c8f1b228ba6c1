package cursor

import "github.com/dshills/tabstop/internal/engine/buffer"

// TransformOffset maps an offset through an applied edit.
//
//   - edit entirely before offset: shift by the edit's delta
//   - edit starting at or after offset: unchanged
//   - edit spanning offset: move to the end of the new text
func TransformOffset(offset ByteOffset, edit buffer.Edit) ByteOffset {
	if edit.Range.End <= offset {
		return offset + edit.Delta()
	}
	if edit.Range.Start >= offset {
		return offset
	}
	return edit.Range.Start + len(edit.NewText)
}

// TransformOffsetSticky is TransformOffset with a choice for an insertion
// exactly at offset: sticky offsets stay before the inserted text, others
// move past it.
func TransformOffsetSticky(offset ByteOffset, edit buffer.Edit, sticky bool) ByteOffset {
	if edit.Range.IsEmpty() && edit.Range.Start == offset {
		if sticky {
			return offset
		}
		return offset + len(edit.NewText)
	}
	return TransformOffset(offset, edit)
}

// TransformSelection maps both ends of a selection through an edit.
// The anchor sticks. A bare caret stays before text inserted at it; the
// owner moves it explicitly when it types.
func TransformSelection(sel Selection, edit buffer.Edit) Selection {
	return Selection{
		Anchor: TransformOffsetSticky(sel.Anchor, edit, true),
		Head:   TransformOffsetSticky(sel.Head, edit, sel.IsEmpty()),
	}
}
