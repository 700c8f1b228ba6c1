package buffer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// ChangeListener observes document edits.
type ChangeListener interface {
	// BeforeChange is called before the edit is applied.
	BeforeChange(edit Edit)
	// AfterChange is called after the text and markers have moved.
	AfterChange(change Change)
}

// Document is a mutable text with live markers.
// All methods are thread-safe.
type Document struct {
	mu sync.RWMutex

	text       string
	lineStarts []ByteOffset // nil when stale

	markers []*Marker

	listeners      map[int]ChangeListener
	listenerOrder  []int
	nextListenerID int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{listeners: make(map[int]ChangeListener)}
}

// NewDocumentFromString creates a document holding s.
func NewDocumentFromString(s string) *Document {
	d := NewDocument()
	d.text = s
	return d
}

// Text returns the entire document content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// TextRange returns text in the range [start, end).
// Out-of-range bounds are clamped.
func (d *Document) TextRange(start, end ByteOffset) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if start < 0 {
		start = 0
	}
	if end > len(d.text) {
		end = len(d.text)
	}
	if start >= end {
		return ""
	}
	return d.text[start:end]
}

// Len returns the document length in bytes.
func (d *Document) Len() ByteOffset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lineIndexLocked())
}

// LineOfOffset returns the 0-indexed line containing offset.
func (d *Document) LineOfOffset(offset ByteOffset) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := d.lineIndexLocked()
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}

// LineStartOffset returns the offset of the first byte of line.
// Lines past the end map to the document length.
func (d *Document) LineStartOffset(line int) ByteOffset {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := d.lineIndexLocked()
	if line < 0 {
		return 0
	}
	if line >= len(starts) {
		return len(d.text)
	}
	return starts[line]
}

// LineEndOffset returns the offset of the line's terminating newline,
// or the document length for the last line.
func (d *Document) LineEndOffset(line int) ByteOffset {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := d.lineIndexLocked()
	if line < 0 {
		line = 0
	}
	if line+1 >= len(starts) {
		return len(d.text)
	}
	return starts[line+1] - 1
}

func (d *Document) lineIndexLocked() []ByteOffset {
	if d.lineStarts != nil {
		return d.lineStarts
	}
	starts := []ByteOffset{0}
	for i := 0; i < len(d.text); i++ {
		if d.text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	d.lineStarts = starts
	return starts
}

// Insert inserts text at the given offset.
// Returns the end offset of the inserted text.
func (d *Document) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	if _, err := d.ApplyEdit(NewInsert(offset, text)); err != nil {
		return offset, err
	}
	return offset + len(text), nil
}

// Delete removes text in the range [start, end).
func (d *Document) Delete(start, end ByteOffset) error {
	_, err := d.ApplyEdit(NewDelete(start, end))
	return err
}

// Replace replaces text in the range [start, end) with new text.
// Returns the end offset of the inserted text.
func (d *Document) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	if _, err := d.ApplyEdit(NewReplace(start, end, text)); err != nil {
		return start, err
	}
	return start + len(text), nil
}

// ApplyEdit applies a single edit and returns the resulting change.
func (d *Document) ApplyEdit(edit Edit) (Change, error) {
	if err := d.checkRange(edit.Range); err != nil {
		return Change{}, err
	}
	for _, l := range d.listenerSnapshot() {
		l.BeforeChange(edit)
	}

	d.mu.Lock()
	change := d.applyLocked(edit)
	d.mu.Unlock()

	for _, l := range d.listenerSnapshot() {
		l.AfterChange(change)
	}
	return change, nil
}

// ApplyEdits applies multiple edits.
// Edits must be in reverse order (highest offset first) and must not overlap.
// All ranges are validated before any edit is applied.
func (d *Document) ApplyEdits(edits []Edit) ([]Change, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return nil, ErrEditsOverlap
		}
	}
	for _, edit := range edits {
		if err := d.checkRange(edit.Range); err != nil {
			return nil, err
		}
	}

	changes := make([]Change, 0, len(edits))
	for _, edit := range edits {
		change, err := d.ApplyEdit(edit)
		if err != nil {
			return changes, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (d *Document) checkRange(r Range) error {
	d.mu.RLock()
	n := len(d.text)
	d.mu.RUnlock()
	if r.Start < 0 || r.End > n {
		return fmt.Errorf("%w: %s in document of length %d", ErrOffsetOutOfRange, r, n)
	}
	if !r.IsValid() {
		return fmt.Errorf("%w: %s", ErrRangeInvalid, r)
	}
	return nil
}

func (d *Document) applyLocked(edit Edit) Change {
	r := edit.Range
	old := d.text[r.Start:r.End]
	d.text = d.text[:r.Start] + edit.NewText + d.text[r.End:]
	if strings.Contains(old, "\n") || strings.Contains(edit.NewText, "\n") {
		d.lineStarts = nil
	} else if d.lineStarts != nil && len(edit.NewText) != len(old) {
		d.lineStarts = nil
	}
	for _, m := range d.markers {
		m.adjust(edit)
	}
	return Change{
		Range:    r,
		NewRange: Range{Start: r.Start, End: r.Start + len(edit.NewText)},
		OldText:  old,
		NewText:  edit.NewText,
	}
}

// OnChange registers a listener and returns a function that removes it.
func (d *Document) OnChange(l ChangeListener) (remove func()) {
	d.mu.Lock()
	id := d.nextListenerID
	d.nextListenerID++
	d.listeners[id] = l
	d.listenerOrder = append(d.listenerOrder, id)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.listeners, id)
			for i, v := range d.listenerOrder {
				if v == id {
					d.listenerOrder = append(d.listenerOrder[:i], d.listenerOrder[i+1:]...)
					break
				}
			}
		})
	}
}

func (d *Document) listenerSnapshot() []ChangeListener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ChangeListener, 0, len(d.listenerOrder))
	for _, id := range d.listenerOrder {
		out = append(out, d.listeners[id])
	}
	return out
}

// CreateMarker creates a live marker over [start, end).
// Both sides start non-greedy. A range outside the document yields a marker
// that is already invalid.
func (d *Document) CreateMarker(start, end ByteOffset) *Marker {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := &Marker{
		doc:   d,
		start: start,
		end:   end,
		valid: start >= 0 && start <= end && end <= len(d.text),
	}
	d.markers = append(d.markers, m)
	return m
}

// MarkerCount returns the number of markers that have not been disposed.
func (d *Document) MarkerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.markers)
}

func (d *Document) removeMarkerLocked(m *Marker) {
	for i, v := range d.markers {
		if v == m {
			d.markers = append(d.markers[:i], d.markers[i+1:]...)
			return
		}
	}
}
