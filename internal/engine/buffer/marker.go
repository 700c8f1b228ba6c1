package buffer

// Marker is a range that follows document edits.
type Marker struct {
	doc *Document

	start, end  ByteOffset
	greedyLeft  bool
	greedyRight bool
	valid       bool
	disposed    bool
}

// Start returns the current start offset.
func (m *Marker) Start() ByteOffset {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return m.start
}

// End returns the current end offset.
func (m *Marker) End() ByteOffset {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return m.end
}

// Range returns the current range.
func (m *Marker) Range() Range {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return Range{Start: m.start, End: m.end}
}

// Valid reports whether the marker still tracks text.
// A marker becomes invalid when an edit strictly contains it, and when it
// is disposed.
func (m *Marker) Valid() bool {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return m.valid && !m.disposed
}

// Greedy returns the greedy flags of both sides.
func (m *Marker) Greedy() (left, right bool) {
	m.doc.mu.RLock()
	defer m.doc.mu.RUnlock()
	return m.greedyLeft, m.greedyRight
}

// SetGreedy sets whether insertions at the start (left) and at the end
// (right) extend the marker.
func (m *Marker) SetGreedy(left, right bool) {
	m.doc.mu.Lock()
	defer m.doc.mu.Unlock()
	m.greedyLeft = left
	m.greedyRight = right
}

// Dispose detaches the marker from its document. It is safe to call twice.
func (m *Marker) Dispose() {
	m.doc.mu.Lock()
	defer m.doc.mu.Unlock()
	if m.disposed {
		return
	}
	m.disposed = true
	m.doc.removeMarkerLocked(m)
}

// adjust moves the marker through an edit. Called with the document lock held.
func (m *Marker) adjust(edit Edit) {
	if !m.valid || m.disposed {
		return
	}
	s, e := edit.Range.Start, edit.Range.End
	n := len(edit.NewText)

	if s < m.start && m.end < e {
		m.valid = false
		return
	}

	if s == e {
		// Pure insertion.
		if m.start > s || (m.start == s && !m.greedyLeft) {
			m.start += n
		}
		if m.end > s || (m.end == s && m.greedyRight) {
			m.end += n
		}
		if m.end < m.start {
			m.end = m.start
		}
		return
	}

	m.start = shiftOffset(m.start, s, e, n, s+n)
	m.end = shiftOffset(m.end, s, e, n, s)
	if m.end < m.start {
		m.end = m.start
	}
}

// shiftOffset maps an offset through the replacement of [s, e) by n bytes.
// Offsets strictly inside the replaced span move to inside.
func shiftOffset(offset, s, e, n, inside ByteOffset) ByteOffset {
	switch {
	case offset <= s:
		return offset
	case offset >= e:
		return offset + n - (e - s)
	default:
		return inside
	}
}
