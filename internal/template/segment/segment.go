// Package segment tracks the live ranges of an expanded template.
//
// Each segment is a host marker: a range that the document adjusts as it
// is edited. The tracker adds the operations expansion needs on top of
// plain markers: re-anchoring a segment without losing its greediness,
// stopping neighbours from growing into a segment being rewritten, and
// clamping segments pushed inside another one.
//
// Segment indices are the append order and stay stable for the tracker's
// lifetime. Indexing out of range panics like a slice.
package segment

// Marker is a self-adjusting document range.
type Marker interface {
	Start() int
	End() int
	// Valid reports false once the document could not keep the range
	// coherent.
	Valid() bool
	// Greedy reports whether insertions at the start and end boundaries
	// extend the range.
	Greedy() (left, right bool)
	SetGreedy(left, right bool)
	Dispose()
}

// MarkerFactory creates markers in a document.
type MarkerFactory interface {
	CreateMarker(start, end int) Marker
}

// Tracker owns the markers of one expansion.
type Tracker struct {
	factory MarkerFactory
	markers []Marker
}

// NewTracker creates an empty tracker over factory.
func NewTracker(factory MarkerFactory) *Tracker {
	return &Tracker{factory: factory}
}

// Add appends a segment over [start, end) that is greedy on both sides.
func (t *Tracker) Add(start, end int) int {
	m := t.factory.CreateMarker(start, end)
	m.SetGreedy(true, true)
	t.markers = append(t.markers, m)
	return len(t.markers) - 1
}

// Len returns the number of segments.
func (t *Tracker) Len() int { return len(t.markers) }

func (t *Tracker) Start(i int) int { return t.markers[i].Start() }
func (t *Tracker) End(i int) int { return t.markers[i].End() }

// IsValid reports whether segment i is still coherent.
func (t *Tracker) IsValid(i int) bool { return t.markers[i].Valid() }

// IsInvalid reports whether any segment has become incoherent.
func (t *Tracker) IsInvalid() bool {
	for _, m := range t.markers {
		if !m.Valid() {
			return true
		}
	}
	return false
}

// Replace re-anchors segment i to [start, end), keeping its greediness.
func (t *Tracker) Replace(i, start, end int) {
	old := t.markers[i]
	left, right := old.Greedy()
	old.Dispose()
	m := t.factory.CreateMarker(start, end)
	m.SetGreedy(left, right)
	t.markers[i] = m
}

// SetAllGreedy sets both sides of every segment.
func (t *Tracker) SetAllGreedy(greedy bool) {
	for _, m := range t.markers {
		m.SetGreedy(greedy, greedy)
	}
}

// SetNeighboursGreedy sets both sides of the segments that touch
// segment i.
func (t *Tracker) SetNeighboursGreedy(i int, greedy bool) {
	start, end := t.Start(i), t.End(i)
	for j, m := range t.markers {
		if j == i {
			continue
		}
		if m.End() == start || m.Start() == end {
			m.SetGreedy(greedy, greedy)
		}
	}
}

// LockSegmentAtSameOffset stops other segments starting where segment i
// starts from growing on the left, so typing there extends only i.
func (t *Tracker) LockSegmentAtSameOffset(i int) {
	start := t.Start(i)
	for j, m := range t.markers {
		if j == i || m.Start() != start {
			continue
		}
		_, right := m.Greedy()
		m.SetGreedy(false, right)
	}
}

// FixOverlap clamps segments pushed inside segment cur. Later segments
// starting inside it move to its end; earlier segments ending inside it
// are cut at its start.
func (t *Tracker) FixOverlap(cur int) {
	curStart, curEnd := t.Start(cur), t.End(cur)
	if curStart == curEnd {
		return
	}
	for i := cur + 1; i < len(t.markers); i++ {
		if s := t.Start(i); s >= curStart && s < curEnd {
			t.Replace(i, curEnd, max(t.End(i), curEnd))
		}
	}
	for i := cur - 1; i >= 0; i-- {
		if e := t.End(i); e > curStart && e <= curEnd {
			t.Replace(i, min(t.Start(i), curStart), curStart)
		}
	}
}

// Release disposes every marker. The tracker must not be used afterwards.
func (t *Tracker) Release() {
	for _, m := range t.markers {
		m.Dispose()
	}
	t.markers = nil
}
