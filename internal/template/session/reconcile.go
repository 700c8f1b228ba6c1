package session

// reconciler watches host commands while the session has a current
// variable. An edit made by a command that started with the caret outside
// the current segment ends the session; any other edit triggers a
// recompute.
type reconciler struct {
	s *Session
}

func (r reconciler) CommandStarted(name string) {
	s := r.s
	if s.busy > 0 || s.host.InUndoRedo() || s.IsFinished() {
		return
	}
	s.terminate = s.caretOutsideCurrentSegment(name)
	s.commandSeen = true
}

func (r reconciler) DocumentChanging() {
	s := r.s
	if s.busy > 0 || s.host.InUndoRedo() {
		return
	}
	s.documentChanged = true
}

func (r reconciler) BeforeCommandFinished(string) {
	s := r.s
	if !s.commandSeen || s.busy > 0 || s.host.InUndoRedo() {
		return
	}
	s.commandSeen = false
	if s.done() {
		return
	}
	s.afterChangedUpdate()
}

func (s *Session) afterChangedUpdate() {
	if s.IsFinished() || !s.documentChanged {
		return
	}
	s.documentChanged = false
	if s.terminate || s.segments.IsInvalid() {
		s.log.Debug("edit outside the current variable")
		s.Cancel()
		return
	}
	s.busy++
	err := s.calcResults(s.opts.afterEdit == RecomputeQuick)
	s.busy--
	if err != nil {
		s.log.Warn("recompute after edit failed", "error", err)
	}
}

// caretOutsideCurrentSegment reports whether command name, run at the
// current caret, edits outside the current segment.
func (s *Session) caretOutsideCurrentSegment(name string) bool {
	if s.currentSegment < 0 {
		return false
	}
	caret := s.host.Caret()
	start, end := s.segments.Start(s.currentSegment), s.segments.End(s.currentSegment)
	_, _, selected := s.host.Selection()
	switch {
	case caret < start || caret > end:
		return true
	case caret == start && !selected && name == CommandBackspace:
		return true
	case caret == end && !selected && name == CommandDelete:
		return true
	}
	return false
}

// caretInsideOrBeforeNextVariable reports whether the caret is in the next
// stop's range or between the current segment and it.
func (s *Session) caretInsideOrBeforeNextVariable() bool {
	if s.current < 0 {
		return false
	}
	next := s.nextStop(s.current)
	if next < 0 {
		return false
	}
	seg := s.tpl.FirstSegment(s.tpl.VariableAt(next).Name)
	if seg < 0 {
		return false
	}
	caret := s.host.Caret()
	nextStart, nextEnd := s.segments.Start(seg), s.segments.End(seg)
	if caret >= nextStart && caret <= nextEnd {
		return true
	}
	return s.segments.End(s.currentSegment) < caret && caret < nextStart
}
