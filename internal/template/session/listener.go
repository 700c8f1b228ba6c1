package session

// Listener receives session events.
type Listener interface {
	// WaitingForInput is sent once, when Start found a tab stop.
	WaitingForInput(s *Session)
	CurrentVariableChanged(s *Session, oldIndex, newIndex int)
	BeforeFinished(s *Session, broken bool)
	Finished(s *Session, broken bool)
	Cancelled(s *Session)
}

// DivergenceListener is optionally implemented by a Listener that wants to
// know when a recompute stopped before its values converged.
type DivergenceListener interface {
	Diverged(s *Session, segments []int)
}

// ListenerFuncs adapts functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnWaitingForInput        func(s *Session)
	OnCurrentVariableChanged func(s *Session, oldIndex, newIndex int)
	OnBeforeFinished         func(s *Session, broken bool)
	OnFinished               func(s *Session, broken bool)
	OnCancelled              func(s *Session)
	OnDiverged               func(s *Session, segments []int)
}

func (f ListenerFuncs) WaitingForInput(s *Session) {
	if f.OnWaitingForInput != nil {
		f.OnWaitingForInput(s)
	}
}

func (f ListenerFuncs) CurrentVariableChanged(s *Session, oldIndex, newIndex int) {
	if f.OnCurrentVariableChanged != nil {
		f.OnCurrentVariableChanged(s, oldIndex, newIndex)
	}
}

func (f ListenerFuncs) BeforeFinished(s *Session, broken bool) {
	if f.OnBeforeFinished != nil {
		f.OnBeforeFinished(s, broken)
	}
}

func (f ListenerFuncs) Finished(s *Session, broken bool) {
	if f.OnFinished != nil {
		f.OnFinished(s, broken)
	}
}

func (f ListenerFuncs) Cancelled(s *Session) {
	if f.OnCancelled != nil {
		f.OnCancelled(s)
	}
}

func (f ListenerFuncs) Diverged(s *Session, segments []int) {
	if f.OnDiverged != nil {
		f.OnDiverged(s, segments)
	}
}
