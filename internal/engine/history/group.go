package history

// GroupScope provides a convenient way to group commands using defer.
//
//	defer h.GroupScope("Insert Template").End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{history: h, active: true}
}

// End ends the group scope. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Transaction executes fn within a group. The group is closed even when fn
// fails, so edits fn already applied stay undoable.
func (h *History) Transaction(name string, fn func() error) error {
	h.BeginGroup(name)
	defer h.EndGroup()
	return fn()
}
