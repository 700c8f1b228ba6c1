package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dshills/tabstop/internal/ctxlog"
	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/expr"
	"github.com/dshills/tabstop/internal/template/segment"
)

// State is the lifecycle state of a Session.
type State int

const (
	Active State = iota
	Finished
	Cancelled
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is one expansion of a template.
type Session struct {
	id   string
	ctx  context.Context
	log  *slog.Logger
	host Host
	tpl  *definition.Template
	opts options

	segments      *segment.Tracker
	templateRange segment.Marker

	current        int // variable index, -1 when not at a stop
	currentSegment int

	state    State
	broken   bool
	disposed bool

	indented            bool
	selectionCalculated bool

	// Edit reconciliation.
	terminate       bool
	documentChanged bool
	commandSeen     bool
	busy            int

	removeListener func()
	onDispose      func()
}

// Start expands tpl at offset and stops at the first tab stop. A template
// without tab stops is finished when Start returns.
func Start(ctx context.Context, host Host, tpl *definition.Template, offset int, opts ...Option) (*Session, error) {
	s, err := newSession(ctx, host, tpl, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.start(offset); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(ctx context.Context, host Host, tpl *definition.Template, opts ...Option) (*Session, error) {
	if tpl == nil {
		return nil, ErrNilTemplate
	}
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	return &Session{
		id:             id,
		ctx:            ctx,
		log:            ctxlog.FromContext(ctx).With("session", id, "template", tpl.Key()),
		host:           host,
		tpl:            tpl,
		opts:           o,
		current:        -1,
		currentSegment: -1,
		terminate:      true,
	}, nil
}

func (s *Session) start(offset int) error {
	text := s.tpl.Text()
	inline := s.tpl.Flags().Inline
	if inline && (offset < 0 || offset+len(text) > s.host.Len()) {
		return fmt.Errorf("%w: [%d:%d)", ErrInlineRange, offset, offset+len(text))
	}
	s.log.Debug("starting template", "offset", offset)

	err := s.run("Insert live template", func() error {
		s.host.RegisterUndoHook("Cancel live template", s.onUndo)

		if inline {
			s.templateRange = s.host.CreateMarker(offset, offset+len(text))
		} else {
			for _, p := range s.opts.preprocessors {
				offset = p.Preprocess(s.host, offset, s.tpl)
			}
			s.templateRange = s.host.CreateMarker(offset, offset)
		}
		s.templateRange.SetGreedy(true, true)
		s.segments = segment.NewTracker(s.host)

		if !inline {
			if err := s.host.Replace(offset, offset, text); err != nil {
				return fmt.Errorf("insert template: %w", err)
			}
		}
		base := s.templateRange.Start()
		for i := range s.tpl.SegmentCount() {
			at := base + s.tpl.Segment(i).Offset
			s.segments.Add(at, at)
		}

		// Later variables can feed earlier ones, so the first pass may not
		// be final.
		for range 2 {
			if err := s.calcResults(false); err != nil || s.done() {
				return err
			}
		}
		if err := s.doReformat(); err != nil {
			return err
		}

		next := s.nextStop(-1)
		if next < 0 {
			return s.finish(false)
		}
		s.fireWaitingForInput()
		s.setCurrent(next)
		s.removeListener = s.host.AddCommandListener(reconciler{s})
		if err := s.focus(); err != nil {
			return err
		}
		s.fireCurrentVariableChanged(-1)
		return nil
	})
	if err != nil {
		s.dispose()
		return err
	}
	return nil
}

// run executes fn as a host command. Commands the session runs itself are
// not reconciled as user edits.
func (s *Session) run(name string, fn func() error) error {
	s.busy++
	defer func() { s.busy-- }()
	return s.host.RunCommand(name, fn)
}

// done reports whether the session has ended.
func (s *Session) done() bool {
	return s.disposed || s.state != Active
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Template returns the template being expanded.
func (s *Session) Template() *definition.Template { return s.tpl }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// IsFinished reports whether the session is no longer at a tab stop.
func (s *Session) IsFinished() bool {
	return s.current < 0
}

// IsBroken reports whether the session ended by cancellation or by
// leaving the template.
func (s *Session) IsBroken() bool { return s.broken }

// CurrentVariable returns the index of the current variable, or -1.
func (s *Session) CurrentVariable() int { return s.current }

// CurrentVariableName returns the name of the current variable.
func (s *Session) CurrentVariableName() (string, bool) {
	if s.current < 0 {
		return "", false
	}
	return s.tpl.VariableAt(s.current).Name, true
}

// CurrentVariableRange returns the range of the current segment.
func (s *Session) CurrentVariableRange() (start, end int, ok bool) {
	if s.currentSegment < 0 || s.segments == nil {
		return 0, 0, false
	}
	return s.segments.Start(s.currentSegment), s.segments.End(s.currentSegment), true
}

// SegmentCount returns the number of live segments.
func (s *Session) SegmentCount() int {
	if s.segments == nil {
		return 0
	}
	return s.segments.Len()
}

// SegmentRange returns the range of segment i.
func (s *Session) SegmentRange(i int) (start, end int) {
	return s.segments.Start(i), s.segments.End(i)
}

// TemplateRange returns the range of the whole expansion.
func (s *Session) TemplateRange() (start, end int, ok bool) {
	if s.templateRange == nil || s.disposed {
		return 0, 0, false
	}
	return s.templateRange.Start(), s.templateRange.End(), true
}

// VariableValue returns the current value of a variable: the reserved
// values, then predefined values, then the text of its first segment.
func (s *Session) VariableValue(name string) *expr.Result {
	switch name {
	case definition.Selection:
		if s.opts.selection == nil {
			return expr.NewResult("")
		}
		return expr.NewResult(*s.opts.selection)
	case definition.End:
		return expr.NewResult("")
	}
	if v, ok := s.opts.predefined[name]; ok {
		return expr.NewResult(v)
	}
	if s.segments == nil {
		return nil
	}
	seg := s.tpl.FirstSegment(name)
	if seg < 0 || seg >= s.segments.Len() {
		return nil
	}
	start, end := s.segments.Start(seg), s.segments.End(seg)
	if n := s.host.Len(); start > n || end > n || start > end {
		return nil
	}
	return expr.NewResult(s.host.TextRange(start, end))
}

func (s *Session) variableText(name string) string {
	return s.VariableValue(name).String()
}

func (s *Session) segmentText(i int) string {
	if !s.segments.IsValid(i) {
		return ""
	}
	return s.host.TextRange(s.segments.Start(i), s.segments.End(i))
}

func (s *Session) setCurrent(i int) {
	s.current = i
	if i < 0 {
		s.currentSegment = -1
		return
	}
	s.currentSegment = s.tpl.FirstSegment(s.tpl.VariableAt(i).Name)
}

// ============================================================================
// Navigation
// ============================================================================

// NextTab moves to the next tab stop, or finishes the template after the
// last one.
func (s *Session) NextTab() error {
	if s.IsFinished() {
		return nil
	}
	return s.run("Next live template variable", func() error {
		s.terminate = false
		old := s.current
		next := s.nextStop(old)
		if err := s.calcResults(false); err != nil || s.done() {
			return err
		}
		if next < 0 {
			if err := s.reformat(); err != nil {
				return err
			}
			return s.finish(false)
		}
		if err := s.doReformat(); err != nil {
			return err
		}
		s.setCurrent(next)
		if err := s.focus(); err != nil {
			return err
		}
		s.fireCurrentVariableChanged(old)
		return nil
	})
}

// PreviousTab moves to the previous tab stop. It does nothing at the first.
func (s *Session) PreviousTab() error {
	if s.IsFinished() {
		return nil
	}
	return s.run("Previous live template variable", func() error {
		s.terminate = false
		old := s.current
		prev := s.prevStop(old)
		if prev < 0 {
			return nil
		}
		if err := s.calcResults(false); err != nil || s.done() {
			return err
		}
		if err := s.doReformat(); err != nil {
			return err
		}
		s.setCurrent(prev)
		if err := s.focus(); err != nil {
			return err
		}
		s.fireCurrentVariableChanged(old)
		return nil
	})
}

// GotoEnd finishes the template. A broken finish skips the final reformat.
func (s *Session) GotoEnd(broken bool) error {
	if s.done() {
		return nil
	}
	return s.run("Finish live template", func() error {
		if !s.segments.IsInvalid() {
			if err := s.calcResults(false); err != nil || s.done() {
				return err
			}
		}
		if !broken {
			if err := s.doReformat(); err != nil {
				return err
			}
		}
		return s.finish(broken)
	})
}

// Cancel ends the session without touching the document. Undoing the
// insertion is left to the host.
func (s *Session) Cancel() {
	if s.done() {
		return
	}
	s.log.Debug("template cancelled")
	s.state = Cancelled
	s.broken = true
	s.fireCancelled()
	s.cleanup()
	s.dispose()
}

// Recompute runs a full recompute of the variables after the current one.
func (s *Session) Recompute() error {
	if s.done() {
		return nil
	}
	return s.run("Recompute live template", func() error {
		return s.calcResults(false)
	})
}

// SelectChoice writes a chosen candidate into the current segment. With
// advance, the session moves to the next stop when the caret is at the end
// of the value.
func (s *Session) SelectChoice(text string, advance bool) error {
	if s.IsFinished() {
		return nil
	}
	err := s.run("Choose live template value", func() error {
		cur := s.currentSegment
		start, end := s.segments.Start(cur), s.segments.End(cur)
		caret := s.host.Caret()
		caretInside := caret >= start && caret <= end
		if err := s.replaceString(text, start, end, cur); err != nil {
			return err
		}
		if caretInside {
			s.host.MoveCaret(start + len(text))
		}
		return s.calcResults(s.opts.afterEdit == RecomputeQuick)
	})
	if err != nil || s.IsFinished() {
		return err
	}

	if s.caretOutsideCurrentSegment("") {
		if s.caretInsideOrBeforeNextVariable() {
			return s.NextTab()
		}
		return s.GotoEnd(true)
	}
	if !advance {
		return nil
	}
	start, end, _ := s.CurrentVariableRange()
	if end > start {
		caret := s.host.Caret()
		switch {
		case caret == end || s.caretInsideOrBeforeNextVariable():
			return s.NextTab()
		case caret > end:
			return s.GotoEnd(true)
		}
	}
	return nil
}

func (s *Session) nextStop(from int) int {
	for i := from + 1; i < s.tpl.VariableCount(); i++ {
		if s.isTabStop(i) {
			return i
		}
	}
	return -1
}

func (s *Session) prevStop(from int) int {
	for i := from - 1; i >= 0; i-- {
		if s.isTabStop(i) {
			return i
		}
	}
	return -1
}

// isTabStop reports whether variable i waits for the user.
func (s *Session) isTabStop(i int) bool {
	v := s.tpl.VariableAt(i)
	if s.current == -1 && v.SkipOnStart {
		return false
	}
	if _, ok := s.opts.predefined[v.Name]; ok {
		return false
	}
	if v.AlwaysStop {
		return true
	}
	seg := s.tpl.FirstSegment(v.Name)
	if seg < 0 {
		return false
	}
	ctx := s.evalContext(s.segments.Start(seg))
	if v.Expression.Calculate(ctx) == nil {
		return true
	}
	return len(v.Expression.LookupItems(ctx)) > 1
}

// focus selects the current segment and offers its candidates. A single
// candidate or a plain result is written only into an empty segment.
func (s *Session) focus() error {
	if s.IsFinished() || s.done() {
		return nil
	}
	if s.opts.syntax != nil {
		s.opts.syntax.Commit()
	}
	cur := s.currentSegment
	if cur < 0 {
		return nil
	}
	// Only the current segment grows when the user types at a boundary it
	// shares with another segment.
	s.segments.SetAllGreedy(true)
	s.segments.SetNeighboursGreedy(cur, false)
	s.segments.LockSegmentAtSameOffset(cur)
	start, end := s.segments.Start(cur), s.segments.End(cur)
	s.host.SetSelection(start, end)

	e := s.tpl.VariableAt(s.current).Expression
	ctx := s.evalContext(start)
	items := e.LookupItems(ctx)
	switch {
	case len(items) > 1:
		if s.opts.choices != nil {
			s.opts.choices.Offer(s, items)
		}
		return nil
	case len(items) == 1:
		if start == end {
			return s.applyFocused(items[0].Text)
		}
	default:
		if r := e.Calculate(ctx); r != nil && start == end {
			return s.applyFocused(r.Text)
		}
	}
	return nil
}

func (s *Session) applyFocused(text string) error {
	if text == "" {
		return nil
	}
	cur := s.currentSegment
	start, end := s.segments.Start(cur), s.segments.End(cur)
	if err := s.replaceString(text, start, end, cur); err != nil {
		return err
	}
	s.host.SetSelection(s.segments.Start(cur), s.segments.End(cur))
	return nil
}

// ============================================================================
// Finish
// ============================================================================

func (s *Session) finish(broken bool) error {
	if s.done() {
		return nil
	}
	if s.opts.choices != nil {
		s.opts.choices.Hide()
	}
	s.setFinalEditorState()
	s.state = Finished
	s.broken = broken
	s.log.Debug("template finished", "broken", broken)

	s.fireBeforeFinished(broken)
	s.cleanup()
	s.fireFinished(broken)
	s.dispose()
	return nil
}

func (s *Session) setFinalEditorState() {
	s.host.ClearSelection()

	offset := -1
	if endSeg := s.finalSegment(); endSeg >= 0 {
		offset = s.segments.Start(endSeg)
	} else if !s.tpl.IsSelectionTemplate() && !s.tpl.Flags().Inline {
		offset = s.templateRange.End()
	}
	if offset >= 0 {
		s.host.MoveCaret(offset)
	}

	selStart := s.tpl.FirstSegment(definition.SelectionStart)
	selEnd := s.tpl.FirstSegment(definition.SelectionEnd)
	if selStart >= 0 && selEnd >= 0 {
		s.host.SetSelection(s.segments.Start(selStart), s.segments.Start(selEnd))
	}
}

// finalSegment is where the caret goes on finish: END, or SELECTION when
// nothing was selected before expansion.
func (s *Session) finalSegment() int {
	end := s.tpl.FirstSegment(definition.End)
	if end < 0 && s.opts.selection == nil {
		end = s.tpl.FirstSegment(definition.Selection)
	}
	return end
}

func (s *Session) cleanup() {
	old := s.current
	s.setCurrent(-1)
	s.fireCurrentVariableChanged(old)
}

func (s *Session) dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	if s.removeListener != nil {
		s.removeListener()
		s.removeListener = nil
	}
	if s.segments != nil {
		s.segments.Release()
	}
	if s.templateRange != nil {
		s.templateRange.Dispose()
	}
	if s.current >= 0 {
		s.setCurrent(-1)
	}
	if s.onDispose != nil {
		s.onDispose()
	}
}

func (s *Session) onUndo() {
	if !s.done() {
		s.Cancel()
	}
}

// ============================================================================
// Events
// ============================================================================

func (s *Session) fireWaitingForInput() {
	for _, l := range s.opts.listeners {
		l.WaitingForInput(s)
	}
}

func (s *Session) fireCurrentVariableChanged(old int) {
	for _, l := range s.opts.listeners {
		l.CurrentVariableChanged(s, old, s.current)
	}
}

func (s *Session) fireBeforeFinished(broken bool) {
	for _, l := range s.opts.listeners {
		l.BeforeFinished(s, broken)
	}
}

func (s *Session) fireFinished(broken bool) {
	for _, l := range s.opts.listeners {
		l.Finished(s, broken)
	}
}

func (s *Session) fireCancelled() {
	for _, l := range s.opts.listeners {
		l.Cancelled(s)
	}
}

func (s *Session) fireDiverged(segments []int) {
	for _, l := range s.opts.listeners {
		if d, ok := l.(DivergenceListener); ok {
			d.Diverged(s, segments)
		}
	}
}
