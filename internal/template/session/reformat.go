package session

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/expr"
)

// emptyMarker is written into empty variable segments while reformatting
// so that formatters see an operand instead of nothing.
const emptyMarker = "a"

func (s *Session) needsReformat() bool {
	f := s.tpl.Flags()
	return len(s.opts.processors) > 0 ||
		(f.Reformat && s.opts.formatter != nil) ||
		(f.Indent && !s.indented)
}

// doReformat runs the processors and the formatter over the template with
// empty segments temporarily filled.
func (s *Session) doReformat() error {
	if s.done() || !s.needsReformat() {
		return nil
	}
	filled, err := s.initEmptyVariables()
	if err != nil {
		return err
	}
	s.segments.SetAllGreedy(false)
	err = s.reformat()
	s.segments.SetAllGreedy(true)
	if rerr := s.restoreEmptyVariables(filled); err == nil {
		err = rerr
	}
	return err
}

func (s *Session) reformat() error {
	for _, p := range s.opts.processors {
		if err := p.Process(s.host, s.tpl, s.templateRange.Start(), s.templateRange.End()); err != nil {
			return fmt.Errorf("process template: %w", err)
		}
	}
	f := s.tpl.Flags()
	if f.Indent && !s.indented {
		s.smartIndent(s.templateRange.Start(), s.templateRange.End())
		s.indented = true
	}
	if !f.Reformat || s.opts.formatter == nil {
		return nil
	}
	if err := s.opts.formatter.Reformat(s.templateRange.Start(), s.templateRange.End()); err != nil {
		return fmt.Errorf("reformat template: %w", err)
	}
	// An END alone on its line follows the line's new indent.
	if endSeg := s.tpl.FirstSegment(definition.End); endSeg >= 0 {
		off := s.segments.Start(endSeg)
		lineStart := s.host.LineStartOffset(s.host.LineOfOffset(off))
		if strings.TrimSpace(s.host.TextRange(lineStart, off)) == "" {
			adj := s.opts.formatter.AdjustLineIndent(off)
			s.segments.Replace(endSeg, adj, adj)
		}
	}
	return nil
}

// initEmptyVariables fills the empty segments of variables and returns
// their indices.
func (s *Session) initEmptyVariables() ([]int, error) {
	var (
		filled  []int
		changes []change
	)
	for i := range s.segments.Len() {
		start, end := s.segments.Start(i), s.segments.End(i)
		if start != end {
			continue
		}
		name := s.tpl.Segment(i).Name
		switch name {
		case definition.End, definition.SelectionStart, definition.SelectionEnd:
			continue
		}
		v, ok := s.tpl.Variable(name)
		if !ok {
			continue
		}
		marker := emptyMarker
		if call, ok := v.Expression.(*expr.FunctionCall); ok {
			if d, ok := call.DefaultValue(); ok && d != "" {
				marker = d
			}
		}
		changes = append(changes, change{text: marker, start: start, end: end, segment: i})
		filled = append(filled, i)
	}
	if err := s.executeChanges(changes); err != nil {
		return nil, err
	}
	return filled, nil
}

func (s *Session) restoreEmptyVariables(filled []int) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(filled))
	for _, i := range filled {
		spans = append(spans, span{s.segments.Start(i), s.segments.End(i)})
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(b.end, a.end); c != 0 {
			return c
		}
		return cmp.Compare(b.start, a.start)
	})
	for _, sp := range spans {
		if err := s.host.Replace(sp.start, sp.end, ""); err != nil {
			return fmt.Errorf("restore empty segment: %w", err)
		}
	}
	return nil
}

// smartIndent gives the lines after the first the indent of the line the
// template starts on. Lines of a multi-line SELECTION get the spaces that
// precede SELECTION in the template instead.
func (s *Session) smartIndent(start, end int) {
	startLine := s.host.LineOfOffset(start)
	endLine := s.host.LineOfOffset(end)
	if startLine >= endLine {
		return
	}

	selIndent, selStartLine, selEndLine := -1, -1, -1
	if seg := s.tpl.FirstSegment(definition.Selection); seg >= 0 {
		text := s.tpl.Text()
		selIndent = 0
		for off := s.tpl.Segment(seg).Offset; off > 0 && text[off-1] == ' '; off-- {
			selIndent++
		}
		selStartLine = s.host.LineOfOffset(s.segments.Start(seg))
		selEndLine = s.host.LineOfOffset(s.segments.End(seg))
	}

	indentLine := startLine
	for ; indentLine >= 0; indentLine-- {
		if s.host.LineEndOffset(indentLine) > s.host.LineStartOffset(indentLine) {
			break
		}
	}
	if indentLine < 0 {
		return
	}
	line := s.host.TextRange(s.host.LineStartOffset(indentLine), s.host.LineEndOffset(indentLine))
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if indent == "" && selIndent <= 0 {
		return
	}

	for i := startLine + 1; i <= endLine; i++ {
		text := indent
		if i > selStartLine && i <= selEndLine {
			text = strings.Repeat(" ", selIndent)
		}
		if text == "" {
			continue
		}
		at := s.host.LineStartOffset(i)
		if err := s.host.Replace(at, at, text); err != nil {
			s.log.Warn("indent failed", "line", i, "error", err)
			return
		}
	}
}
