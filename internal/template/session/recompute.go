package session

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/expr"
)

// change is a pending rewrite of one segment.
type change struct {
	text       string
	start, end int
	segment    int
}

// calcResults evaluates the variables after the current one and copies
// each variable's value into its other segments. Passes repeat while any
// first segment changed, up to a budget of (variables+1)*retryFactor.
func (s *Session) calcResults(quick bool) error {
	if s.segments.IsInvalid() {
		s.log.Debug("segments invalidated, cancelling")
		s.Cancel()
		return nil
	}
	if fn := s.opts.valueProcessor; fn != nil && s.current >= 0 {
		name := s.tpl.VariableAt(s.current).Name
		if v := s.variableText(name); v != "" && !fn(name, v) {
			return s.finish(false)
		}
	}
	if s.currentSegment >= 0 {
		s.segments.FixOverlap(s.currentSegment)
	}

	n := s.tpl.VariableCount()
	attempts := (n + 1) * s.opts.retryFactor
	calced := make(map[int]bool)
	for {
		attempts--
		clear(calced)
		for i := s.current + 1; i < n; i++ {
			v := s.tpl.VariableAt(i)
			seg := s.tpl.FirstSegment(v.Name)
			if seg < 0 {
				continue
			}
			old := s.variableText(v.Name)
			if err := s.recalcSegment(seg, quick, v.Expression, v.Default); err != nil {
				return err
			}
			if s.done() {
				return nil
			}
			if s.variableText(v.Name) != old {
				calced[seg] = true
			}
		}

		var changes []change
		selCalced := false
		for i := range s.segments.Len() {
			if calced[i] {
				continue
			}
			name := s.tpl.Segment(i).Name
			if name == definition.Selection {
				if s.selectionCalculated {
					continue
				}
				selCalced = true
			}
			if name == definition.End {
				continue
			}
			changes = append(changes, change{
				text:    s.variableText(name),
				start:   s.segments.Start(i),
				end:     s.segments.End(i),
				segment: i,
			})
		}
		if err := s.executeChanges(changes); err != nil {
			return err
		}
		if selCalced {
			s.selectionCalculated = true
		}
		if len(calced) == 0 || attempts < 0 {
			break
		}
	}

	if len(calced) > 0 {
		segs := slices.Sorted(maps.Keys(calced))
		s.log.Warn("template values did not converge", "segments", segs, "quick", quick)
		s.fireDiverged(segs)
	}
	return nil
}

// recalcSegment evaluates e for segment seg and writes the result. An
// empty result falls back to def, except next to the current segment,
// where it would grow into the text being typed.
func (s *Session) recalcSegment(seg int, quick bool, e, def expr.Expression) error {
	old := s.segmentText(seg)
	if s.opts.syntax != nil && (!quick || e.RequiresCommittedModel()) {
		s.opts.syntax.Commit()
	}
	start, end := s.segments.Start(seg), s.segments.End(seg)
	ctx := s.evalContext(start)

	var res *expr.Result
	if quick {
		res = e.CalculateQuick(ctx)
		if res == nil && old != "" {
			return nil
		}
	} else {
		res = e.Calculate(ctx)
	}

	empty := res.IsEmpty()
	if empty && s.currentSegment >= 0 {
		curStart, curEnd := s.segments.Start(s.currentSegment), s.segments.End(s.currentSegment)
		if start == curEnd || end == curStart {
			return nil
		}
	}
	if empty {
		res = def.Calculate(ctx)
	}
	if res == nil || res.Text == old {
		return nil
	}
	return s.replaceString(res.Text, start, end, seg)
}

// executeChanges applies changes from the end of the document backwards so
// that earlier offsets stay put.
func (s *Session) executeChanges(changes []change) error {
	slices.SortFunc(changes, func(a, b change) int {
		if c := cmp.Compare(b.start, a.start); c != 0 {
			return c
		}
		return cmp.Compare(b.segment, a.segment)
	})
	for _, c := range changes {
		if err := s.replaceString(c.text, c.start, c.end, c.segment); err != nil {
			return err
		}
	}
	return nil
}

// replaceString rewrites [start, end) and re-anchors segment seg over the
// new text. Neighbours are held back so they do not absorb it.
func (s *Session) replaceString(text string, start, end, seg int) error {
	if start < 0 || end < start || end > s.host.Len() {
		s.log.Debug("skipping out of range segment write", "segment", seg, "start", start, "end", end)
		return nil
	}
	if s.host.TextRange(start, end) == text {
		return nil
	}
	s.segments.SetNeighboursGreedy(seg, false)
	if err := s.host.Replace(start, end, text); err != nil {
		return fmt.Errorf("write segment %d: %w", seg, err)
	}
	s.segments.Replace(seg, start, start+len(text))
	s.segments.SetNeighboursGreedy(seg, true)
	s.segments.FixOverlap(seg)
	return nil
}
