package session

import (
	"context"

	"github.com/dshills/tabstop/internal/template/expr"
)

// evalContext is the expr.Context for one evaluation at start.
type evalContext struct {
	s     *Session
	start int
}

func (s *Session) evalContext(start int) expr.Context {
	return evalContext{s: s, start: start}
}

func (c evalContext) Context() context.Context { return c.s.ctx }
func (c evalContext) StartOffset() int { return c.start }

func (c evalContext) TemplateStartOffset() int {
	if c.s.templateRange == nil {
		return c.start
	}
	return c.s.templateRange.Start()
}

func (c evalContext) TemplateEndOffset() int {
	if c.s.templateRange == nil {
		return c.start
	}
	return c.s.templateRange.End()
}

func (c evalContext) VariableValue(name string) *expr.Result {
	return c.s.VariableValue(name)
}

func (c evalContext) Property(key string) (any, bool) {
	v, ok := c.s.opts.properties[key]
	return v, ok
}

func (c evalContext) Text() string { return c.s.host.Text() }

func (c evalContext) ElementAt(offset int) (expr.Element, bool) {
	if c.s.opts.syntax == nil {
		return nil, false
	}
	return c.s.opts.syntax.ElementAt(offset)
}
