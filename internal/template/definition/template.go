package definition

import (
	"slices"

	"github.com/dshills/tabstop/internal/template/expr"
)

// Segment is a named position in a template's text.
type Segment struct {
	Name   string
	Offset int
}

// Variable binds an expression and a default to the segments of the same
// name. Variable order is tab order.
type Variable struct {
	Name           string
	Expression     expr.Expression
	Default        expr.Expression
	ExpressionText string
	DefaultText    string
	AlwaysStop     bool
	SkipOnStart    bool
}

// Flags are template-level expansion options.
type Flags struct {
	Reformat          bool
	ShortenReferences bool
	Indent            bool
	// Inline templates expand over text already in the document.
	Inline bool
}

// Template is an immutable parsed template definition.
type Template struct {
	key         string
	group       string
	description string
	text        string
	segments    []Segment
	variables   []Variable
	flags       Flags
}

func (t *Template) Key() string { return t.key }
func (t *Template) Group() string { return t.group }
func (t *Template) Description() string { return t.description }
func (t *Template) Flags() Flags { return t.flags }

// Text returns the template text with segment markers removed.
func (t *Template) Text() string { return t.text }

// Source returns the template text with segment markers.
func (t *Template) Source() string {
	return buildSource(t.text, t.segments)
}

// Segments returns a copy of the segments in text order.
func (t *Template) Segments() []Segment {
	return slices.Clone(t.segments)
}

// SegmentCount returns the number of segments.
func (t *Template) SegmentCount() int { return len(t.segments) }

// Segment returns segment i.
func (t *Template) Segment(i int) Segment { return t.segments[i] }

// Variables returns a copy of the variables in tab order.
func (t *Template) Variables() []Variable {
	return slices.Clone(t.variables)
}

// VariableCount returns the number of variables.
func (t *Template) VariableCount() int { return len(t.variables) }

// VariableAt returns variable i.
func (t *Template) VariableAt(i int) Variable { return t.variables[i] }

// Variable returns the first variable named name.
func (t *Template) Variable(name string) (Variable, bool) {
	for _, v := range t.variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// SegmentsFor returns the indices of the segments named name.
func (t *Template) SegmentsFor(name string) []int {
	var out []int
	for i, s := range t.segments {
		if s.Name == name {
			out = append(out, i)
		}
	}
	return out
}

// FirstSegment returns the index of the first segment named name, or -1.
func (t *Template) FirstSegment(name string) int {
	for i, s := range t.segments {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// HasEnd reports whether the template has an END segment.
func (t *Template) HasEnd() bool {
	return t.FirstSegment(End) >= 0
}

// IsSelectionTemplate reports whether the template wraps the selection:
// it has a SELECTION segment or an expression reading SELECTION.
func (t *Template) IsSelectionTemplate() bool {
	if t.FirstSegment(Selection) >= 0 {
		return true
	}
	for _, v := range t.variables {
		if v.Expression.ReferencesVariable(Selection) || v.Default.ReferencesVariable(Selection) {
			return true
		}
	}
	return false
}

// WithoutVariables returns the names of non-reserved segments that no
// variable fills. They expand to nothing.
func (t *Template) WithoutVariables() []string {
	var out []string
	for _, s := range t.segments {
		if IsReserved(s.Name) || slices.Contains(out, s.Name) {
			continue
		}
		if _, ok := t.Variable(s.Name); !ok {
			out = append(out, s.Name)
		}
	}
	return out
}
