package expr

import "context"

// Result is the value an expression evaluates to.
// A nil *Result means "no value": the user has to supply one.
type Result struct {
	Text string
}

// NewResult returns a result holding text.
func NewResult(text string) *Result {
	return &Result{Text: text}
}

// String returns the result text.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// IsEmpty reports whether r is nil or holds the empty string.
func (r *Result) IsEmpty() bool {
	return r == nil || r.Text == ""
}

// Candidate is one suggested value for a variable.
type Candidate struct {
	Text   string
	Detail string // shown next to the text by a choice surface
}

// Element is a node of the host's syntax model.
type Element interface {
	Kind() string
	Text() string
}

// Context is what an expression sees while it evaluates. It is provided by
// the expansion session and is valid only for the duration of one call.
type Context interface {
	// Context returns the context.Context of the operation that triggered
	// evaluation. Long-running functions should honour its cancellation.
	Context() context.Context

	// StartOffset is the document offset of the segment being evaluated.
	StartOffset() int
	// TemplateStartOffset and TemplateEndOffset bound the expanded template.
	TemplateStartOffset() int
	TemplateEndOffset() int

	// VariableValue returns the current value of a template variable,
	// or nil when it has none.
	VariableValue(name string) *Result

	// Property returns a session property supplied by the caller.
	Property(key string) (any, bool)

	// Text returns the current document text.
	Text() string

	// ElementAt returns the syntax element at offset, if the host has a
	// syntax model.
	ElementAt(offset int) (Element, bool)
}

type bgContext struct{}

func (bgContext) Context() context.Context { return context.Background() }
func (bgContext) StartOffset() int { return 0 }
func (bgContext) TemplateStartOffset() int { return 0 }
func (bgContext) TemplateEndOffset() int { return 0 }
func (bgContext) VariableValue(string) *Result { return nil }
func (bgContext) Property(string) (any, bool) { return nil, false }
func (bgContext) Text() string { return "" }
func (bgContext) ElementAt(int) (Element, bool) { return nil, false }

// Background returns a Context with no variables, no text and no syntax
// model. It is useful for evaluating constant expressions.
func Background() Context {
	return bgContext{}
}
