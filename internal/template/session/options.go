package session

import (
	"fmt"
	"maps"
)

// DefaultRetryFactor scales the recompute pass budget.
const DefaultRetryFactor = 3

// RecomputeMode selects how variables are evaluated after an edit inside
// the current segment.
type RecomputeMode int

const (
	// RecomputeQuick uses quick evaluation. A nil quick result leaves a
	// non-empty segment alone until the next full recompute.
	RecomputeQuick RecomputeMode = iota
	// RecomputeFull re-evaluates every expression completely.
	RecomputeFull
)

func (m RecomputeMode) String() string {
	switch m {
	case RecomputeQuick:
		return "quick"
	case RecomputeFull:
		return "full"
	}
	return fmt.Sprintf("RecomputeMode(%d)", int(m))
}

// ParseRecomputeMode parses "quick" or "full".
func ParseRecomputeMode(s string) (RecomputeMode, error) {
	switch s {
	case "quick", "":
		return RecomputeQuick, nil
	case "full":
		return RecomputeFull, nil
	}
	return 0, fmt.Errorf("unknown recompute mode %q", s)
}

// Option configures a Session.
type Option func(*options)

type options struct {
	predefined     map[string]string
	selection      *string
	properties     map[string]any
	listeners      []Listener
	syntax         SyntaxModel
	formatter      Formatter
	choices        ChoiceSurface
	preprocessors  []Preprocessor
	processors     []Processor
	valueProcessor ValueProcessor
	retryFactor    int
	afterEdit      RecomputeMode
}

func defaultOptions() options {
	return options{retryFactor: DefaultRetryFactor}
}

// WithPredefined supplies literal values for variables. A predefined
// variable is never a tab stop.
func WithPredefined(values map[string]string) Option {
	return func(o *options) {
		if o.predefined == nil {
			o.predefined = make(map[string]string, len(values))
		}
		maps.Copy(o.predefined, values)
	}
}

// WithSelectionText sets the text that was selected before expansion. It
// is the value of SELECTION.
func WithSelectionText(text string) Option {
	return func(o *options) {
		o.selection = &text
	}
}

// WithProperty sets a property readable by expression functions.
func WithProperty(key string, value any) Option {
	return func(o *options) {
		if o.properties == nil {
			o.properties = make(map[string]any)
		}
		o.properties[key] = value
	}
}

func WithListener(l Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, l)
	}
}

func WithSyntaxModel(m SyntaxModel) Option {
	return func(o *options) {
		o.syntax = m
	}
}

func WithFormatter(f Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

func WithChoiceSurface(c ChoiceSurface) Option {
	return func(o *options) {
		o.choices = c
	}
}

func WithPreprocessor(p Preprocessor) Option {
	return func(o *options) {
		o.preprocessors = append(o.preprocessors, p)
	}
}

func WithProcessor(p Processor) Option {
	return func(o *options) {
		o.processors = append(o.processors, p)
	}
}

func WithValueProcessor(fn ValueProcessor) Option {
	return func(o *options) {
		o.valueProcessor = fn
	}
}

// WithRetryFactor sets the recompute pass budget factor. Values below 1
// are ignored.
func WithRetryFactor(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.retryFactor = n
		}
	}
}

// WithAfterEdit sets the recompute mode used after in-segment edits.
func WithAfterEdit(m RecomputeMode) Option {
	return func(o *options) {
		o.afterEdit = m
	}
}
