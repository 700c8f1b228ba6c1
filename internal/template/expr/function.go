package expr

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrInvalidFunction is returned when registering a nil or unnamed function.
var ErrInvalidFunction = errors.New("invalid function")

// Function is an implementation callable from a template expression.
// Arguments arrive unevaluated so a function can decide how to use them.
type Function interface {
	Name() string
	Calculate(ctx Context, args []Expression) *Result
}

// QuickCalculator is implemented by functions with a cheap evaluation that
// does not need a committed syntax model. Returning nil defers to Calculate.
type QuickCalculator interface {
	CalculateQuick(ctx Context, args []Expression) *Result
}

// LookupProvider is implemented by functions that suggest values.
type LookupProvider interface {
	LookupItems(ctx Context, args []Expression) []Candidate
}

// ContextFilter is implemented by functions that only apply in some
// syntactic contexts. Several functions may share a name; a call goes to
// the first one whose filter accepts the context.
type ContextFilter interface {
	Applicable(ctx Context) bool
}

// DefaultValuer is implemented by functions that want a specific
// placeholder while the segment they fill is temporarily non-empty during
// reformatting.
type DefaultValuer interface {
	DefaultValue() string
}

// ModelDependent is implemented by functions that read the host's syntax
// model and need it committed before a full evaluation.
type ModelDependent interface {
	RequiresCommittedModel() bool
}

// Registry maps names to function implementations.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string][]Function
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string][]Function)}
}

// Register adds fn under fn.Name(). Functions registered under the same
// name are kept in registration order.
func (r *Registry) Register(fn Function) error {
	if fn == nil {
		return fmt.Errorf("%w: nil", ErrInvalidFunction)
	}
	name := fn.Name()
	if !IsValidIdentifier(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidFunction, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = append(r.funcs[name], fn)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(fns ...Function) {
	for _, fn := range fns {
		if err := r.Register(fn); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the functions registered under name.
// A nil registry has no functions.
func (r *Registry) Lookup(name string) []Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := r.funcs[name]
	if len(fns) == 0 {
		return nil
	}
	out := make([]Function, len(fns))
	copy(out, fns)
	return out
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncOf adapts a plain function to Function.
func FuncOf(name string, fn func(ctx Context, args []Expression) *Result) Function {
	return simpleFunc{name: name, fn: fn}
}

type simpleFunc struct {
	name string
	fn   func(ctx Context, args []Expression) *Result
}

func (f simpleFunc) Name() string { return f.name }

func (f simpleFunc) Calculate(ctx Context, args []Expression) *Result {
	return f.fn(ctx, args)
}
