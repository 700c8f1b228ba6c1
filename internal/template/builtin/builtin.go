package builtin

import (
	"fmt"
	"time"

	"github.com/dshills/tabstop/internal/plugin/lua"
	"github.com/dshills/tabstop/internal/template/expr"
)

// Option configures Register.
type Option func(*options)

type options struct {
	now func() time.Time
	lua *lua.State
}

// WithClock sets the clock read by date and time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLua enables luaScript backed by state.
func WithLua(state *lua.State) Option {
	return func(o *options) {
		o.lua = state
	}
}

// Register installs the built-in functions into reg.
func Register(reg *expr.Registry, opts ...Option) error {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	fns := append(textFunctions(), environmentFunctions(o.now)...)
	if o.lua != nil {
		fns = append(fns, &luaScript{state: o.lua})
	}
	for _, fn := range fns {
		if err := reg.Register(fn); err != nil {
			return fmt.Errorf("register %s: %w", fn.Name(), err)
		}
	}
	return nil
}

// stringFunc is a function of evaluated string arguments.
//
// Its quick result evaluates the arguments quickly and is nil when any of
// them has no quick value.
type stringFunc struct {
	name    string
	minArgs int
	maxArgs int // negative means unbounded
	fn      func(args []string) string
}

func (f *stringFunc) Name() string { return f.name }

func (f *stringFunc) arity(n int) bool {
	return n >= f.minArgs && (f.maxArgs < 0 || n <= f.maxArgs)
}

func (f *stringFunc) Calculate(ctx expr.Context, args []expr.Expression) *expr.Result {
	if !f.arity(len(args)) {
		return nil
	}
	return expr.NewResult(f.fn(expr.EvalArgs(ctx, args)))
}

func (f *stringFunc) CalculateQuick(ctx expr.Context, args []expr.Expression) *expr.Result {
	if !f.arity(len(args)) {
		return nil
	}
	vals := make([]string, len(args))
	for i, arg := range args {
		r := arg.CalculateQuick(ctx)
		if r == nil {
			return nil
		}
		vals[i] = r.Text
	}
	return expr.NewResult(f.fn(vals))
}

func unary(name string, fn func(string) string) *stringFunc {
	return &stringFunc{
		name:    name,
		minArgs: 1,
		maxArgs: 1,
		fn: func(args []string) string {
			return fn(args[0])
		},
	}
}
