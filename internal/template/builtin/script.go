package builtin

import (
	"fmt"

	"github.com/dshills/tabstop/internal/ctxlog"
	"github.com/dshills/tabstop/internal/plugin/lua"
	"github.com/dshills/tabstop/internal/template/expr"
)

// luaScript evaluates luaScript(code, arg...) in a sandboxed state. The
// arguments are bound to _1, _2, ... A table result offers its elements as
// candidates and evaluates to the first one.
type luaScript struct {
	state *lua.State
}

func (*luaScript) Name() string { return "luaScript" }

func (f *luaScript) eval(ctx expr.Context, args []expr.Expression) (lua.Value, bool) {
	if len(args) == 0 {
		return lua.Value{}, false
	}
	vals := expr.EvalArgs(ctx, args)
	v, err := f.state.Eval(ctx.Context(), vals[0], vals[1:]...)
	if err != nil {
		ctxlog.FromContext(ctx.Context()).Debug("luaScript failed", "error", err)
		return lua.Value{}, false
	}
	return v, !v.Nil
}

func (f *luaScript) Calculate(ctx expr.Context, args []expr.Expression) *expr.Result {
	v, ok := f.eval(ctx, args)
	if !ok {
		return nil
	}
	return expr.NewResult(v.Text)
}

func (f *luaScript) LookupItems(ctx expr.Context, args []expr.Expression) []expr.Candidate {
	v, ok := f.eval(ctx, args)
	if !ok {
		return nil
	}
	return candidates(v)
}

// scriptFunc is a global Lua function exposed to expressions.
type scriptFunc struct {
	name  string
	state *lua.State
}

func (f *scriptFunc) Name() string { return f.name }

func (f *scriptFunc) call(ctx expr.Context, args []expr.Expression) (lua.Value, bool) {
	v, err := f.state.Call(ctx.Context(), f.name, expr.EvalArgs(ctx, args)...)
	if err != nil {
		ctxlog.FromContext(ctx.Context()).Debug("script function failed", "function", f.name, "error", err)
		return lua.Value{}, false
	}
	return v, !v.Nil
}

func (f *scriptFunc) Calculate(ctx expr.Context, args []expr.Expression) *expr.Result {
	v, ok := f.call(ctx, args)
	if !ok {
		return nil
	}
	return expr.NewResult(v.Text)
}

func (f *scriptFunc) LookupItems(ctx expr.Context, args []expr.Expression) []expr.Candidate {
	v, ok := f.call(ctx, args)
	if !ok {
		return nil
	}
	return candidates(v)
}

func candidates(v lua.Value) []expr.Candidate {
	if len(v.List) == 0 {
		return nil
	}
	items := make([]expr.Candidate, len(v.List))
	for i, s := range v.List {
		items[i] = expr.Candidate{Text: s}
	}
	return items
}

// LoadScriptFunctions registers every global function defined by scripts
// already run in state. It returns the registered names.
func LoadScriptFunctions(reg *expr.Registry, state *lua.State) ([]string, error) {
	names := state.Functions()
	for _, name := range names {
		if err := reg.Register(&scriptFunc{name: name, state: state}); err != nil {
			return nil, fmt.Errorf("register script function %s: %w", name, err)
		}
	}
	return names, nil
}
