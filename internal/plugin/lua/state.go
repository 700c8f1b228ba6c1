package lua

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single Eval, DoString or Call.
const DefaultExecutionTimeout = 2 * time.Second

// State is a sandboxed Lua runtime.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	builtins         map[string]bool // globals present before any script ran
	argCount         int             // number of _N globals currently set
	closed           bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout of each call. Zero or negative
// disables it; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{executionTimeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	if err := doWithRecovery(func() error {
		openSafeLibraries(L)
		installSandbox(L)
		return nil
	}); err != nil {
		L.Close()
		return nil, fmt.Errorf("open lua libraries: %w", err)
	}
	s.L = L
	s.builtins = globalNames(L)
	return s, nil
}

// Value is a Lua return value converted to Go.
type Value struct {
	// Nil is true when the script returned nothing or nil.
	Nil bool
	// Text is the value as a string. For a table it is the first element.
	Text string
	// List holds the array elements of a table result.
	List []string
}

// DoString executes a chunk, typically one defining global functions.
func (s *State) DoString(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	fn, err := s.L.LoadString(code)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	_, err = s.callLocked(ctx, fn, nil, 0)
	return err
}

// Eval evaluates code with args bound to _1, _2, ... and returns its first
// result. Code that is a bare expression is evaluated as if prefixed with
// "return".
func (s *State) Eval(ctx context.Context, code string, args ...string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Value{}, ErrStateClosed
	}
	fn, err := s.L.LoadString("return " + code)
	if err != nil {
		var chunkErr error
		fn, chunkErr = s.L.LoadString(code)
		if chunkErr != nil {
			return Value{}, fmt.Errorf("compile: %w", chunkErr)
		}
	}
	s.bindArgsLocked(args)
	return s.callLocked(ctx, fn, nil, 1)
}

// Call calls a global function with string arguments and returns its
// first result.
func (s *State) Call(ctx context.Context, name string, args ...string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Value{}, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrNotFunction, name)
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	return s.callLocked(ctx, fn, largs, 1)
}

// Functions returns the names of global functions defined by scripts.
func (s *State) Functions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	var names []string
	s.L.G.Global.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok || s.builtins[string(ks)] || v.Type() != lua.LTFunction {
			return
		}
		names = append(names, string(ks))
	})
	sort.Strings(names)
	return names
}

// SetGlobalString sets a global to a string value.
func (s *State) SetGlobalString(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, lua.LString(value))
}

func (s *State) bindArgsLocked(args []string) {
	for i := len(args); i < s.argCount; i++ {
		s.L.SetGlobal("_"+strconv.Itoa(i+1), lua.LNil)
	}
	for i, a := range args {
		s.L.SetGlobal("_"+strconv.Itoa(i+1), lua.LString(a))
	}
	s.argCount = len(args)
}

// callLocked runs fn under ctx and the execution timeout.
func (s *State) callLocked(ctx context.Context, fn *lua.LFunction, args []lua.LValue, nret int) (Value, error) {
	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	err := doWithRecovery(func() error {
		s.L.Push(fn)
		for _, a := range args {
			s.L.Push(a)
		}
		return s.L.PCall(len(args), nret, nil)
	})
	if err != nil {
		s.L.SetTop(top)
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return Value{}, fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		case ctx.Err() != nil:
			return Value{}, ctx.Err()
		}
		return Value{}, err
	}
	if nret == 0 {
		return Value{Nil: true}, nil
	}
	ret := s.L.Get(-1)
	s.L.SetTop(top)
	return toValue(ret), nil
}

func toValue(v lua.LValue) Value {
	switch lv := v.(type) {
	case *lua.LNilType:
		return Value{Nil: true}
	case *lua.LTable:
		var list []string
		for i := 1; i <= lv.Len(); i++ {
			list = append(list, lv.RawGetInt(i).String())
		}
		val := Value{List: list}
		if len(list) > 0 {
			val.Text = list[0]
		}
		return val
	default:
		return Value{Text: v.String()}
	}
}

// doWithRecovery executes a function with panic recovery.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
