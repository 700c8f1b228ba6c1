package lua

import (
	"context"
	"errors"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	s, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEval(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	tests := []struct {
		name string
		code string
		args []string
		want Value
	}{
		{"expression", `1 + 2`, nil, Value{Text: "3"}},
		{"string", `"a" .. "b"`, nil, Value{Text: "ab"}},
		{"args", `string.upper(_1) .. _2`, []string{"main", "!"}, Value{Text: "MAIN!"}},
		{"chunk", "local x = 2\nreturn x * 21", nil, Value{Text: "42"}},
		{"bool", `true`, nil, Value{Text: "true"}},
		{"nil", `nil`, nil, Value{Nil: true}},
		{"table", `{1, 2, true}`, nil, Value{Text: "1", List: []string{"1", "2", "true"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Eval(ctx, tt.code, tt.args...)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.code, err)
			}
			if got.Nil != tt.want.Nil || got.Text != tt.want.Text || len(got.List) != len(tt.want.List) {
				t.Errorf("Eval(%q) = %+v, want %+v", tt.code, got, tt.want)
			}
			for i := range tt.want.List {
				if got.List[i] != tt.want.List[i] {
					t.Errorf("List[%d] = %q, want %q", i, got.List[i], tt.want.List[i])
				}
			}
		})
	}
}

func TestEvalClearsStaleArgs(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	if _, err := s.Eval(ctx, `_1`, "a", "b"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Eval(ctx, `_2`)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Nil {
		t.Errorf("_2 leaked from a previous call: %+v", got)
	}
}

func TestEvalErrors(t *testing.T) {
	s := newTestState(t)

	if _, err := s.Eval(context.Background(), `error("boom")`); err == nil {
		t.Error("runtime error not reported")
	}
	var apiErr *glua.ApiError
	_, err := s.Eval(context.Background(), `local = =`)
	if err == nil || !errors.As(err, &apiErr) {
		t.Errorf("compile error = %v, want *lua.ApiError", err)
	}
}

func TestExecutionTimeout(t *testing.T) {
	s := newTestState(t, WithExecutionTimeout(50*time.Millisecond))

	_, err := s.Eval(context.Background(), "while true do end")
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("Eval() error = %v, want ErrExecutionTimeout", err)
	}

	got, err := s.Eval(context.Background(), `"still usable"`)
	if err != nil || got.Text != "still usable" {
		t.Errorf("after timeout Eval() = %+v, %v", got, err)
	}
}

func TestCallerCancellation(t *testing.T) {
	s := newTestState(t, WithExecutionTimeout(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Eval(ctx, "while true do end")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Eval() error = %v, want context.Canceled", err)
	}
}

func TestSandbox(t *testing.T) {
	s := newTestState(t)
	for _, name := range removedGlobals {
		got, err := s.Eval(context.Background(), name)
		if err != nil {
			t.Fatalf("Eval(%s) error = %v", name, err)
		}
		if !got.Nil {
			t.Errorf("%s should be removed, got %+v", name, got)
		}
	}
	for _, lib := range []string{"io", "os", "debug"} {
		got, _ := s.Eval(context.Background(), lib)
		if !got.Nil {
			t.Errorf("library %s should not be opened", lib)
		}
	}
}

func TestScriptFunctions(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	src := `
function shout(s) return string.upper(s) .. "!" end
function pair(a, b) return {a, b} end
answer = 42
`
	if err := s.DoString(ctx, src); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	names := s.Functions()
	if len(names) != 2 || names[0] != "pair" || names[1] != "shout" {
		t.Errorf("Functions() = %v, want [pair shout]", names)
	}

	got, err := s.Call(ctx, "shout", "hi")
	if err != nil || got.Text != "HI!" {
		t.Errorf("Call(shout) = %+v, %v", got, err)
	}
	got, err = s.Call(ctx, "pair", "x", "y")
	if err != nil || len(got.List) != 2 {
		t.Errorf("Call(pair) = %+v, %v", got, err)
	}
	if _, err := s.Call(ctx, "answer"); !errors.Is(err, ErrNotFunction) {
		t.Errorf("Call(answer) error = %v, want ErrNotFunction", err)
	}
}

func TestClosedState(t *testing.T) {
	s, err := NewState()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if _, err := s.Eval(context.Background(), "1"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Eval on closed state error = %v", err)
	}
	if err := s.DoString(context.Background(), "x = 1"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString on closed state error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
