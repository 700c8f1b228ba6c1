package expr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(
		FuncOf("concat", func(ctx Context, args []Expression) *Result {
			var s string
			for _, a := range EvalArgs(ctx, args) {
				s += a
			}
			return NewResult(s)
		}),
		FuncOf("upper", func(ctx Context, args []Expression) *Result { return nil }),
	)
	return reg
}

var ignoreFuncs = cmpopts.IgnoreUnexported(FunctionCall{})

func TestParse(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name string
		src  string
		want Expression
	}{
		{"empty", "", Empty()},
		{"whitespace", "   ", Empty()},
		{"string", `"hello"`, Const("hello")},
		{"escaped string", `"a\tb"`, Const("a\tb")},
		{"variable", "NAME", Ref("NAME", nil)},
		{"variable with default", `NAME = "x"`, Ref("NAME", Const("x"))},
		{"call without parens", "upper", Call("upper", nil)},
		{"call no args", "concat()", Call("concat", nil)},
		{"call", `concat(A, "-", B)`, Call("concat", nil, Ref("A", nil), Const("-"), Ref("B", nil))},
		{"nested", `concat(upper(A), B="b")`, Call("concat", nil, Call("upper", nil, Ref("A", nil)), Ref("B", Const("b")))},
		{"unterminated call", "concat(bar", Call("concat", nil, Ref("bar", nil))},
		{"dangling comma", "concat(A,", Call("concat", nil, Ref("A", nil), Empty())},
		{"bad token", "+", Empty()},
		{"bad argument", "concat(+)", Call("concat", nil, Empty())},
		{"unknown call", "foo(bar", Ref("foo", nil)},
		{"unterminated string", `"abc`, Const("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.src, reg)
			if diff := cmp.Diff(tt.want, got, ignoreFuncs); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	reg := testRegistry()
	srcs := []string{
		`concat(A, "-", B)`,
		`NAME = concat("x\ny", upper(Z))`,
		`""`,
		``,
		`concat(A = "1", B)`,
	}
	for _, src := range srcs {
		first := Parse(src, reg)
		second := Parse(first.String(), reg)
		if diff := cmp.Diff(first, second, ignoreFuncs); diff != "" {
			t.Errorf("round trip of %q via %q mismatch (-first +second):\n%s", src, first.String(), diff)
		}
	}
}

func TestParseMalformedIsEvaluable(t *testing.T) {
	reg := testRegistry()
	for _, src := range []string{"foo(bar", "concat(bar", "concat(,,", `concat("`, "=", "))"} {
		e := Parse(src, reg)
		if e == nil {
			t.Fatalf("Parse(%q) returned nil", src)
		}
		_ = e.Calculate(Background())
		_ = e.LookupItems(Background())
	}
}

func TestParseWithNilRegistry(t *testing.T) {
	got := Parse("concat(A)", nil)
	if diff := cmp.Diff(Expression(Ref("concat", nil)), got, ignoreFuncs); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
