package expr

import "testing"

// baseContext aliases Context so the embedded field does not shadow the
// Context method.
type baseContext = Context

// varContext resolves variables from a map.
type varContext struct {
	baseContext
	vars map[string]string
}

func newVarContext(vars map[string]string) *varContext {
	return &varContext{baseContext: Background(), vars: vars}
}

func (c *varContext) VariableValue(name string) *Result {
	v, ok := c.vars[name]
	if !ok {
		return nil
	}
	return NewResult(v)
}

func TestConstant(t *testing.T) {
	if got := Empty().Calculate(Background()); got != nil {
		t.Errorf("empty constant = %v, want nil", got)
	}
	got := Const("").Calculate(Background())
	if got == nil || got.Text != "" {
		t.Errorf(`Const("") = %v, want empty non-nil result`, got)
	}
	if got := Const("x").CalculateQuick(Background()); got.String() != "x" {
		t.Errorf("quick = %q, want %q", got.String(), "x")
	}
}

func TestVariableRef(t *testing.T) {
	tests := []struct {
		name string
		ref  *VariableRef
		vars map[string]string
		want *Result
	}{
		{"missing", Ref("A", nil), nil, nil},
		{"value", Ref("A", nil), map[string]string{"A": "a"}, NewResult("a")},
		{"empty value no initial", Ref("A", nil), map[string]string{"A": ""}, NewResult("")},
		{"initial when missing", Ref("A", Const("def")), nil, NewResult("def")},
		{"initial when empty", Ref("A", Const("def")), map[string]string{"A": ""}, NewResult("def")},
		{"value beats initial", Ref("A", Const("def")), map[string]string{"A": "typed"}, NewResult("typed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ref.Calculate(newVarContext(tt.vars))
			if (got == nil) != (tt.want == nil) || (got != nil && got.Text != tt.want.Text) {
				t.Errorf("Calculate() = %v, want %v", got, tt.want)
			}
		})
	}
}

type filteredFunc struct {
	name   string
	result string
	accept bool
}

func (f filteredFunc) Name() string { return f.name }
func (f filteredFunc) Applicable(Context) bool { return f.accept }
func (f filteredFunc) Calculate(Context, []Expression) *Result {
	return NewResult(f.result)
}

func TestFunctionCallDispatch(t *testing.T) {
	reject := filteredFunc{name: "f", result: "first", accept: false}
	accept := filteredFunc{name: "f", result: "second", accept: true}

	call := Call("f", []Function{reject, accept})
	if got := call.Calculate(Background()).String(); got != "second" {
		t.Errorf("dispatch picked %q, want %q", got, "second")
	}

	call = Call("f", []Function{reject, filteredFunc{name: "f", result: "third"}})
	if got := call.Calculate(Background()).String(); got != "first" {
		t.Errorf("fallback picked %q, want %q", got, "first")
	}

	if got := Call("f", nil).Calculate(Background()); got != nil {
		t.Errorf("call without implementation = %v, want nil", got)
	}
}

type richFunc struct{}

func (richFunc) Name() string { return "rich" }
func (richFunc) Calculate(ctx Context, args []Expression) *Result {
	return NewResult("full")
}
func (richFunc) CalculateQuick(Context, []Expression) *Result { return NewResult("quick") }
func (richFunc) LookupItems(Context, []Expression) []Candidate {
	return []Candidate{{Text: "a"}, {Text: "b"}}
}
func (richFunc) RequiresCommittedModel() bool { return true }
func (richFunc) DefaultValue() string { return "placeholder" }

func TestFunctionCallCapabilities(t *testing.T) {
	rich := Call("rich", []Function{richFunc{}})
	if got := rich.CalculateQuick(Background()).String(); got != "quick" {
		t.Errorf("CalculateQuick() = %q", got)
	}
	if got := len(rich.LookupItems(Background())); got != 2 {
		t.Errorf("LookupItems() returned %d candidates, want 2", got)
	}
	if !rich.RequiresCommittedModel() {
		t.Error("RequiresCommittedModel() = false")
	}
	if v, ok := rich.DefaultValue(); !ok || v != "placeholder" {
		t.Errorf("DefaultValue() = %q, %v", v, ok)
	}

	plain := Call("plain", []Function{FuncOf("plain", func(Context, []Expression) *Result { return NewResult("p") })}, rich)
	if got := plain.CalculateQuick(Background()); got != nil {
		t.Errorf("quick result of a plain function = %v, want nil", got)
	}
	if !plain.RequiresCommittedModel() {
		t.Error("model requirement of an argument is not propagated")
	}
	if _, ok := plain.DefaultValue(); ok {
		t.Error("plain function reported a default value")
	}
}

func TestReferencesVariable(t *testing.T) {
	reg := testRegistry()
	tests := []struct {
		src  string
		name string
		want bool
	}{
		{"SELECTION", "SELECTION", true},
		{`concat("a", upper(SELECTION))`, "SELECTION", true},
		{`X = SELECTION`, "SELECTION", true},
		{`concat(A, B)`, "SELECTION", false},
		{`"SELECTION"`, "SELECTION", false},
		{``, "SELECTION", false},
	}
	for _, tt := range tests {
		if got := Parse(tt.src, reg).ReferencesVariable(tt.name); got != tt.want {
			t.Errorf("Parse(%q).ReferencesVariable(%q) = %v, want %v", tt.src, tt.name, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(nil); err == nil {
		t.Error("Register(nil) succeeded")
	}
	if err := reg.Register(FuncOf("bad name", nil)); err == nil {
		t.Error("Register with a bad name succeeded")
	}
	reg.MustRegister(FuncOf("b", nil), FuncOf("a", nil), FuncOf("a", nil))

	if got := len(reg.Lookup("a")); got != 2 {
		t.Errorf("Lookup(a) returned %d functions, want 2", got)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
}
