package expr

import "strings"

// Expression is a parsed template expression. The variants are *Constant,
// *VariableRef and *FunctionCall.
type Expression interface {
	// Calculate performs a full evaluation.
	Calculate(ctx Context) *Result
	// CalculateQuick performs a cheap evaluation usable while the document
	// is being edited. Nil means "ask Calculate".
	CalculateQuick(ctx Context) *Result
	// LookupItems returns suggested values. More than one makes the
	// variable a tab stop with an interactive choice.
	LookupItems(ctx Context) []Candidate
	// RequiresCommittedModel reports whether a full evaluation reads the
	// host's syntax model.
	RequiresCommittedModel() bool
	// ReferencesVariable reports whether the expression reads the named
	// variable anywhere in its tree.
	ReferencesVariable(name string) bool
	// String renders the expression in source form. Parsing the result
	// yields an equivalent tree.
	String() string

	isExpression()
}

// Constant is fixed text. The null constant (see Empty) evaluates to no
// result at all.
type Constant struct {
	Text string
	Null bool
}

// Const returns a constant holding text.
func Const(text string) *Constant {
	return &Constant{Text: text}
}

// Empty returns the null constant, the value of an empty expression.
func Empty() *Constant {
	return &Constant{Null: true}
}

func (*Constant) isExpression() {}

// Calculate returns the constant text, or nil for the null constant.
func (c *Constant) Calculate(Context) *Result {
	if c.Null {
		return nil
	}
	return NewResult(c.Text)
}

// CalculateQuick is the same as Calculate.
func (c *Constant) CalculateQuick(ctx Context) *Result {
	return c.Calculate(ctx)
}

func (*Constant) LookupItems(Context) []Candidate { return nil }
func (*Constant) RequiresCommittedModel() bool { return false }
func (*Constant) ReferencesVariable(string) bool { return false }

func (c *Constant) String() string {
	if c.Null {
		return ""
	}
	return quote(c.Text)
}

// VariableRef reads another template variable. Initial, when set, supplies
// the value while the referenced variable is still empty.
type VariableRef struct {
	Name    string
	Initial Expression
}

// Ref returns a reference to the variable name with an optional initial
// value expression.
func Ref(name string, initial Expression) *VariableRef {
	return &VariableRef{Name: name, Initial: initial}
}

func (*VariableRef) isExpression() {}

// Calculate returns the variable's value when it is non-empty, and the
// initial expression's value otherwise.
func (r *VariableRef) Calculate(ctx Context) *Result {
	v := ctx.VariableValue(r.Name)
	if !v.IsEmpty() || r.Initial == nil {
		return v
	}
	return r.Initial.Calculate(ctx)
}

// CalculateQuick is Calculate with a quick evaluation of the initial value.
func (r *VariableRef) CalculateQuick(ctx Context) *Result {
	v := ctx.VariableValue(r.Name)
	if !v.IsEmpty() || r.Initial == nil {
		return v
	}
	return r.Initial.CalculateQuick(ctx)
}

// LookupItems returns the suggestions of the initial value.
func (r *VariableRef) LookupItems(ctx Context) []Candidate {
	if r.Initial == nil {
		return nil
	}
	return r.Initial.LookupItems(ctx)
}

func (r *VariableRef) RequiresCommittedModel() bool {
	return r.Initial != nil && r.Initial.RequiresCommittedModel()
}

func (r *VariableRef) ReferencesVariable(name string) bool {
	return r.Name == name || (r.Initial != nil && r.Initial.ReferencesVariable(name))
}

func (r *VariableRef) String() string {
	if r.Initial == nil {
		return r.Name
	}
	return r.Name + " = " + r.Initial.String()
}

// FunctionCall invokes a registered function with positional arguments.
type FunctionCall struct {
	Name string
	Args []Expression

	funcs []Function
}

// Call builds a call to name dispatched over funcs, which are tried in
// order.
func Call(name string, funcs []Function, args ...Expression) *FunctionCall {
	return &FunctionCall{Name: name, Args: args, funcs: funcs}
}

func (*FunctionCall) isExpression() {}

// resolve picks the first function applicable to ctx, falling back to the
// first registered one.
func (c *FunctionCall) resolve(ctx Context) Function {
	if len(c.funcs) == 0 {
		return nil
	}
	for _, fn := range c.funcs {
		f, ok := fn.(ContextFilter)
		if !ok || f.Applicable(ctx) {
			return fn
		}
	}
	return c.funcs[0]
}

// Function returns the implementation a call would use in ctx.
func (c *FunctionCall) Function(ctx Context) Function {
	return c.resolve(ctx)
}

func (c *FunctionCall) Calculate(ctx Context) *Result {
	fn := c.resolve(ctx)
	if fn == nil {
		return nil
	}
	return fn.Calculate(ctx, c.Args)
}

func (c *FunctionCall) CalculateQuick(ctx Context) *Result {
	if q, ok := c.resolve(ctx).(QuickCalculator); ok {
		return q.CalculateQuick(ctx, c.Args)
	}
	return nil
}

func (c *FunctionCall) LookupItems(ctx Context) []Candidate {
	if l, ok := c.resolve(ctx).(LookupProvider); ok {
		return l.LookupItems(ctx, c.Args)
	}
	return nil
}

func (c *FunctionCall) RequiresCommittedModel() bool {
	for _, fn := range c.funcs {
		if m, ok := fn.(ModelDependent); ok && m.RequiresCommittedModel() {
			return true
		}
	}
	for _, arg := range c.Args {
		if arg.RequiresCommittedModel() {
			return true
		}
	}
	return false
}

func (c *FunctionCall) ReferencesVariable(name string) bool {
	for _, arg := range c.Args {
		if arg.ReferencesVariable(name) {
			return true
		}
	}
	return false
}

// DefaultValue returns the placeholder declared by the first function that
// has one.
func (c *FunctionCall) DefaultValue() (string, bool) {
	for _, fn := range c.funcs {
		if d, ok := fn.(DefaultValuer); ok {
			return d.DefaultValue(), true
		}
	}
	return "", false
}

func (c *FunctionCall) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// EvalArgs fully evaluates each argument and returns the texts. Arguments
// without a result yield "".
func EvalArgs(ctx Context, args []Expression) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg.Calculate(ctx).String()
	}
	return out
}
