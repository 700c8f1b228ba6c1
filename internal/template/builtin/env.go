package builtin

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/tabstop/internal/template/expr"
)

const (
	defaultDateLayout = "2006-01-02"
	defaultTimeLayout = "15:04"
)

func environmentFunctions(now func() time.Time) []expr.Function {
	return []expr.Function{
		enum{},
		&clockFunc{name: "date", layout: defaultDateLayout, now: now},
		&clockFunc{name: "time", layout: defaultTimeLayout, now: now},
		uuidFunc{},
		expr.FuncOf("selection", func(ctx expr.Context, _ []expr.Expression) *expr.Result {
			return ctx.VariableValue("SELECTION")
		}),
		expr.FuncOf("lineNumber", func(ctx expr.Context, _ []expr.Expression) *expr.Result {
			text := ctx.Text()
			off := min(max(ctx.StartOffset(), 0), len(text))
			return expr.NewResult(strconv.Itoa(strings.Count(text[:off], "\n") + 1))
		}),
	}
}

// enum evaluates to its first argument and offers every argument as a
// candidate.
type enum struct{}

func (enum) Name() string { return "enum" }

func (enum) Calculate(ctx expr.Context, args []expr.Expression) *expr.Result {
	if len(args) == 0 {
		return nil
	}
	return args[0].Calculate(ctx)
}

func (enum) CalculateQuick(ctx expr.Context, args []expr.Expression) *expr.Result {
	if len(args) == 0 {
		return nil
	}
	return args[0].CalculateQuick(ctx)
}

func (enum) LookupItems(ctx expr.Context, args []expr.Expression) []expr.Candidate {
	items := make([]expr.Candidate, 0, len(args))
	for _, arg := range args {
		if r := arg.Calculate(ctx); r != nil {
			items = append(items, expr.Candidate{Text: r.Text})
		}
	}
	return items
}

// clockFunc formats the current time with a Go layout, its only optional
// argument.
type clockFunc struct {
	name   string
	layout string
	now    func() time.Time
}

func (f *clockFunc) Name() string { return f.name }

func (f *clockFunc) Calculate(ctx expr.Context, args []expr.Expression) *expr.Result {
	layout := f.layout
	if len(args) > 0 {
		if l := args[0].Calculate(ctx).String(); l != "" {
			layout = l
		}
	}
	return expr.NewResult(f.now().Format(layout))
}

func (f *clockFunc) CalculateQuick(ctx expr.Context, args []expr.Expression) *expr.Result {
	return f.Calculate(ctx, args)
}

// uuidFunc generates a random UUID. When the segment already holds one it
// is kept, so repeated evaluation is stable.
type uuidFunc struct{}

func (uuidFunc) Name() string { return "uuid" }

func (uuidFunc) Calculate(ctx expr.Context, _ []expr.Expression) *expr.Result {
	text := ctx.Text()
	if start := ctx.StartOffset(); start >= 0 && start+36 <= len(text) {
		if id, err := uuid.Parse(text[start : start+36]); err == nil {
			return expr.NewResult(id.String())
		}
	}
	return expr.NewResult(uuid.NewString())
}
