package definition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/tabstop/internal/template/expr"
)

// Builder assembles a Template. Errors are reported by Build.
type Builder struct {
	key         string
	group       string
	description string
	source      string
	flags       Flags
	variables   []variableRecord
}

type variableRecord struct {
	Name        string `validate:"required,identifier"`
	Expression  string
	Default     string
	AlwaysStop  bool
	SkipOnStart bool
}

type templateRecord struct {
	Key       string           `validate:"required,max=256"`
	Group     string           `validate:"max=256"`
	Variables []variableRecord `validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return expr.IsValidIdentifier(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

// New starts a template with key and source text.
func New(key, source string) *Builder {
	return &Builder{key: key, source: source}
}

// FromTemplate starts a builder holding everything in t.
func FromTemplate(t *Template) *Builder {
	b := New(t.key, t.Source()).Group(t.group).Description(t.description).Flags(t.flags)
	for _, v := range t.variables {
		b.variables = append(b.variables, variableRecord{
			Name:        v.Name,
			Expression:  v.ExpressionText,
			Default:     v.DefaultText,
			AlwaysStop:  v.AlwaysStop,
			SkipOnStart: v.SkipOnStart,
		})
	}
	return b
}

func (b *Builder) Group(group string) *Builder {
	b.group = group
	return b
}

func (b *Builder) Description(desc string) *Builder {
	b.description = desc
	return b
}

func (b *Builder) Flags(flags Flags) *Builder {
	b.flags = flags
	return b
}

// Variable appends a variable with expression and default source text.
func (b *Builder) Variable(name, expression, defaultValue string, alwaysStop bool) *Builder {
	b.variables = append(b.variables, variableRecord{
		Name:       name,
		Expression: expression,
		Default:    defaultValue,
		AlwaysStop: alwaysStop,
	})
	return b
}

// SkipOnStart marks the variables named name as never being the first stop.
func (b *Builder) SkipOnStart(name string) *Builder {
	for i := range b.variables {
		if b.variables[i].Name == name {
			b.variables[i].SkipOnStart = true
		}
	}
	return b
}

// Build validates the record and parses every expression with funcs.
func (b *Builder) Build(funcs *expr.Registry) (*Template, error) {
	for _, v := range b.variables {
		if IsReserved(v.Name) {
			return nil, fmt.Errorf("%w: %s", ErrReservedName, v.Name)
		}
	}
	rec := templateRecord{Key: b.key, Group: b.group, Variables: b.variables}
	if err := validate.Struct(rec); err != nil {
		return nil, validationError(b.key, err)
	}

	text, segments := ParseSource(b.source)
	t := &Template{
		key:         b.key,
		group:       b.group,
		description: b.description,
		text:        text,
		segments:    segments,
		flags:       b.flags,
	}
	for _, v := range b.variables {
		t.variables = append(t.variables, Variable{
			Name:           v.Name,
			Expression:     expr.Parse(v.Expression, funcs),
			Default:        expr.Parse(v.Default, funcs),
			ExpressionText: v.Expression,
			DefaultText:    v.Default,
			AlwaysStop:     v.AlwaysStop,
			SkipOnStart:    v.SkipOnStart,
		})
	}
	return t, nil
}

// validationError turns validator field errors into one readable error
// wrapping ErrInvalidTemplate.
func validationError(key string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w %q: %w", ErrInvalidTemplate, key, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "identifier":
			msgs = append(msgs, fmt.Sprintf("%s %q is not an identifier", fe.Namespace(), fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Namespace()))
		}
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidTemplate, key, strings.Join(msgs, "; "))
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild(funcs *expr.Registry) *Template {
	t, err := b.Build(funcs)
	if err != nil {
		panic(err)
	}
	return t
}
