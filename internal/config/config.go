package config

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dshills/tabstop/internal/config/loader"
	"github.com/dshills/tabstop/internal/plugin/lua"
	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/session"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABSTOP_"

// Settings is the complete engine configuration.
type Settings struct {
	Recompute RecomputeSettings `yaml:"recompute"`
	Script    ScriptSettings    `yaml:"script"`
	Log       LogSettings       `yaml:"log"`
	Defaults  DefaultSettings   `yaml:"defaults"`
}

// RecomputeSettings control variable evaluation.
type RecomputeSettings struct {
	// RetryFactor scales the number of passes allowed for dependent
	// variables to settle.
	RetryFactor int `yaml:"retry_factor" validate:"min=1,max=100"`
	// AfterEdit is "quick" or "full".
	AfterEdit string `yaml:"after_edit" validate:"oneof=quick full"`
}

// ScriptSettings control the Lua runtime behind scripted functions.
type ScriptSettings struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout" validate:"min=0,max=1m"`
}

// LogSettings select the log handler.
type LogSettings struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultSettings are template flags applied to ad hoc templates.
type DefaultSettings struct {
	Reformat          bool `yaml:"reformat"`
	Indent            bool `yaml:"indent"`
	ShortenReferences bool `yaml:"shorten_references"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Recompute: RecomputeSettings{
			RetryFactor: session.DefaultRetryFactor,
			AfterEdit:   session.RecomputeQuick.String(),
		},
		Script: ScriptSettings{
			Enabled: true,
			Timeout: lua.DefaultExecutionTimeout,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds settings from the defaults, the file at path and the
// environment. An empty path skips the file layer; a missing file is not
// an error.
func Load(path string) (Settings, error) {
	return LoadFrom(loader.DefaultFS(), path)
}

// LoadFrom is Load reading the file from fsys.
func LoadFrom(fsys loader.FileSystem, path string) (Settings, error) {
	var sources []loader.Loader
	if path != "" {
		fl, err := loader.NewFileLoaderWithFS(fsys, path)
		if err != nil {
			return Settings{}, err
		}
		sources = append(sources, fl)
	}
	sources = append(sources, loader.NewEnvLoader(EnvPrefix))

	merged := make(map[string]any)
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return Settings{}, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	s, err := Decode(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("load %s: %w", sourceName(path), err)
	}
	return s, nil
}

func sourceName(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}

// Decode overlays m on the defaults and validates the result.
func Decode(m map[string]any) (Settings, error) {
	s := Default()
	data, err := yaml.Marshal(m)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if strings.Contains(err.Error(), "not found in type") {
			return Settings{}, fmt.Errorf("%w: %w", ErrUnknownSetting, err)
		}
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every setting. The error joins one *ValidationError per
// failing field.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) *ValidationError {
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	ve := &ValidationError{Path: path, Value: fe.Value()}
	switch fe.Tag() {
	case "oneof":
		ve.Code = ErrCodeInvalidEnum
		ve.Message = "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min":
		ve.Code = ErrCodeOutOfRange
		ve.Message = "must be at least " + fe.Param()
	case "max":
		ve.Code = ErrCodeOutOfRange
		ve.Message = "must be at most " + fe.Param()
	default:
		ve.Code = ErrCodeInvalid
		ve.Message = "failed " + fe.Tag()
	}
	return ve
}

// SessionOptions translates the recompute settings.
func (s Settings) SessionOptions() []session.Option {
	mode, err := session.ParseRecomputeMode(s.Recompute.AfterEdit)
	if err != nil {
		mode = session.RecomputeQuick
	}
	return []session.Option{
		session.WithRetryFactor(s.Recompute.RetryFactor),
		session.WithAfterEdit(mode),
	}
}

// StateOptions configures a Lua state from the script settings.
func (s ScriptSettings) StateOptions() []lua.StateOption {
	return []lua.StateOption{lua.WithExecutionTimeout(s.Timeout)}
}

// Flags returns the defaults as template flags.
func (d DefaultSettings) Flags() definition.Flags {
	return definition.Flags{
		Reformat:          d.Reformat,
		Indent:            d.Indent,
		ShortenReferences: d.ShortenReferences,
	}
}
