// Package main is the entry point for the tabstop template expander.
//
// tabstop expands one template into a document non-interactively: each
// -answer is typed at the next stop in tab order, then the template is
// finished and the document is printed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/tabstop/internal/config"
	"github.com/dshills/tabstop/internal/config/loader"
	"github.com/dshills/tabstop/internal/ctxlog"
	"github.com/dshills/tabstop/internal/engine"
	"github.com/dshills/tabstop/internal/plugin/lua"
	"github.com/dshills/tabstop/internal/template/builtin"
	"github.com/dshills/tabstop/internal/template/definition"
	"github.com/dshills/tabstop/internal/template/expr"
	"github.com/dshills/tabstop/internal/template/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const templateKey = "cli"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func runArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "tabstop %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = loader.GetEnvOrDefault(config.EnvPrefix+"CONFIG", "")
	}
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := settings.Log.NewLogger(stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	res, err := expand(ctx, settings, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, res.text)
	fmt.Fprintf(stderr, "caret %d\n", res.caret)
	return 0
}

type result struct {
	text  string
	caret int
	state session.State
}

// expand runs the template described by opts to completion.
func expand(ctx context.Context, settings config.Settings, opts options) (result, error) {
	log := ctxlog.FromContext(ctx)

	reg := expr.NewRegistry()
	var builtinOpts []builtin.Option
	if settings.Script.Enabled {
		state, err := lua.NewState(settings.Script.StateOptions()...)
		if err != nil {
			return result{}, err
		}
		defer state.Close()
		builtinOpts = append(builtinOpts, builtin.WithLua(state))
		if opts.scriptPath != "" {
			if err := loadScript(ctx, reg, state, opts.scriptPath); err != nil {
				return result{}, err
			}
		}
	} else if opts.scriptPath != "" {
		return result{}, errors.New("-script needs script.enabled")
	}
	if err := builtin.Register(reg, builtinOpts...); err != nil {
		return result{}, err
	}

	flags := settings.Defaults.Flags()
	flags.Indent = flags.Indent || opts.indent
	b := definition.New(templateKey, opts.source).Flags(flags)
	for _, v := range opts.vars {
		b.Variable(v.name, v.expression, v.def, v.alwaysStop)
	}
	tpl, err := b.Build(reg)
	if err != nil {
		return result{}, err
	}

	var input string
	if opts.inputPath != "" {
		data, err := os.ReadFile(opts.inputPath)
		if err != nil {
			return result{}, fmt.Errorf("read input: %w", err)
		}
		input = string(data)
	}
	host := engine.New(engine.WithText(input), engine.WithLogger(log))
	defer host.Close()

	offset := opts.offset
	if offset < 0 || offset > host.Len() {
		offset = host.Len()
	}
	sessionOpts := []session.Option{session.WithPredefined(opts.sets)}
	if opts.selection != "" {
		start, end, err := parseRange(opts.selection)
		if err != nil {
			return result{}, err
		}
		if end > host.Len() {
			return result{}, fmt.Errorf("selection %d:%d is beyond the document (%d bytes)", start, end, host.Len())
		}
		sessionOpts = append(sessionOpts, session.WithSelectionText(host.TextRange(start, end)))
		if err := host.ReplaceRange(start, end, ""); err != nil {
			return result{}, err
		}
		offset = start
	}

	mgr := session.NewManager(definition.NewMemoryRepository(tpl), settings.SessionOptions()...)
	defer mgr.Close()
	s, err := mgr.Expand(ctx, host, templateKey, offset, sessionOpts...)
	if err != nil {
		return result{}, err
	}

	for _, answer := range opts.answers {
		if s.IsFinished() {
			log.Warn("template finished before every answer was used", "session", s.ID())
			break
		}
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		if answer != "" {
			if err := host.Type(answer); err != nil {
				return result{}, err
			}
		}
		if err := s.NextTab(); err != nil {
			return result{}, err
		}
	}
	if !s.IsFinished() {
		if err := s.GotoEnd(false); err != nil {
			return result{}, err
		}
	}
	return result{text: host.Text(), caret: host.Caret(), state: s.State()}, nil
}

func loadScript(ctx context.Context, reg *expr.Registry, state *lua.State, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if err := state.DoString(ctx, string(code)); err != nil {
		return fmt.Errorf("run script %s: %w", path, err)
	}
	names, err := builtin.LoadScriptFunctions(reg, state)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("loaded script functions", "path", path, "functions", names)
	return nil
}
