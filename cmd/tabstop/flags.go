package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	source      string
	scriptPath  string
	inputPath   string
	offset      int
	selection   string
	indent      bool
	showVersion bool
	vars        varFlags
	sets        setFlags
	answers     stringList
}

// varSpec is one -var NAME:EXPR[:DEFAULT][:stop].
type varSpec struct {
	name       string
	expression string
	def        string
	alwaysStop bool
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type varFlags []varSpec

func (v *varFlags) String() string {
	names := make([]string, len(*v))
	for i, s := range *v {
		names[i] = s.name
	}
	return strings.Join(names, ",")
}

func (v *varFlags) Set(s string) error {
	spec, err := parseVar(s)
	if err != nil {
		return err
	}
	*v = append(*v, spec)
	return nil
}

type setFlags map[string]string

func (m setFlags) String() string { return strconv.Itoa(len(m)) }

func (m setFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("want NAME=VALUE, got %q", s)
	}
	m[name] = value
	return nil
}

// parseVar splits NAME:EXPR[:DEFAULT][:stop]. Colons inside double-quoted
// strings do not separate fields.
func parseVar(s string) (varSpec, error) {
	fields := splitFields(s)
	var spec varSpec
	if n := len(fields); n > 1 && fields[n-1] == "stop" {
		spec.alwaysStop = true
		fields = fields[:n-1]
	}
	if len(fields) == 0 || fields[0] == "" {
		return varSpec{}, fmt.Errorf("variable %q has no name", s)
	}
	if len(fields) > 3 {
		return varSpec{}, fmt.Errorf("variable %q: want NAME:EXPR[:DEFAULT][:stop]", s)
	}
	spec.name = fields[0]
	if len(fields) > 1 {
		spec.expression = fields[1]
	}
	if len(fields) > 2 {
		spec.def = fields[2]
	}
	return spec, nil
}

func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ':' && !quoted:
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(fields, cur.String())
}

// parseRange parses start:end.
func parseRange(s string) (start, end int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("want start:end, got %q", s)
	}
	if start, err = strconv.Atoi(a); err != nil {
		return 0, 0, fmt.Errorf("selection start: %w", err)
	}
	if end, err = strconv.Atoi(b); err != nil {
		return 0, 0, fmt.Errorf("selection end: %w", err)
	}
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("selection %d:%d is not a range", start, end)
	}
	return start, end, nil
}

var errNoTemplate = errors.New("no template given (use -template)")

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{offset: -1, sets: setFlags{}}
	fs := flag.NewFlagSet("tabstop", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.source, "template", "", "Template text with $NAME$ segments")
	fs.StringVar(&opts.source, "t", "", "Template text (shorthand)")
	fs.StringVar(&opts.scriptPath, "script", "", "Lua file whose global functions become template functions")
	fs.StringVar(&opts.inputPath, "input", "", "File holding the document to expand into")
	fs.IntVar(&opts.offset, "offset", -1, "Insertion offset (default: end of document)")
	fs.StringVar(&opts.selection, "selection", "", "Selected range start:end, replaced by the template")
	fs.BoolVar(&opts.indent, "indent", false, "Indent template lines like the insertion line")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.showVersion, "v", false, "Show version information (shorthand)")
	fs.Var(&opts.vars, "var", "Variable NAME:EXPR[:DEFAULT][:stop] (repeatable)")
	fs.Var(opts.sets, "set", "Predefined value NAME=VALUE (repeatable)")
	fs.Var(&opts.answers, "answer", "Text typed at each stop in order (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "tabstop - expand a live template\n\n")
		fmt.Fprintf(stderr, "Usage: tabstop [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tabstop -t 'for ($I$ = 0; $I$ < $N$; $I$++) {$END$}' -var 'I::\"i\"' -var N -answer j -answer 10\n")
		fmt.Fprintf(stderr, "  tabstop -t '<b>$SELECTION$</b>' -input page.html -selection 10:14\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.showVersion {
		return opts, nil
	}
	if opts.source == "" {
		return opts, errNoTemplate
	}
	return opts, nil
}
