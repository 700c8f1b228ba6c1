package builtin

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/tabstop/internal/template/expr"
)

func textFunctions() []expr.Function {
	return []expr.Function{
		&stringFunc{name: "concat", maxArgs: -1, fn: func(args []string) string {
			return strings.Join(args, "")
		}},
		&stringFunc{name: "substringBefore", minArgs: 2, maxArgs: 2, fn: func(args []string) string {
			before, _, found := strings.Cut(args[0], args[1])
			if !found {
				return ""
			}
			return before
		}},
		unary("capitalize", capitalize),
		unary("decapitalize", decapitalize),
		unary("lowercase", func(s string) string { return cases.Lower(language.Und).String(s) }),
		unary("uppercase", func(s string) string { return cases.Upper(language.Und).String(s) }),
		unary("snakeCase", snakeCase),
		unary("camelCase", camelCase),
		unary("spaceSeparated", func(s string) string { return strings.Join(words(s), " ") }),
		&stringFunc{name: "regularExpression", minArgs: 3, maxArgs: 3, fn: func(args []string) string {
			re, err := regexp.Compile(args[1])
			if err != nil {
				return args[0]
			}
			return re.ReplaceAllString(args[0], args[2])
		}},
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

func decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Lower(language.Und).String(string(r)) + s[size:]
}

// snakeCase lowercases s, turns '-' and ' ' into '_' and splits camel
// humps with '_'. Leading and trailing separators are kept.
func snakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return cases.Lower(language.Und).String(b.String())
}

func camelCase(s string) string {
	lower := cases.Lower(language.Und)
	var b strings.Builder
	for i, w := range words(s) {
		w = lower.String(w)
		if i > 0 {
			w = capitalize(w)
		}
		b.WriteString(w)
	}
	return b.String()
}

// words splits s at non-alphanumeric runes and at camel humps. A run of
// capitals followed by a lowercase letter keeps its last capital for the
// next word, so "HTTPServer" is "HTTP", "Server".
func words(s string) []string {
	var out []string
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsLower(r) && unicode.IsUpper(prev) && i-1 > start:
			flush(i - 1)
			start = i - 1
		}
	}
	flush(len(runes))
	return out
}
