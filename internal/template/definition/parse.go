package definition

import (
	"strings"

	"github.com/dshills/tabstop/internal/template/expr"
)

// Reserved segment names.
const (
	End            = "END"
	Selection      = "SELECTION"
	SelectionStart = "SELECTION_START"
	SelectionEnd   = "SELECTION_END"
)

// IsReserved reports whether name is a reserved segment name.
func IsReserved(name string) bool {
	switch name {
	case End, Selection, SelectionStart, SelectionEnd:
		return true
	}
	return false
}

// ParseSource splits a template source into its text and segments.
// A '$' that does not open a $NAME$ marker is kept as text.
func ParseSource(source string) (string, []Segment) {
	var (
		b        strings.Builder
		segments []Segment
	)
	for i := 0; i < len(source); {
		c := source[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		j := strings.IndexByte(source[i+1:], '$')
		if j < 0 {
			b.WriteString(source[i:])
			break
		}
		name := source[i+1 : i+1+j]
		switch {
		case name == "":
			b.WriteByte('$')
			i += 2
		case expr.IsValidIdentifier(name):
			segments = append(segments, Segment{Name: name, Offset: b.Len()})
			i += j + 2
		default:
			b.WriteByte('$')
			i++
		}
	}
	return b.String(), segments
}

// buildSource renders text and segments back into source form.
func buildSource(text string, segments []Segment) string {
	var b strings.Builder
	pos := 0
	write := func(s string) {
		b.WriteString(strings.ReplaceAll(s, "$", "$$"))
	}
	for _, seg := range segments {
		write(text[pos:seg.Offset])
		b.WriteString("$" + seg.Name + "$")
		pos = seg.Offset
	}
	write(text[pos:])
	return b.String()
}
