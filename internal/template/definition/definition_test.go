package definition

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/tabstop/internal/template/expr"
)

func testRegistry() *expr.Registry {
	reg := expr.NewRegistry()
	reg.MustRegister(expr.FuncOf("upper", func(ctx expr.Context, args []expr.Expression) *expr.Result {
		return expr.NewResult(strings.ToUpper(expr.EvalArgs(ctx, args)[0]))
	}))
	return reg
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		text     string
		segments []Segment
	}{
		{"plain", "hello", "hello", nil},
		{"one", "a $X$ b", "a  b", []Segment{{"X", 2}}},
		{"adjacent", "$A$$B$", "", []Segment{{"A", 0}, {"B", 0}}},
		{"escaped dollar", "cost: $$5", "cost: $5", nil},
		{"unmatched", "price $5", "price $5", nil},
		{"not an identifier", "$a b$ $C$", "$a b$ ", []Segment{{"C", 6}}},
		{"end", "for {\n  $END$\n}", "for {\n  \n}", []Segment{{"END", 8}}},
		{"repeated", "$V$ and $V$", " and ", []Segment{{"V", 0}, {"V", 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, segments := ParseSource(tt.source)
			if text != tt.text {
				t.Errorf("text = %q, want %q", text, tt.text)
			}
			if diff := cmp.Diff(tt.segments, segments); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSourceRoundTrip(t *testing.T) {
	for _, src := range []string{
		"a $X$ b",
		"$A$$B$",
		"cost: $$5 $END$",
		"price $5",
		"for (int $I$ = 0; $I$ < $N$; $I$++) {\n  $END$\n}",
	} {
		text, segments := ParseSource(src)
		rebuilt := buildSource(text, segments)
		text2, segments2 := ParseSource(rebuilt)
		if text2 != text || !cmp.Equal(segments, segments2) {
			t.Errorf("round trip of %q via %q changed the template", src, rebuilt)
		}
	}
}

func TestBuild(t *testing.T) {
	reg := testRegistry()
	tpl, err := New("fori", "for (int $I$ = 0; $I$ < $N$; $I$++) {\n  $END$\n}").
		Group("java").
		Description("indexed loop").
		Flags(Flags{Reformat: true}).
		Variable("I", "", `"i"`, true).
		Variable("N", "upper(I)", "", false).
		SkipOnStart("N").
		Build(reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if tpl.Key() != "fori" || tpl.Group() != "java" || tpl.Description() != "indexed loop" {
		t.Errorf("metadata = %q %q %q", tpl.Key(), tpl.Group(), tpl.Description())
	}
	if !tpl.Flags().Reformat {
		t.Error("Reformat flag lost")
	}
	if got := tpl.SegmentsFor("I"); !cmp.Equal(got, []int{0, 1, 3}) {
		t.Errorf("SegmentsFor(I) = %v", got)
	}
	if !tpl.HasEnd() {
		t.Error("HasEnd() = false")
	}
	n, ok := tpl.Variable("N")
	if !ok || !n.SkipOnStart || n.AlwaysStop {
		t.Errorf("Variable(N) = %+v, %v", n, ok)
	}
	if _, ok := n.Expression.(*expr.FunctionCall); !ok {
		t.Errorf("N expression is %T, want *expr.FunctionCall", n.Expression)
	}
	i, _ := tpl.Variable("I")
	if got := i.Default.Calculate(expr.Background()).String(); got != "i" {
		t.Errorf("I default = %q, want i", got)
	}
	if tpl.IsSelectionTemplate() {
		t.Error("IsSelectionTemplate() = true")
	}
}

func TestBuildErrors(t *testing.T) {
	reg := testRegistry()

	_, err := New("t", "$END$").Variable("END", "", "", false).Build(reg)
	if !errors.Is(err, ErrReservedName) {
		t.Errorf("reserved name error = %v", err)
	}

	_, err = New("", "x").Build(reg)
	if !errors.Is(err, ErrInvalidTemplate) || !strings.Contains(err.Error(), "Key is required") {
		t.Errorf("empty key error = %v", err)
	}

	_, err = New("t", "x").Variable("1bad", "", "", false).Build(reg)
	if !errors.Is(err, ErrInvalidTemplate) || !strings.Contains(err.Error(), "not an identifier") {
		t.Errorf("bad name error = %v", err)
	}
}

func TestSelectionTemplate(t *testing.T) {
	reg := testRegistry()
	tests := []struct {
		name string
		b    *Builder
		want bool
	}{
		{"segment", New("a", "<b>$SELECTION$</b>"), true},
		{"expression", New("b", "$X$").Variable("X", "upper(SELECTION)", "", false), true},
		{"default", New("c", "$X$").Variable("X", "", "SELECTION", false), true},
		{"neither", New("d", "$X$").Variable("X", `"x"`, "", false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.MustBuild(reg).IsSelectionTemplate(); got != tt.want {
				t.Errorf("IsSelectionTemplate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithoutVariables(t *testing.T) {
	tpl := New("t", "$A$ $B$ $END$ $B$ $C$").Variable("A", "", "", false).MustBuild(testRegistry())
	if diff := cmp.Diff([]string{"B", "C"}, tpl.WithoutVariables()); diff != "" {
		t.Errorf("WithoutVariables() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTemplateRoundTrip(t *testing.T) {
	reg := testRegistry()
	orig := New("t", "$$ $X$ = $Y$;$END$").
		Group("g").
		Flags(Flags{Indent: true, Inline: true}).
		Variable("X", `upper("a")`, `"d"`, true).
		Variable("Y", "X", "", false).
		SkipOnStart("Y").
		MustBuild(reg)

	rebuilt, err := FromTemplate(orig).Build(reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	exprEqual := cmp.Comparer(func(a, b expr.Expression) bool { return a.String() == b.String() })
	if diff := cmp.Diff(orig, rebuilt, cmp.AllowUnexported(Template{}), exprEqual); diff != "" {
		t.Errorf("rebuilt template mismatch (-want +got):\n%s", diff)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	tpl := New("t", "$A$").Variable("A", "", "", false).MustBuild(testRegistry())
	segs := tpl.Segments()
	segs[0].Name = "Z"
	vars := tpl.Variables()
	vars[0].Name = "Z"
	if tpl.Segment(0).Name != "A" || tpl.VariableAt(0).Name != "A" {
		t.Error("mutating a returned slice changed the template")
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry()
	a := New("a", "x").Group("one").MustBuild(reg)
	b := New("b", "y").Group("two").MustBuild(reg)
	c := New("c", "z").Group("one").MustBuild(reg)
	repo := NewMemoryRepository(c, a)

	if err := repo.Put(ctx, b); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "b")
	if err != nil || got != b {
		t.Errorf("Get(b) = %v, %v", got, err)
	}

	list, _ := repo.List(ctx, "one")
	if len(list) != 2 || list[0] != a || list[1] != c {
		t.Errorf("List(one) = %v", list)
	}
	all, _ := repo.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("List(\"\") returned %d templates, want 3", len(all))
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := repo.Get(cancelled, "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get with cancelled context error = %v", err)
	}
}
