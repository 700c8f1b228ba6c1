package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = runArgs(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestParseVar(t *testing.T) {
	tests := []struct {
		input string
		want  varSpec
	}{
		{"N", varSpec{name: "N"}},
		{"N:lowercase(M)", varSpec{name: "N", expression: "lowercase(M)"}},
		{`I::"i"`, varSpec{name: "I", def: `"i"`}},
		{`I:"i"::stop`, varSpec{name: "I", expression: `"i"`, alwaysStop: true}},
		{`T:date("HH:mm")`, varSpec{name: "T", expression: `date("HH:mm")`}},
		{`Q:"a\":b"`, varSpec{name: "Q", expression: `"a\":b"`}},
	}
	for _, tt := range tests {
		got, err := parseVar(tt.input)
		if err != nil {
			t.Errorf("parseVar(%q) error: %v", tt.input, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(varSpec{})); diff != "" {
			t.Errorf("parseVar(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}

	for _, bad := range []string{"", ":x", "a:b:c:d"} {
		if _, err := parseVar(bad); err == nil {
			t.Errorf("parseVar(%q) succeeded", bad)
		}
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("3:7")
	if err != nil || start != 3 || end != 7 {
		t.Errorf("parseRange(3:7) = %d, %d, %v", start, end, err)
	}
	for _, bad := range []string{"3", "a:1", "1:b", "5:2", "-1:2"} {
		if _, _, err := parseRange(bad); err == nil {
			t.Errorf("parseRange(%q) succeeded", bad)
		}
	}
}

func TestRunForLoop(t *testing.T) {
	stdout, stderr, code := runCLI(t,
		"-template", "for ($INDEX$ = 0; $INDEX$ < $LIMIT$; $INDEX$++) {\n$END$\n}",
		"-var", `INDEX:"i"::stop`,
		"-var", "LIMIT",
		"-answer", "j",
		"-answer", "10",
	)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if want := "for (j = 0; j < 10; j++) {\n\n}\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "caret 27") {
		t.Errorf("stderr = %q, want the final caret", stderr)
	}
}

func TestRunSelection(t *testing.T) {
	input := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(input, []byte("say hi now"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCLI(t,
		"-t", "<b>$SELECTION$</b>$END$",
		"-input", input,
		"-selection", "4:6",
	)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if want := "say <b>hi</b> now\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "caret 13") {
		t.Errorf("stderr = %q, want caret 13", stderr)
	}
}

func TestRunScriptFunctions(t *testing.T) {
	script := filepath.Join(t.TempDir(), "fn.lua")
	if err := os.WriteFile(script, []byte("function shout(s) return string.upper(s) end"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCLI(t,
		"-t", "$A$ $B$",
		"-script", script,
		"-var", "A",
		"-var", "B:shout(A)",
		"-set", "A=hey",
	)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if want := "hey HEY\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no template", nil, 2},
		{"bad var", []string{"-t", "x", "-var", ":x"}, 2},
		{"bad set", []string{"-t", "x", "-set", "novalue"}, 2},
		{"reserved variable", []string{"-t", "$END$", "-var", "END"}, 1},
		{"selection beyond input", []string{"-t", "x", "-selection", "0:4"}, 1},
		{"missing input", []string{"-t", "x", "-input", "/does/not/exist"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, stderr, code := runCLI(t, tt.args...); code != tt.code {
				t.Errorf("exit code %d, want %d (stderr: %s)", code, tt.code, stderr)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "-version")
	if code != 0 || !strings.HasPrefix(stdout, "tabstop dev") {
		t.Errorf("-version = %q, %d", stdout, code)
	}
}
