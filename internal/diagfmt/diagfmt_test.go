package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"promptlint/internal/diag"
	"promptlint/internal/source"
)

func buildBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.json#a", []byte("Hello (world"))

	bag := diag.NewBag(16)
	d := diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.LintUnclosedOpen,
		Message:  `opening '(' is never closed`,
		Primary:  source.Span{File: id, Start: 6, End: 7},
	}
	d = d.WithFix("insert missing ')'", diag.FixEdit{
		Span:    source.Span{File: id, Start: 12, End: 12},
		NewText: ")",
	})
	bag.Add(d)
	return bag, fs
}

func TestShortFormat(t *testing.T) {
	bag, fs := buildBag(t)
	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeAuto)

	want := "doc.json#a:1:7: ERROR LNT1002 opening '(' is never closed\n"
	if buf.String() != want {
		t.Fatalf("Short = %q, want %q", buf.String(), want)
	}
}

func TestPrettyLayout(t *testing.T) {
	bag, fs := buildBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Pretty produced %d lines, want 4:\n%s", len(lines), out)
	}
	if lines[0] != "doc.json#a:1:7: ERROR LNT1002: opening '(' is never closed" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "    Hello (world" {
		t.Fatalf("context = %q", lines[1])
	}
	if lines[2] != "          ^" {
		t.Fatalf("caret = %q", lines[2])
	}
	if lines[3] != "  fix: insert missing ')'" {
		t.Fatalf("fix line = %q", lines[3])
	}
}

func TestPrettyWideSpan(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f", []byte("abcdef"))
	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.LintInfo,
		Message:  "wide",
		Primary:  source.Span{File: id, Start: 1, End: 4},
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if !strings.Contains(buf.String(), "\n     ^~~\n") {
		t.Fatalf("missing three-column underline:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := buildBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d, diagnostics = %d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Code != "LNT1002" || d.Severity != "ERROR" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 7 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != ")" {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f", []byte("x"))
	bag := diag.NewBag(8)
	for i := 0; i < 3; i++ {
		bag.Add(diag.Diagnostic{Code: diag.LintInfo, Primary: source.At(id, 0)})
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("truncated output = %+v", out)
	}
}
