package diag

import (
	"testing"

	"promptlint/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{LintUnmatchedClose, "LNT1001"},
		{LintUnclosedOpen, "LNT1002"},
		{FlowIllegalNesting, "FLW2001"},
		{IOMalformedInput, "IO4002"},
		{UnknownCode, "E0000"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.want {
			t.Fatalf("ID(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestBagCap(t *testing.T) {
	bag := NewBag(2)
	for i := 0; i < 3; i++ {
		bag.Add(Diagnostic{Code: LintInfo})
	}
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want cap 2", bag.Len())
	}
	if bag.Add(Diagnostic{}) {
		t.Fatal("Add over cap must report the drop")
	}
}

func TestBagHasErrors(t *testing.T) {
	bag := NewBag(8)
	bag.Add(Diagnostic{Severity: SevInfo})
	bag.Add(Diagnostic{Severity: SevWarning})
	if bag.HasErrors() {
		t.Fatal("no errors yet")
	}
	if !bag.HasWarnings() {
		t.Fatal("warning not seen")
	}
	bag.Add(Diagnostic{Severity: SevError})
	if !bag.HasErrors() {
		t.Fatal("error not seen")
	}
}

func TestBagSortOrder(t *testing.T) {
	bag := NewBag(8)
	bag.Add(Diagnostic{Code: LintInfo, Primary: span(1, 5, 6)})
	bag.Add(Diagnostic{Code: LintInfo, Primary: span(0, 9, 10)})
	bag.Add(Diagnostic{Code: LintInfo, Primary: span(0, 2, 3)})
	bag.Sort()

	items := bag.Items()
	if items[0].Primary.Start != 2 || items[1].Primary.Start != 9 || items[2].Primary.File != 1 {
		t.Fatalf("sort order wrong: %+v", items)
	}
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(8)
	d := Diagnostic{Code: LintUnclosedOpen, Primary: span(0, 1, 2)}
	bag.Add(d)
	bag.Add(d)
	bag.Add(Diagnostic{Code: LintUnclosedOpen, Primary: span(0, 3, 4)})
	bag.Dedup()
	if bag.Len() != 2 {
		t.Fatalf("dedup left %d items, want 2", bag.Len())
	}
}

func TestBagFilterAndTransform(t *testing.T) {
	bag := NewBag(8)
	bag.Add(Diagnostic{Severity: SevWarning, Code: LintInfo})
	bag.Add(Diagnostic{Severity: SevError, Code: LintUnclosedOpen})

	bag.Transform(func(d Diagnostic) Diagnostic {
		if d.Severity == SevWarning {
			d.Severity = SevError
		}
		return d
	})
	if !bag.HasErrors() || bag.Items()[0].Severity != SevError {
		t.Fatalf("transform failed: %+v", bag.Items())
	}

	bag.Filter(func(d *Diagnostic) bool { return d.Code != LintInfo })
	if bag.Len() != 1 {
		t.Fatalf("filter left %d items, want 1", bag.Len())
	}
}

func TestWithNoteAndFixCopy(t *testing.T) {
	base := Diagnostic{Code: LintUnclosedOpen}
	noted := base.WithNote(span(0, 1, 2), "opened here")
	if len(base.Notes) != 0 || len(noted.Notes) != 1 {
		t.Fatalf("WithNote mutated the receiver: base=%d noted=%d", len(base.Notes), len(noted.Notes))
	}
	fixed := noted.WithFix("insert ')'", FixEdit{Span: span(0, 2, 2), NewText: ")"})
	if len(fixed.Fixes) != 1 || fixed.Fixes[0].Title != "insert ')'" {
		t.Fatalf("WithFix result = %+v", fixed.Fixes)
	}
}

func TestBagReporter(t *testing.T) {
	bag := NewBag(4)
	rep := BagReporter{Bag: bag}
	rep.Report(LintUnclosedOpen, SevError, span(0, 0, 1), "msg", nil, nil)
	if bag.Len() != 1 || bag.Items()[0].Message != "msg" {
		t.Fatalf("reporter did not collect: %+v", bag.Items())
	}
	NopReporter{}.Report(LintInfo, SevInfo, source.Span{}, "ignored", nil, nil)
}
