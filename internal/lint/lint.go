// Package lint runs the delimiter and flow checks over a decoded prompt
// document and, in fix mode, substitutes verified repairs.
package lint

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"promptlint/internal/diag"
	"promptlint/internal/fixer"
	"promptlint/internal/prompt"
	"promptlint/internal/scan"
	"promptlint/internal/source"
	"promptlint/internal/tmpl"
)

// Options selects what a run checks and whether it repairs.
type Options struct {
	// Fix asks the fixer for a verified repair of each dirty field.
	Fix bool
	// Flow enables the template flow checks.
	Flow bool
	// Fields restricts linting to string leaves under these object keys.
	// Empty means every string leaf.
	Fields []string
	// Policy drives the delimiter scanner.
	Policy scan.Policy
}

// FieldReport is the outcome for one dirty string field. Clean fields do not
// produce reports.
type FieldReport struct {
	Path     prompt.FieldPath
	FileID   source.FileID
	Text     string
	Findings []scan.Finding
	Flow     []tmpl.Finding
	Proposal *fixer.Proposal
	Resolved bool
	FixErr   error
}

// Result is the outcome of linting one document.
type Result struct {
	Document *prompt.Value
	Fields   []FieldReport
	Changed  bool
}

// Fixed counts fields whose repair was applied.
func (r *Result) Fixed() int {
	n := 0
	for i := range r.Fields {
		if r.Fields[i].Resolved {
			n++
		}
	}
	return n
}

// Unresolved counts fields that still carry problems.
func (r *Result) Unresolved() int {
	n := 0
	for i := range r.Fields {
		if !r.Fields[i].Resolved {
			n++
		}
	}
	return n
}

// Run walks every string leaf of doc, scans it, and collects a report per
// dirty field. Each dirty field's text is registered as a virtual file in fs
// under displayPath#fieldPath so diagnostics resolve to lines and columns
// inside the field. The walk never aborts; every field gets its verdict.
//
// In fix mode a field with only unclosed openers and no flow findings is
// repaired in the returned document, provided the repaired text passes the
// flow check too. Fields the fixer declines keep their original text and
// record the reason in FixErr.
func Run(fs *source.FileSet, displayPath string, doc *prompt.Value, opts Options) *Result {
	res := &Result{}

	rebuilt, changed := prompt.Walk(doc, func(path prompt.FieldPath, text string) (string, bool) {
		if !fieldSelected(path, opts.Fields) {
			return "", false
		}
		findings := scan.Scan(text, opts.Policy)
		var flow []tmpl.Finding
		if opts.Flow {
			flow = tmpl.Check(text)
			// Plain brace balance is already the scanner's job when the
			// policy tracks {}; keep only the flow-specific findings.
			if policyTracksBraces(opts.Policy) {
				kept := flow[:0]
				for _, f := range flow {
					if f.Kind != tmpl.UnmatchedBrace && f.Kind != tmpl.UnclosedBrace {
						kept = append(kept, f)
					}
				}
				flow = kept
			}
		}
		if len(findings) == 0 && len(flow) == 0 {
			return "", false
		}

		report := FieldReport{
			Path:     path,
			FileID:   fs.AddVirtual(fmt.Sprintf("%s#%s", displayPath, path), []byte(text)),
			Text:     text,
			Findings: findings,
			Flow:     flow,
		}

		replacement := ""
		if opts.Fix && len(flow) == 0 {
			proposal, err := fixer.Propose(text, findings, opts.Policy)
			switch {
			case err != nil:
				report.FixErr = err
			case opts.Flow && len(tmpl.Check(proposal.Repaired)) > 0:
				// An appended closer can complete a control token that had
				// been neutralized by the imbalance: "{#if (x" repairs to
				// "{#if (x)}", a live {#if} with no {#endif}.
				report.FixErr = fmt.Errorf("repair would introduce flow problems: %w", fixer.ErrVerificationFailed)
			default:
				report.Proposal = proposal
				report.Resolved = true
				replacement = proposal.Repaired
			}
		}
		res.Fields = append(res.Fields, report)
		return replacement, report.Resolved
	})

	res.Document = rebuilt
	res.Changed = changed
	return res
}

func policyTracksBraces(p scan.Policy) bool {
	for _, pair := range p.Pairs {
		if pair == scan.Brace {
			return true
		}
	}
	return false
}

// fieldSelected applies the key restriction: the leaf must sit under one of
// the allowed object keys. Array elements inherit the nearest key above them.
func fieldSelected(path prompt.FieldPath, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	for i := len(path) - 1; i >= 0; i-- {
		if !path[i].IsKey {
			continue
		}
		for _, f := range fields {
			if path[i].Key == f {
				return true
			}
		}
		return false
	}
	return false
}

// Diagnose turns the collected reports into diagnostics. Repaired fields
// report at info severity so fix mode exits clean when nothing is left;
// everything unresolved reports as an error.
func (r *Result) Diagnose(rep diag.Reporter) {
	for i := range r.Fields {
		f := &r.Fields[i]
		for _, finding := range f.Findings {
			code, msg := scanFindingDiag(finding)
			d := diag.Diagnostic{
				Severity: diag.SevError,
				Code:     code,
				Message:  msg,
				Primary:  delimSpan(f.FileID, finding),
			}
			if f.Resolved {
				d.Severity = diag.SevInfo
				d.Code = diag.LintFixApplied
				d.Message = msg + " (repaired)"
			} else if finding.Kind == scan.UnclosedOpen {
				d = d.WithFix(
					fmt.Sprintf("insert missing %q", finding.Pair.Close),
					diag.FixEdit{Span: endSpan(f.FileID, f.Text), NewText: string(finding.Pair.Close)},
				)
			}
			rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes, d.Fixes)
		}
		for _, finding := range f.Flow {
			code := flowCode(finding.Kind)
			rep.Report(code, diag.SevError, source.At(f.FileID, finding.Offset), code.Title(), nil, nil)
		}
		if errors.Is(f.FixErr, fixer.ErrVerificationFailed) {
			rep.Report(diag.LintUnverifiableFix, diag.SevError, endSpan(f.FileID, f.Text),
				"proposed repair failed verification; field left untouched", nil, nil)
		}
	}
}

func scanFindingDiag(f scan.Finding) (diag.Code, string) {
	switch f.Kind {
	case scan.UnmatchedClose:
		return diag.LintUnmatchedClose, fmt.Sprintf("closing %q has no matching opener", f.Pair.Close)
	case scan.UnclosedOpen:
		return diag.LintUnclosedOpen, fmt.Sprintf("opening %q is never closed", f.Pair.Open)
	}
	return diag.LintInfo, "balance finding"
}

func delimSpan(file source.FileID, f scan.Finding) source.Span {
	r := f.Pair.Open
	if f.Kind == scan.UnmatchedClose {
		r = f.Pair.Close
	}
	n, err := safeRuneLen(r)
	if err != nil {
		return source.At(file, f.Offset)
	}
	return source.Span{File: file, Start: f.Offset, End: f.Offset + n}
}

func safeRuneLen(r rune) (uint32, error) {
	n := utf8.RuneLen(r)
	if n <= 0 {
		return 0, fmt.Errorf("invalid rune %q", r)
	}
	return uint32(n), nil
}

func endSpan(file source.FileID, text string) source.Span {
	end := uint32(len(text))
	return source.Span{File: file, Start: end, End: end}
}

func flowCode(k tmpl.Kind) diag.Code {
	switch k {
	case tmpl.IllegalNesting:
		return diag.FlowIllegalNesting
	case tmpl.UnmatchedBrace:
		return diag.FlowUnmatchedBrace
	case tmpl.UnclosedBrace:
		return diag.FlowUnclosedBrace
	case tmpl.OrphanElseIf:
		return diag.FlowOrphanElseIf
	case tmpl.OrphanElse:
		return diag.FlowOrphanElse
	case tmpl.OrphanEndIf:
		return diag.FlowOrphanEndIf
	case tmpl.ElseIfAfterElse:
		return diag.FlowElseIfAfterElse
	case tmpl.DuplicateElse:
		return diag.FlowDuplicateElse
	case tmpl.UnclosedIf:
		return diag.FlowUnclosedIf
	case tmpl.UnbalancedCondition:
		return diag.FlowUnbalancedCondition
	}
	return diag.FlowInfo
}
