package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"promptlint/internal/diag"
	"promptlint/internal/source"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	dimColor  = color.New(color.Faint)
)

// Pretty renders diagnostics human-readably. It walks bag.Items() in order,
// so callers should bag.Sort() first. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <context line>
//	    <caret underline>
//
// followed by its notes and, with ShowFixes, its suggested repairs.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printHeader(w, fs, d, opts)
		printContext(w, fs, d.Primary, d.Severity, opts)
		if opts.ShowNotes {
			for _, note := range d.Notes {
				fmt.Fprintf(w, "  note: %s\n", note.Msg)
				printContext(w, fs, note.Span, diag.SevInfo, opts)
			}
		}
		if opts.ShowFixes {
			for _, fix := range d.Fixes {
				fmt.Fprintf(w, "  fix: %s\n", fix.Title)
			}
		}
	}
}

func printHeader(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	path := formatPath(fs, d.Primary.File, opts.PathMode)

	sev := d.Severity.String()
	code := d.Code.ID()
	if opts.Color {
		sev = severityColor(d.Severity).Sprint(sev)
		code = dimColor.Sprint(code)
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, start.Line, start.Col, sev, code, d.Message)
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	}
	return infoColor
}

// printContext prints the source line the span starts on with a ^~~~
// underline beneath the spanned bytes. Widths are measured per rune so the
// caret lines up under east-asian and combining text too.
func printContext(w io.Writer, fs *source.FileSet, span source.Span, sev diag.Severity, opts PrettyOpts) {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	line := f.GetLine(start.Line)

	prefixBytes := int(start.Col) - 1
	if prefixBytes > len(line) {
		prefixBytes = len(line)
	}
	spanLen := int(span.End - span.Start)
	if spanLen < 1 {
		spanLen = 1
	}
	if prefixBytes+spanLen > len(line) {
		spanLen = len(line) - prefixBytes
		if spanLen < 1 {
			spanLen = 1
		}
	}

	display := line
	if opts.Width > 0 {
		display = runewidth.Truncate(display, opts.Width, "…")
	}
	fmt.Fprintf(w, "    %s\n", display)

	pad := runewidth.StringWidth(line[:prefixBytes])
	underWidth := runewidth.StringWidth(substr(line, prefixBytes, spanLen))
	if underWidth < 1 {
		underWidth = 1
	}
	underline := "^" + strings.Repeat("~", underWidth-1)
	if opts.Color {
		underline = severityColor(sev).Sprint(underline)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", pad), underline)
}

func substr(s string, off, n int) string {
	if off >= len(s) {
		return ""
	}
	end := off + n
	if end > len(s) {
		end = len(s)
	}
	return s[off:end]
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f.Flags&source.FileVirtual != 0 {
		// Virtual names like doc.json#messages[0].text are not real paths.
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}
