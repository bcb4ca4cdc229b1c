package diagfmt

import (
	"fmt"
	"io"

	"promptlint/internal/diag"
	"promptlint/internal/source"
)

// Short prints one stable line per diagnostic, suitable for diffing and for
// golden files:
//
//	<path>:<line>:<col>: <SEV> <CODE> <message>
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, pathMode PathMode) {
	for _, d := range bag.Items() {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s %s\n",
			formatPath(fs, d.Primary.File, pathMode),
			start.Line, start.Col,
			d.Severity.String(), d.Code.ID(), d.Message)
	}
}
