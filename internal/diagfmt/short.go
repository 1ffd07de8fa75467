package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"constcheck/internal/diag"
	"constcheck/internal/source"
)

// Short renders one compact line per diagnostic plus one per note:
//
//	error CHK3001 demo.rs:1:46 cannot call non-const operator in constant context
//	note CHK3001 demo.rs:1:46 calls in constant contexts are limited to const-capable paths
//
// Messages are flattened onto a single line. The format is stable and is
// what golden-file tests compare against.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, pathMode PathMode) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s %s %s %s\n",
			strings.ToLower(d.Severity.String()),
			d.Code.ID(),
			shortLocation(fs, d.Primary, pathMode),
			flatten(d.Message))
		for _, n := range d.Notes {
			fmt.Fprintf(w, "note %s %s %s\n",
				d.Code.ID(),
				shortLocation(fs, n.Span, pathMode),
				flatten(n.Msg))
		}
	}
}

func shortLocation(fs *source.FileSet, span source.Span, pathMode PathMode) string {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(pathMode.mode(), fs.BaseDir()), start.Line, start.Col)
}

func flatten(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
