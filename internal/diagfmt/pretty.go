package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"constcheck/internal/diag"
	"constcheck/internal/source"
)

type prettyStyles struct {
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	accent  *color.Color
	gutter  *color.Color
	added   *color.Color
	heading *color.Color
}

func newPrettyStyles(enabled bool) prettyStyles {
	s := prettyStyles{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		accent:  color.New(color.FgBlue, color.Bold),
		gutter:  color.New(color.FgBlue),
		added:   color.New(color.FgGreen),
		heading: color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.err, s.warn, s.info, s.accent, s.gutter, s.added, s.heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s prettyStyles) severity(sev diag.Severity) (*color.Color, string) {
	switch sev {
	case diag.SevError:
		return s.err, "error"
	case diag.SevWarning:
		return s.warn, "warning"
	default:
		return s.info, "info"
	}
}

// Pretty renders diagnostics in a human-readable layout:
//
//	error[CHK3001]: cannot call non-const operator in constant context
//	  --> demo.rs:1:46
//	   |
//	 1 | const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }
//	   |                                              ^^^^^^
//	   = note: calls in constant contexts are limited to const-capable paths
//	help: consider further restricting this bound
//	   |
//	 1 | const fn check<T: Eq2 + ~const core::cmp::Eq2>(a: T, b: T) -> bool { a == b }
//	   |                      ++++++++++++++++++++++++
//
// The bag is rendered in its current order; call bag.Sort() beforehand when
// output spans several files.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	styles := newPrettyStyles(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, styles)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, styles prettyStyles) {
	sevStyle, sevName := styles.severity(d.Severity)
	header := sevStyle.Sprintf("%s[%s]", sevName, d.Code.ID())
	fmt.Fprintf(w, "%s%s %s\n", header, styles.heading.Sprint(":"), styles.heading.Sprint(d.Message))

	file := fs.Get(d.Primary.File)
	start, _ := fs.Resolve(d.Primary)
	path := file.FormatPath(opts.PathMode.mode(), fs.BaseDir())
	gutterWidth := len(fmt.Sprintf("%d", start.Line))
	pad := strings.Repeat(" ", gutterWidth)

	fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad, styles.accent.Sprint("-->"), path, start.Line, start.Col)
	writeContext(w, file, d.Primary, start, '^', sevStyle, styles, gutterWidth)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(w, "%s %s %s %s\n", pad, styles.gutter.Sprint("="), styles.heading.Sprint("note:"), n.Msg)
		}
	}

	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(w, "%s %s\n", styles.heading.Sprint("help:"), f.Title)
			for _, edit := range f.Edits {
				writeEditPreview(w, fs, edit, styles, gutterWidth)
			}
		}
	}
}

// writeContext prints the source line holding the span's start with an
// underline beneath the covered text.
func writeContext(w io.Writer, file *source.File, span source.Span, start source.LineCol, mark byte, markStyle *color.Color, styles prettyStyles, gutterWidth int) {
	line := file.GetLine(start.Line)
	pad := strings.Repeat(" ", gutterWidth)

	fmt.Fprintf(w, "%s %s\n", pad, styles.gutter.Sprint("|"))
	fmt.Fprintf(w, "%s %s %s\n", styles.gutter.Sprintf("%*d", gutterWidth, start.Line), styles.gutter.Sprint("|"), line)

	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	width := int(span.Len())
	if col+width > len(line) {
		width = len(line) - col
	}
	if width < 1 {
		width = 1
	}
	lead := runewidth.StringWidth(line[:col])
	marks := strings.Repeat(string(mark), displayWidth(line, col, width))
	fmt.Fprintf(w, "%s %s %s%s\n", pad, styles.gutter.Sprint("|"), strings.Repeat(" ", lead), markStyle.Sprint(marks))
}

// writeEditPreview renders the line as it would look with the edit applied,
// marking inserted text with '+'.
func writeEditPreview(w io.Writer, fs *source.FileSet, edit diag.TextEdit, styles prettyStyles, gutterWidth int) {
	file := fs.Get(edit.Span.File)
	start, _ := fs.Resolve(edit.Span)
	line := file.GetLine(start.Line)
	pad := strings.Repeat(" ", gutterWidth)

	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	removed := int(edit.Span.Len())
	if col+removed > len(line) {
		removed = len(line) - col
	}
	edited := line[:col] + edit.NewText + line[col+removed:]

	fmt.Fprintf(w, "%s %s\n", pad, styles.gutter.Sprint("|"))
	fmt.Fprintf(w, "%s %s %s\n", styles.gutter.Sprintf("%*d", gutterWidth, start.Line), styles.gutter.Sprint("|"), edited)

	lead := runewidth.StringWidth(edited[:col])
	marks := strings.Repeat("+", runewidth.StringWidth(edit.NewText))
	fmt.Fprintf(w, "%s %s %s%s\n", pad, styles.gutter.Sprint("|"), strings.Repeat(" ", lead), styles.added.Sprint(marks))
}

// displayWidth returns the terminal width of line[col:col+n], so underlines
// stay aligned under wide runes.
func displayWidth(line string, col, n int) int {
	end := col + n
	if end > len(line) {
		end = len(line)
	}
	w := runewidth.StringWidth(line[col:end])
	if w < 1 {
		w = 1
	}
	return w
}

// Summary appends the trailing aggregate lines: the abort line when errors
// were emitted and a pointer to `constcheck explain` for the first distinct
// error code.
func Summary(w io.Writer, bag *diag.Bag, counter diag.Counter, useColor bool) {
	if counter.Errors == 0 {
		return
	}
	styles := newPrettyStyles(useColor)

	noun := "errors"
	if counter.Errors == 1 {
		noun = "error"
	}
	fmt.Fprintf(w, "%s aborting due to %d previous %s\n",
		styles.err.Sprint("error:"), counter.Errors, noun)

	codes := distinctErrorCodes(bag)
	switch len(codes) {
	case 0:
	case 1:
		fmt.Fprintf(w, "For more information about this error, try `constcheck explain %s`.\n", codes[0].ID())
	default:
		fmt.Fprintf(w, "Some errors have detailed explanations; for more information about an error, try `constcheck explain %s`.\n", codes[0].ID())
	}
}

func distinctErrorCodes(bag *diag.Bag) []diag.Code {
	seen := make(map[diag.Code]bool)
	codes := make([]diag.Code, 0, 4)
	for _, d := range bag.Items() {
		if d.Severity != diag.SevError || seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		codes = append(codes, d.Code)
	}
	return codes
}
