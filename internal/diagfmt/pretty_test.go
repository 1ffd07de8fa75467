package diagfmt

import (
	"strings"
	"testing"

	"constcheck/internal/diag"
	"constcheck/internal/source"
)

func operatorCallBag(fs *source.FileSet) *diag.Bag {
	id := fs.AddVirtual("demo.rs", []byte("const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }\n"))

	callSpan := source.Span{File: id, Start: 45, End: 51}
	insertAt := source.Span{File: id, Start: 21, End: 21}

	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.ChkNonConstCall, callSpan,
		"cannot call non-const operator in constant context").
		WithNote(callSpan, "calls in constant contexts are limited to const-capable paths").
		WithFix(diag.Fix{
			Title: "consider further restricting this bound",
			Edits: []diag.TextEdit{{Span: insertAt, NewText: " + ~const core::cmp::Eq2"}},
		}))
	return bag
}

func TestPrettyRendersFullDiagnostic(t *testing.T) {
	fs := source.NewFileSet()
	bag := operatorCallBag(fs)

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})

	want := strings.Join([]string{
		"error[CHK3001]: cannot call non-const operator in constant context",
		" --> demo.rs:1:46",
		"  |",
		"1 | const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }",
		"  |                                              ^^^^^^",
		"  = note: calls in constant contexts are limited to const-capable paths",
		"help: consider further restricting this bound",
		"  |",
		"1 | const fn check<T: Eq2 + ~const core::cmp::Eq2>(a: T, b: T) -> bool { a == b }",
		"  |                      ++++++++++++++++++++++++",
		"",
	}, "\n")
	if got := sb.String(); got != want {
		t.Fatalf("pretty output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
	}
}

func TestPrettyResolvesSpansPastFirstLine(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("fn outer() {}\nconst fn check<T: Eq2>(a: T, b: T) -> bool { a == b }\n"))

	// Same function body as above, shifted one line down; the marker,
	// context line, and underline must all follow.
	callSpan := source.Span{File: id, Start: 59, End: 65}
	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.ChkNonConstCall, callSpan,
		"cannot call non-const operator in constant context"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{})

	want := strings.Join([]string{
		"error[CHK3001]: cannot call non-const operator in constant context",
		" --> demo.rs:2:46",
		"  |",
		"2 | const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }",
		"  |                                              ^^^^^^",
		"",
	}, "\n")
	if got := sb.String(); got != want {
		t.Fatalf("pretty output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
	}
}

func TestPrettyWithoutNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	bag := operatorCallBag(fs)

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{})

	got := sb.String()
	if strings.Contains(got, "note:") || strings.Contains(got, "help:") {
		t.Fatalf("notes/fixes must be opt-in, got:\n%s", got)
	}
}

func TestShortFormat(t *testing.T) {
	fs := source.NewFileSet()
	bag := operatorCallBag(fs)

	var sb strings.Builder
	Short(&sb, bag, fs, PathModeAuto)

	want := "error CHK3001 demo.rs:1:46 cannot call non-const operator in constant context\n" +
		"note CHK3001 demo.rs:1:46 calls in constant contexts are limited to const-capable paths\n"
	if got := sb.String(); got != want {
		t.Fatalf("short output mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}

func TestSummaryLine(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("x\n"))
	span := source.Span{File: id, Start: 0, End: 1}

	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.ChkNonConstCall, span, "first"))
	bag.Add(diag.NewError(diag.ChkNonConstCall, span, "second"))

	var sb strings.Builder
	Summary(&sb, bag, diag.Count(bag), false)

	want := "error: aborting due to 2 previous errors\n" +
		"For more information about this error, try `constcheck explain CHK3001`.\n"
	if got := sb.String(); got != want {
		t.Fatalf("summary mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}

func TestSummarySingularAndSilent(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("x\n"))
	span := source.Span{File: id, Start: 0, End: 1}

	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.BndInvalidConstModifier, span, "only one"))

	var sb strings.Builder
	Summary(&sb, bag, diag.Count(bag), false)
	if !strings.Contains(sb.String(), "aborting due to 1 previous error\n") {
		t.Fatalf("singular form expected, got %q", sb.String())
	}

	empty := diag.NewBag(8)
	sb.Reset()
	Summary(&sb, empty, diag.Count(empty), false)
	if sb.Len() != 0 {
		t.Fatalf("summary must be silent without errors, got %q", sb.String())
	}
}

func TestJSONIncludesCounters(t *testing.T) {
	fs := source.NewFileSet()
	bag := operatorCallBag(fs)

	var sb strings.Builder
	if err := JSON(&sb, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	got := sb.String()
	for _, frag := range []string{
		`"code": "CHK3001"`,
		`"errors": 1`,
		`"start_line": 1`,
		`"new_text": " + ~const core::cmp::Eq2"`,
	} {
		if !strings.Contains(got, frag) {
			t.Fatalf("JSON output missing %s:\n%s", frag, got)
		}
	}
}

func TestExplainKnowsEveryUserFacingCode(t *testing.T) {
	for _, code := range []diag.Code{
		diag.RegInconsistentConstImpl,
		diag.BndInvalidConstModifier,
		diag.ChkNonConstCall,
	} {
		if _, ok := Explain(code.ID()); !ok {
			t.Fatalf("missing explanation for %s", code.ID())
		}
	}
	if _, ok := Explain("chk3001"); !ok {
		t.Fatalf("lookup must be case-insensitive")
	}
	if _, ok := Explain("CHK9999"); ok {
		t.Fatalf("unknown code must not explain")
	}
}
