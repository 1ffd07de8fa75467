package fix

import (
	"errors"
	"strings"
	"testing"

	"constcheck/internal/diag"
	"constcheck/internal/source"
)

func TestApplyInsertsConstBound(t *testing.T) {
	fs := source.NewFileSet()
	src := "const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }\n"
	id := fs.AddVirtual("demo.rs", []byte(src))

	// Insertion point after "Eq2" (offsets 18..21).
	insertAt := source.Span{File: id, Start: 21, End: 21}
	d := diag.NewError(diag.ChkNonConstCall, source.Span{File: id, Start: 45, End: 51},
		"cannot call non-const operator in constant context").
		WithFix(InsertText(
			"consider further restricting this bound",
			insertAt,
			" + ~const core::cmp::Eq2",
			"",
			WithID(MakeFixID(diag.ChkNonConstCall, insertAt)),
			Preferred(),
		))

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied fix, got %d (skipped: %+v)", len(res.Applied), res.Skipped)
	}
	got := string(res.Buffers["demo.rs"])
	want := "const fn check<T: Eq2 + ~const core::cmp::Eq2>(a: T, b: T) -> bool { a == b }\n"
	if got != want {
		t.Fatalf("edited buffer mismatch:\nwant: %s\ngot:  %s", want, got)
	}
}

func TestApplyGuardRejectsStaleText(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("impl Eq2 for S {}\n"))

	d := diag.NewError(diag.RegInconsistentConstImpl, source.Span{File: id, Start: 0, End: 4},
		"const impl for non-const trait").
		WithFix(ReplaceSpan("remove const qualifier", source.Span{File: id, Start: 0, End: 4}, "", "const", WithID("stale")))

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || !strings.Contains(res.Skipped[0].Reason, "does not match") {
		t.Fatalf("expected guard skip, got %+v", res.Skipped)
	}
}

func TestApplyByIDSelectsSingleFix(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("fn f<T: A + B>() {}\n"))

	mk := func(fixID string, at uint32, text string) diag.Diagnostic {
		span := source.Span{File: id, Start: at, End: at}
		return diag.NewError(diag.ChkNonConstCall, span, "cannot call non-const method `A::m` in constant context").
			WithFix(InsertText("consider further restricting this bound", span, text, "", WithID(fixID)))
	}

	diags := []diag.Diagnostic{
		mk("first", 10, " + ~const A"),
		mk("second", 13, " + ~const B"),
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "second", DryRun: true})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "second" {
		t.Fatalf("expected only fix 'second' applied, got %+v", res.Applied)
	}
	if got := string(res.Buffers["demo.rs"]); got != "fn f<T: A + B + ~const B>() {}\n" {
		t.Fatalf("unexpected buffer: %s", got)
	}
}

func TestOverlappingFixesConflict(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("abcdef\n"))

	span := source.Span{File: id, Start: 1, End: 4}
	d1 := diag.NewError(diag.ChkNonConstCall, span, "x").
		WithFix(ReplaceSpan("one", span, "X", "bcd", WithID("one")))
	d2 := diag.NewError(diag.ChkNonConstCall, span, "y").
		WithFix(ReplaceSpan("two", source.Span{File: id, Start: 2, End: 5}, "Y", "cde", WithID("two")))

	res, err := Apply(fs, []diag.Diagnostic{d1, d2}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("expected exactly one applied fix, got %d", len(res.Applied))
	}
	if len(res.Skipped) != 1 || !strings.Contains(res.Skipped[0].Reason, "conflicts") {
		t.Fatalf("expected conflict skip, got %+v", res.Skipped)
	}
}
