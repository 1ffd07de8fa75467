package snapshot

import (
	"strings"
	"testing"

	"constcheck/internal/constrait"
	"constcheck/internal/source"
)

const demoSnapshot = `
format = "1.0.0"

[source]
name = "demo.rs"
text = "const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }\n"

[[trait]]
name = "Eq2"
path = "core::cmp::Eq2"
const_capable = true
span = { start = 0, end = 0 }

[[impl]]
type = "S"
trait = "Eq2"
const = true
span = { start = 0, end = 0 }

[[func]]
name = "check"
const = true
span = { start = 0, end = 53 }

[[func.param]]
name = "T"

[[func.param.bound]]
trait = "Eq2"
modifier = "plain"
span = { start = 18, end = 21 }

[[func.call]]
receiver = "T"
receiver_kind = "param"
trait = "Eq2"
method = "eq"
operator = true
span = { start = 45, end = 51 }
`

func TestParseSnapshot(t *testing.T) {
	fs := source.NewFileSet()
	snap, err := Parse(fs, ".", "demo.toml", []byte(demoSnapshot))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tr, ok := snap.Traits.Lookup("Eq2")
	if !ok || !tr.ConstCapable || tr.Path != "core::cmp::Eq2" {
		t.Fatalf("trait not loaded correctly: %+v", tr)
	}

	im, err := snap.Impls.Lookup("S", "Eq2")
	if err != nil || !im.ConstImpl {
		t.Fatalf("impl not loaded correctly: %+v, %v", im, err)
	}

	if len(snap.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(snap.Funcs))
	}
	fn := snap.Funcs[0]
	if fn.Name != "check" || !fn.ConstRequired {
		t.Fatalf("function header not loaded: %+v", fn)
	}
	pb, ok := fn.Bounds.Param("T")
	if !ok || len(pb.Entries) != 1 || pb.Entries[0].Modifier != constrait.ModPlain {
		t.Fatalf("bounds not loaded: %+v", pb)
	}
	if len(fn.Calls) != 1 {
		t.Fatalf("expected 1 call site, got %d", len(fn.Calls))
	}
	call := fn.Calls[0]
	if !call.ReceiverParam || !call.OperatorDesugared || call.Trait != "Eq2" {
		t.Fatalf("call site not loaded: %+v", call)
	}

	// Spans must resolve against the registered virtual source.
	start, _ := fs.Resolve(call.Span)
	if start.Line != 1 || start.Col != 46 {
		t.Fatalf("call span resolves to %d:%d, want 1:46", start.Line, start.Col)
	}
}

func TestParseRejectsUnsupportedFormat(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `format = "1.0.0"`, `format = "2.0.0"`, 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "unsupported snapshot format") {
		t.Fatalf("expected format gate error, got %v", err)
	}
}

func TestParseRejectsMissingFormat(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `format = "1.0.0"`, "", 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "missing format version") {
		t.Fatalf("expected missing-format error, got %v", err)
	}
}

func TestParseRejectsUnknownTraitReference(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `trait = "Eq2"
modifier = "plain"`, `trait = "Ord2"
modifier = "plain"`, 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "unknown trait") {
		t.Fatalf("expected unknown-trait error, got %v", err)
	}
}

func TestParseRejectsUnknownModifier(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `modifier = "plain"`, `modifier = "maybe-const"`, 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "unknown bound modifier") {
		t.Fatalf("expected modifier error, got %v", err)
	}
}

func TestParseRejectsOutOfRangeSpan(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `span = { start = 45, end = 51 }`, `span = { start = 45, end = 500 }`, 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "exceeds source length") {
		t.Fatalf("expected span range error, got %v", err)
	}
}

func TestParseRejectsUndeclaredReceiverParam(t *testing.T) {
	fs := source.NewFileSet()
	bad := strings.Replace(demoSnapshot, `receiver = "T"`, `receiver = "U"`, 1)
	if _, err := Parse(fs, ".", "demo.toml", []byte(bad)); err == nil || !strings.Contains(err.Error(), "not a declared type parameter") {
		t.Fatalf("expected receiver validation error, got %v", err)
	}
}
