package source

import (
	"testing"
)

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("const fn check() {\n    a == b\n}\n"))

	// "a" on line 2, column 5 (offset 23).
	start, end := fs.Resolve(Span{File: id, Start: 23, End: 29})
	if start.Line != 2 || start.Col != 5 {
		t.Fatalf("start = %d:%d, want 2:5", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 11 {
		t.Fatalf("end = %d:%d, want 2:11", end.Line, end.Col)
	}
}

func TestFileSetGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("demo.rs", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	cases := []struct {
		line uint32
		want string
	}{
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
		{0, ""},
	}
	for _, tc := range cases {
		if got := f.GetLine(tc.line); got != tc.want {
			t.Errorf("GetLine(%d) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc\n"))
	if !changed {
		t.Fatalf("expected change flag")
	}
	if string(out) != "a\nb\rc\n" {
		t.Fatalf("unexpected normalization result: %q", out)
	}

	out, changed = normalizeCRLF([]byte("plain\n"))
	if changed {
		t.Fatalf("unexpected change flag for content without CR")
	}
	if string(out) != "plain\n" {
		t.Fatalf("content modified without CR: %q", out)
	}
}

func TestSpanAfter(t *testing.T) {
	s := Span{File: 3, Start: 10, End: 20}
	at := s.After()
	if at.File != 3 || at.Start != 20 || at.End != 20 {
		t.Fatalf("After() = %+v, want zero-width span at 20", at)
	}
	if !at.Empty() {
		t.Fatalf("insertion point must be empty")
	}
}

func TestToLineCol(t *testing.T) {
	cases := []struct {
		content  string
		off      uint32
		wantLine uint32
		wantCol  uint32
	}{
		{"ab\ncd\n", 0, 1, 1},
		{"ab\ncd\n", 1, 1, 2},
		// A newline belongs to the line it terminates.
		{"ab\ncd\n", 2, 1, 3},
		{"ab\ncd\n", 3, 2, 1},
		{"ab\ncd\n", 4, 2, 2},
		{"a\nb\nc", 2, 2, 1},
		{"a\nb\nc", 4, 3, 1},
		{"no newline", 4, 1, 5},
	}
	for _, tc := range cases {
		idx := buildLineIndex([]byte(tc.content))
		lc := toLineCol(idx, tc.off)
		if lc.Line != tc.wantLine || lc.Col != tc.wantCol {
			t.Errorf("toLineCol(%q, %d) = %d:%d, want %d:%d",
				tc.content, tc.off, lc.Line, lc.Col, tc.wantLine, tc.wantCol)
		}
	}
}
