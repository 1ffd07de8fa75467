package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"constcheck/internal/diag"
)

const dirtySnapshot = `
format = "1.0.0"

[source]
name = "demo.rs"
text = "const fn check<T: Eq2>(a: T, b: T) -> bool { a == b }\n"

[[trait]]
name = "Eq2"
path = "core::cmp::Eq2"
const_capable = true
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

const cleanSnapshot = `
format = "1.0.0"

[source]
name = "ok.rs"
text = "const fn id<T>(v: T) -> T { v }\n"

[[func]]
name = "id"
const = true
span = { start = 0, end = 31 }

[[func.param]]
name = "T"
`

func TestCheckSnapshotBytesReportsViolation(t *testing.T) {
	res, err := CheckSnapshotBytes("demo.toml", []byte(dirtySnapshot), CheckOptions{Dedup: true})
	if err != nil {
		t.Fatalf("CheckSnapshotBytes failed: %v", err)
	}
	if res.Counter.Errors != 1 {
		t.Fatalf("expected 1 error, got %+v", res.Counter)
	}
	d := res.Bag.Items()[0]
	if d.Code != diag.ChkNonConstCall {
		t.Fatalf("unexpected code %s", d.Code.ID())
	}
	if len(d.Fixes) != 1 {
		t.Fatalf("expected a fix suggestion, got %d", len(d.Fixes))
	}
}

func TestCheckSnapshotBytesDedupToggle(t *testing.T) {
	snap := `
format = "1.0.0"

[source]
name = "bad.rs"
text = "const fn f<T: Ord2>(v: T) {}\n"

[[trait]]
name = "Ord2"
path = "core::cmp::Ord2"
const_capable = false
span = { start = 0, end = 0 }

[[func]]
name = "f"
const = true
span = { start = 0, end = 28 }

[[func.param]]
name = "T"

[[func.param.bound]]
trait = "Ord2"
modifier = "~const"
span = { start = 14, end = 18 }
`
	dedup, err := CheckSnapshotBytes("bad.toml", []byte(snap), CheckOptions{Dedup: true})
	if err != nil {
		t.Fatalf("dedup run failed: %v", err)
	}
	raw, err := CheckSnapshotBytes("bad.toml", []byte(snap), CheckOptions{Dedup: false})
	if err != nil {
		t.Fatalf("raw run failed: %v", err)
	}

	if dedup.Counter.Errors != 1 {
		t.Fatalf("dedup: expected 1 error, got %d", dedup.Counter.Errors)
	}
	// Both checking stages see the invalid modifier; without dedup both
	// records survive and the repeat is annotated.
	if raw.Counter.Errors != 2 {
		t.Fatalf("raw: expected 2 errors, got %d", raw.Counter.Errors)
	}
	second := raw.Bag.Items()[1]
	found := false
	for _, n := range second.Notes {
		if n.Msg == diag.DuplicateOriginNote {
			found = true
		}
	}
	if !found {
		t.Fatalf("repeat missing duplicate-origin note: %+v", second.Notes)
	}
}

func TestCheckSnapshotBrokenExportIsError(t *testing.T) {
	cases := []struct {
		name string
		toml string
	}{
		{"missing format", `[source]` + "\n" + `name = "x.rs"` + "\n" + `text = "x"`},
		{"future format", `format = "2.0.0"` + "\n" + `[source]` + "\n" + `name = "x.rs"` + "\n" + `text = "x"`},
		{"bad toml", `format = `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CheckSnapshotBytes("x.toml", []byte(tc.toml), CheckOptions{Dedup: true}); err == nil {
				t.Fatalf("expected load error")
			}
		})
	}
}

func TestDiskCacheSkipsCleanSnapshots(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	opts := CheckOptions{Dedup: true, Cache: cache}

	first, err := CheckSnapshotBytes("ok.toml", []byte(cleanSnapshot), opts)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.FromCache {
		t.Fatalf("first run must not hit the cache")
	}

	second, err := CheckSnapshotBytes("ok.toml", []byte(cleanSnapshot), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !second.FromCache {
		t.Fatalf("clean snapshot should come from cache")
	}
	if second.Bag.Len() != 0 {
		t.Fatalf("cached result must be clean")
	}
}

func TestDiskCacheNeverServesDirtySnapshots(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt failed: %v", err)
	}
	opts := CheckOptions{Dedup: true, Cache: cache}

	for run := 0; run < 2; run++ {
		res, err := CheckSnapshotBytes("demo.toml", []byte(dirtySnapshot), opts)
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		if res.FromCache {
			t.Fatalf("run %d: dirty snapshot must re-check for exact spans", run)
		}
		if res.Counter.Errors != 1 {
			t.Fatalf("run %d: expected 1 error, got %d", run, res.Counter.Errors)
		}
	}
}

func TestContentDigestVariesWithDedup(t *testing.T) {
	data := []byte(cleanSnapshot)
	if ContentDigest(data, true) == ContentDigest(data, false) {
		t.Fatalf("digest must depend on dedup setting")
	}
	if ContentDigest(data, true) != ContentDigest(data, true) {
		t.Fatalf("digest must be deterministic")
	}
}

func TestCheckDirOrdersResultsAndSkipsConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("b.toml", dirtySnapshot)
	write("a.toml", cleanSnapshot)
	write(ConfigFileName, "[check]\ndedup = true\n")

	results, err := CheckDir(context.Background(), dir, CheckOptions{Dedup: true, Jobs: 2})
	if err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if filepath.Base(results[0].Path) != "a.toml" || filepath.Base(results[1].Path) != "b.toml" {
		t.Fatalf("results out of order: %s, %s", results[0].Path, results[1].Path)
	}
	if results[0].Counter.Errors != 0 || results[1].Counter.Errors != 1 {
		t.Fatalf("unexpected counters: %+v, %+v", results[0].Counter, results[1].Counter)
	}
}

func TestCheckFilesObserverSeesEveryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.toml")
	if err := os.WriteFile(path, []byte(cleanSnapshot), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var events []PhaseEvent
	done := make(chan struct{})
	obs := func(ev PhaseEvent) {
		events = append(events, ev)
		if ev.Status != PhaseStart {
			close(done)
		}
	}

	// Single file and one job: events arrive from one goroutine in order.
	_, err := CheckFiles(context.Background(), []string{path}, CheckOptions{Dedup: true, Jobs: 1, Observer: obs})
	if err != nil {
		t.Fatalf("CheckFiles failed: %v", err)
	}
	<-done
	if len(events) != 2 || events[0].Status != PhaseStart || events[1].Status != PhaseEnd {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestLoadConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[check]\ndedup = false\nmax_diagnostics = 42\n"
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(nested)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Check.Dedup == nil || *cfg.Check.Dedup {
		t.Fatalf("dedup not loaded: %+v", cfg.Check)
	}
	if cfg.Check.MaxDiagnostics != 42 {
		t.Fatalf("max_diagnostics not loaded: %d", cfg.Check.MaxDiagnostics)
	}

	opts := CheckOptions{Dedup: true}
	cfg.Check.ApplyTo(&opts, map[string]bool{"dedup": false})
	if opts.Dedup || opts.MaxDiagnostics != 42 {
		t.Fatalf("ApplyTo did not overlay config: %+v", opts)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("[check]\ntypo = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Fatalf("expected unknown-key error")
	}
}
