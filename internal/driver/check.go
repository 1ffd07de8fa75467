package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"constcheck/internal/constrait"
	"constcheck/internal/diag"
	"constcheck/internal/snapshot"
	"constcheck/internal/source"
)

const defaultMaxDiagnostics = 256

// CheckOptions controls a single checking run.
type CheckOptions struct {
	// Dedup collapses repeated identical diagnostics. When false, every
	// occurrence is kept and repeats carry an explanatory note.
	Dedup bool

	// MaxDiagnostics caps the number of diagnostics per snapshot.
	// Zero means the default cap.
	MaxDiagnostics int

	// Jobs bounds the number of snapshots checked concurrently by
	// CheckDir. Zero means GOMAXPROCS.
	Jobs int

	// Cache, when non-nil, lets clean snapshots skip re-checking.
	Cache *DiskCache

	// Observer, when non-nil, receives per-snapshot progress events.
	Observer PhaseObserver
}

func (o CheckOptions) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// CheckResult holds the outcome of checking one snapshot. Diagnostics in
// Bag reference spans in FileSet.
type CheckResult struct {
	Path      string
	FileSet   *source.FileSet
	Snapshot  *snapshot.Snapshot
	Bag       *diag.Bag
	Counter   diag.Counter
	FromCache bool
}

// CheckSnapshot loads a resolver export from disk and checks it. Errors
// mean a broken or unreadable snapshot, not a rule violation: violations
// come back as diagnostics in the result.
func CheckSnapshot(path string, opts CheckOptions) (*CheckResult, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path supplied by the caller
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return CheckSnapshotBytes(path, data, opts)
}

// CheckSnapshotBytes checks an already-read snapshot. Relative source
// paths inside the snapshot resolve against the snapshot's directory.
func CheckSnapshotBytes(path string, data []byte, opts CheckOptions) (*CheckResult, error) {
	digest := ContentDigest(data, opts.Dedup)
	if opts.Cache != nil {
		var payload DiskPayload
		ok, err := opts.Cache.Get(digest, &payload)
		if err == nil && ok && payload.Schema == diskCacheSchemaVersion && payload.Clean {
			return &CheckResult{
				Path:      path,
				FileSet:   source.NewFileSetWithBase(filepath.Dir(path)),
				Bag:       diag.NewBag(opts.maxDiagnostics()),
				FromCache: true,
			}, nil
		}
	}

	fs := source.NewFileSetWithBase(filepath.Dir(path))
	snap, err := snapshot.Parse(fs, filepath.Dir(path), filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	res, err := checkLoaded(fs, snap, opts)
	if err != nil {
		return nil, err
	}

	if opts.Cache != nil {
		payload := DiskPayload{
			Schema:   diskCacheSchemaVersion,
			Path:     path,
			Errors:   res.Counter.Errors,
			Warnings: res.Counter.Warnings,
			Clean:    res.Bag.Len() == 0,
		}
		// Cache write failures only cost a re-check next time.
		_ = opts.Cache.Put(digest, &payload)
	}
	return res, nil
}

// checkLoaded runs both checking stages over a loaded snapshot. The
// reporter chain, not the checker, decides what happens to diagnostics
// the two stages both produce.
func checkLoaded(fs *source.FileSet, snap *snapshot.Snapshot, opts CheckOptions) (*CheckResult, error) {
	bag := diag.NewBag(opts.maxDiagnostics())
	var rep diag.Reporter = diag.BagReporter{Bag: bag}
	if opts.Dedup {
		rep = diag.NewDedupReporter(rep)
	} else {
		rep = diag.NewDupNoteReporter(rep)
	}

	snap.Impls.Validate(snap.Traits, rep)

	checker := constrait.NewChecker(snap.Traits, snap.Impls, rep)
	for _, fn := range snap.Funcs {
		if err := checker.CheckFunc(fn); err != nil {
			return nil, fmt.Errorf("%s: %w", snap.Path, err)
		}
	}

	return &CheckResult{
		Path:     snap.Path,
		FileSet:  fs,
		Snapshot: snap,
		Bag:      bag,
		Counter:  diag.Count(bag),
	}, nil
}
