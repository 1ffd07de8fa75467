package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ConfigFileName is the project configuration file; directory walks skip
// it so a project config is never checked as a snapshot.
const ConfigFileName = "constcheck.toml"

// ListSnapshots returns the sorted list of *.toml snapshot files under dir.
func ListSnapshots(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}
		if filepath.Base(path) == ConfigFileName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir checks every snapshot under dir concurrently. Results come back
// in sorted file order regardless of completion order. A non-nil error
// means at least one snapshot was broken or unreadable; results for the
// files that did check are still returned.
func CheckDir(ctx context.Context, dir string, opts CheckOptions) ([]*CheckResult, error) {
	files, err := ListSnapshots(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return CheckFiles(ctx, files, opts)
}

// CheckFiles checks the given snapshot files concurrently, preserving
// input order in the results.
func CheckFiles(ctx context.Context, files []string, opts CheckOptions) ([]*CheckResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indices are unique per goroutine, no mutex needed.
	results := make([]*CheckResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			opts.Observer.emit(PhaseEvent{Path: path, Status: PhaseStart})
			res, err := CheckSnapshot(path, opts)
			if err != nil {
				opts.Observer.emit(PhaseEvent{Path: path, Status: PhaseFailed})
				return err
			}
			results[i] = res
			opts.Observer.emit(PhaseEvent{Path: path, Status: PhaseEnd, Errors: res.Counter.Errors})
			return nil
		})
	}

	err := g.Wait()

	// Broken snapshots leave nil holes; compact so callers can render
	// whatever did check.
	compacted := results[:0]
	for _, r := range results {
		if r != nil {
			compacted = append(compacted, r)
		}
	}
	return compacted, err
}
