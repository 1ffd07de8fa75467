package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettle is how long Watch waits after the last filesystem event
// before re-running, so editors that write in several steps trigger one
// run instead of many.
const watchSettle = 250 * time.Millisecond

// Watch checks every snapshot under dir, then re-checks whenever a
// snapshot file changes. onRun receives the results of each run. Watch
// blocks until ctx is cancelled or the watcher fails.
func Watch(ctx context.Context, dir string, opts CheckOptions, onRun func([]*CheckResult, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := addDirs(w, dir); err != nil {
		return err
	}

	run := func() {
		results, err := CheckDir(ctx, dir, opts)
		onRun(results, err)
	}
	run()

	var settle *time.Timer
	var settleC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			// New directories need watching too.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					_ = addDirs(w, ev.Name)
				}
			}
			if settle == nil {
				settle = time.NewTimer(watchSettle)
			} else {
				settle.Reset(watchSettle)
			}
			settleC = settle.C
		case <-settleC:
			settleC = nil
			run()
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onRun(nil, werr)
		}
	}
}

func relevantEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if base == ConfigFileName {
		return false
	}
	// Editor droppings and hidden files never feed a check.
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	// Snapshots can reference source files by arbitrary path, so any other
	// change under the tree schedules a re-run. Directory creation counts
	// too: new directories may receive snapshots later.
	return true
}

func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
