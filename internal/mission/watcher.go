package mission

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/rule"
	"github.com/excludewatch/excludewatch/internal/scan"
)

// coalesceWindow batches bursts of filesystem events before dispatching
// rescans, the Go analogue of the original implementation's ~30s FSEvents
// latency.
const coalesceWindow = 30 * time.Second

// rescanWorkers bounds how many non-recursive rescans run at once.
const rescanWorkers = 4

// runWatcher subscribes to every configured directory's full subtree,
// coalesces bursts of events, and dispatches one non-recursive rescan per
// affected directory. Each event is handled independently — there is no
// cross-event deduplication or serialization, matching the source contract:
// Diff is idempotent, so dispatching the same directory twice in
// overlapping windows is harmless.
func runWatcher(ctx context.Context, m *Mission) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.log.Errorf("failed to start filesystem watcher: %v", err)
		return
	}
	defer watcher.Close()

	cfg := m.Config()
	watched := make(map[string]struct{})
	for _, path := range cfg.Walk.Paths() {
		addTree(watcher, path, cfg.Walk, watched, m.log)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(rescanWorkers)

	pending := make(map[string]struct{})
	ticker := time.NewTicker(coalesceWindow)
	defer ticker.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		dirs := make(map[string]struct{}, len(pending))
		for p := range pending {
			dirs[filepath.Dir(p)] = struct{}{}
		}
		pending = make(map[string]struct{})
		for d := range dirs {
			d := d
			eg.Go(func() error {
				dispatch(egCtx, m, d)
				return nil
			})
		}
		if err := saveEventState(m.configDir, &eventState{LastFlush: time.Now()}); err != nil {
			m.log.Warnf("failed to persist watcher event state: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			_ = eg.Wait()
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				flush()
				_ = eg.Wait()
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					addTree(watcher, ev.Name, cfg.Walk, watched, m.log)
				}
			}
			pending[ev.Name] = struct{}{}
		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			m.log.Warnf("filesystem watcher error: %v", err)
		case <-ticker.C:
			flush()
		}
	}
}

// addTree registers a watch on root and every subdirectory beneath it, since
// fsnotify (inotify/kqueue) only reports events on directories explicitly
// added, unlike FSEvents which this watcher's event contract is modeled on.
// Configured skips and skip globs are pruned from the walk so those trees
// are never watched; directories excluded by rules are still watched.
// Already-watched directories
// are skipped so repeated calls (e.g. on a newly created subdirectory) stay
// cheap.
func addTree(watcher *fsnotify.Watcher, root string, cfg *rule.WalkConfig, watched map[string]struct{}, log *logging.Logger) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldSkipWatch(path, cfg) {
			return filepath.SkipDir
		}
		if _, ok := watched[path]; ok {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			log.Warnf("failed to watch %s: %v", path, err)
			return nil
		}
		watched[path] = struct{}{}
		return nil
	})
}

func shouldSkipWatch(path string, cfg *rule.WalkConfig) bool {
	if _, ok := cfg.Skips[path]; ok {
		return true
	}
	for _, g := range cfg.SkipGlobs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

func dispatch(ctx context.Context, m *Mission, dir string) {
	if ctx.Err() != nil {
		return
	}
	cfg := m.Config()
	batch := scan.NonRecursive(dir, cfg.Walk, m.skipCache, m.attrs, m.log)
	batch = batch.FilterByMode(cfg.NoInclude)
	if batch.IsEmpty() {
		return
	}
	if err := batch.Apply(m.attrs); err != nil {
		m.log.Warnf("error applying actions for %s: %v", dir, err)
	}
	for _, p := range batch.Add {
		m.metrics.IncExcluded(p)
	}
	for range batch.Remove {
		m.metrics.IncIncluded()
	}
}
