/* Copyright 2018 The Bazel Authors. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/excludewatch/excludewatch/internal/action"
	"github.com/excludewatch/excludewatch/internal/attr"
	"github.com/excludewatch/excludewatch/internal/diff"
	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/rule"
)

// Progress is a best-effort sample of a recursive scan's advancement,
// published roughly every progressSampleInterval directories visited.
type Progress struct {
	CurrentPath string
	Found       int64
}

const progressSampleInterval = 1000

// RecursiveOptions configures a recursive scan.
type RecursiveOptions struct {
	// Progress receives samples; sends are non-blocking, so a slow or
	// absent consumer simply misses samples rather than stalling the scan.
	Progress chan<- Progress
	// Found is updated via atomic add as actions are discovered; may be
	// nil if the caller doesn't need a live counter.
	Found *atomic.Int64
}

// Recursive walks root depth-first and concurrently, applying the three
// pruning rules from the non-recursive scanner's contract at directory
// granularity: directories with no applicable rule are not descended into,
// configured skips are not descended into, and directories already
// correctly excluded (or about to become excluded) are not descended into
// either, since every descendant would already be excluded through the
// parent.
//
// Concurrency is bounded by runtime.GOMAXPROCS via a semaphore channel and
// orchestrated with an errgroup, the same shape the teacher's trie walker
// uses for filesystem-bound fan-out.
func Recursive(ctx context.Context, root string, cfg *rule.WalkConfig, attrs *attr.Attributes, log *logging.Logger, opts RecursiveOptions) (action.Batch, error) {
	limitCh := make(chan struct{}, runtime.GOMAXPROCS(0))
	eg, egCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var batch action.Batch
	var visited atomic.Int64

	var walk func(dir string, directories []rule.Directory, skips map[string]struct{})
	walk = func(dir string, directories []rule.Directory, skips map[string]struct{}) {
		limitCh <- struct{}{}
		defer func() { <-limitCh }()

		if egCtx.Err() != nil {
			return
		}

		n := visited.Add(1)
		if n%progressSampleInterval == 0 && opts.Progress != nil {
			select {
			case opts.Progress <- Progress{CurrentPath: dir, Found: loadCounter(opts.Found)}:
			default:
			}
		}

		// Rule-applicability pruning: nothing here or below is governed by
		// any directory rule.
		directories = applicableDirectories(dir, directories)
		if len(directories) == 0 {
			return
		}

		// Skip pruning: never descend into a configured skip.
		skips = applicableSkips(dir, skips)
		if _, ok := cfg.Skips[dir]; ok || matchesSkipGlob(dir, cfg.SkipGlobs) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warnf("error reading directory %s: %v", dir, err)
			return
		}

		shallow := make(map[string]bool, len(entries))
		type child struct {
			name string
			path string
		}
		var children []child
		for _, ent := range entries {
			name := ent.Name()
			childPath := filepath.Join(dir, name)
			if _, ok := cfg.Skips[childPath]; ok {
				continue
			}
			excluded, err := attrs.IsExcluded(childPath)
			if err != nil {
				log.Warnf("error reading exclusion state for %s: %v", childPath, err)
				continue
			}
			shallow[name] = excluded
			if ent.IsDir() {
				children = append(children, child{name: name, path: childPath})
			}
		}

		d := diff.Diff(dir, shallow, directories)
		if opts.Found != nil && d.Count() > 0 {
			opts.Found.Add(int64(d.Count()))
		}
		mu.Lock()
		batch = batch.Merge(d)
		mu.Unlock()

		for _, c := range children {
			// Already-satisfied pruning: a directory that is already
			// excluded, and isn't about to be removed from exclusion, or
			// one that's about to be newly excluded, needs no further
			// descent — everything beneath it is already covered.
			wasExcluded := shallow[c.name]
			if (wasExcluded && !d.ContainsRemove(c.path)) || d.ContainsAdd(c.path) {
				continue
			}
			c := c
			eg.Go(func() error {
				walk(c.path, directories, skips)
				return nil
			})
		}
	}

	eg.Go(func() error {
		walk(root, cfg.Directories, cfg.Skips)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return action.Batch{}, err
	}
	return batch, ctx.Err()
}

func loadCounter(c *atomic.Int64) int64 {
	if c == nil {
		return 0
	}
	return c.Load()
}
