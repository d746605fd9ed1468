package scan

import (
	"os"
	"path/filepath"

	"github.com/excludewatch/excludewatch/internal/action"
	"github.com/excludewatch/excludewatch/internal/attr"
	"github.com/excludewatch/excludewatch/internal/diff"
	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/rule"
)

// NonRecursive performs a single-directory rescan: the five-step algorithm
// used by the watcher to react cheaply to one changed path, rather than
// re-walking the whole tree.
func NonRecursive(root string, cfg *rule.WalkConfig, cache *SkipCache, attrs *attr.Attributes, log *logging.Logger) action.Batch {
	// 1. Skip cache hit: nothing to do here, we've already determined that.
	if cache.Has(root) {
		log.Debugf("skip cache hit for %s", root)
		return action.Batch{}
	}

	// 2. Explicit skip set (or skip glob) membership: memoize and bail.
	if _, ok := cfg.Skips[root]; ok || matchesSkipGlob(root, cfg.SkipGlobs) {
		cache.Insert(root)
		return action.Batch{}
	}

	// 3. No directory in the config applies to this path at all: memoize
	// and bail.
	directories := applicableDirectories(root, cfg.Directories)
	if len(directories) == 0 {
		cache.Insert(root)
		return action.Batch{}
	}

	// 4. One of the ancestors is already excluded: nothing to do, but this
	// is NOT cached, since the ancestor's exclusion state can change
	// independently of this directory.
	if ancestorExcluded(root, attrs) {
		return action.Batch{}
	}

	// 5. Read children, gather their current excluded state, and diff.
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Warnf("error reading directory %s: %v", root, err)
		return action.Batch{}
	}

	shallow := make(map[string]bool, len(entries))
	for _, ent := range entries {
		name := ent.Name()
		childPath := filepath.Join(root, name)
		if _, ok := cfg.Skips[childPath]; ok {
			continue
		}
		excluded, err := attrs.IsExcluded(childPath)
		if err != nil {
			log.Warnf("error reading exclusion state for %s: %v", childPath, err)
			continue
		}
		shallow[name] = excluded
	}

	return diff.Diff(root, shallow, directories)
}

func ancestorExcluded(root string, attrs *attr.Attributes) bool {
	cur := root
	for {
		parent := filepath.Dir(cur)
		if parent == cur {
			return false
		}
		cur = parent
		if excluded, err := attrs.IsExcluded(cur); err == nil && excluded {
			return true
		}
	}
}
