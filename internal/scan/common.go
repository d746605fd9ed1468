// Package scan implements the recursive (full-tree) and non-recursive
// (single-directory) scanners that turn a WalkConfig and the current
// filesystem state into an action.Batch.
package scan

import (
	"path/filepath"
	"strings"

	"github.com/excludewatch/excludewatch/internal/rule"
)

func pathHasPrefix(child, parent string) bool {
	child = filepath.Clean(child)
	parent = filepath.Clean(parent)
	if child == parent {
		return true
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}

// applicableDirectories returns the subset of directories relevant to root:
// those that are an ancestor of root or nested under it. This is the same
// bidirectional prefix test diff.Diff uses to pick candidate rules, applied
// here to decide whether to keep scanning at all.
func applicableDirectories(root string, directories []rule.Directory) []rule.Directory {
	var out []rule.Directory
	for _, d := range directories {
		if pathHasPrefix(d.Path, root) || pathHasPrefix(root, d.Path) {
			out = append(out, d)
		}
	}
	return out
}

// applicableSkips returns the skip paths nested under root.
func applicableSkips(root string, skips map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for skip := range skips {
		if pathHasPrefix(skip, root) {
			out[skip] = struct{}{}
		}
	}
	return out
}

// matchesSkipGlob reports whether path matches any configured skip glob.
func matchesSkipGlob(path string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestarMatch(g, path); ok {
			return true
		}
	}
	return false
}
