// Package diff computes the pure, idempotent exclusion diff between the
// current state of a directory's children and the rules that apply to it.
package diff

import (
	"path/filepath"
	"strings"

	"github.com/excludewatch/excludewatch/internal/action"
	"github.com/excludewatch/excludewatch/internal/rule"
)

// Diff compares shallowList — a map of child name to its current excluded
// state — against the Rules of every Directory whose path is an ancestor
// or descendant of cwd, and returns the Add/Remove actions needed to bring
// cwd's children in line with those rules.
//
// Diff is pure and idempotent: calling it twice against the same inputs
// produces the same batch, and applying its result never needs to be
// repeated to reach a stable state.
func Diff(cwd string, shallowList map[string]bool, directories []rule.Directory) action.Batch {
	var candidateRules []rule.Rule
	for _, d := range directories {
		if pathHasPrefix(d.Path, cwd) || pathHasPrefix(cwd, d.Path) {
			candidateRules = append(candidateRules, d.Rules...)
		}
	}

	var batch action.Batch
	for name, excluded := range shallowList {
		expected := expectedExcluded(name, shallowList, candidateRules)
		switch {
		case expected && !excluded:
			batch.Add = append(batch.Add, filepath.Join(cwd, name))
		case !expected && excluded:
			batch.Remove = append(batch.Remove, filepath.Join(cwd, name))
		}
	}
	return batch
}

func expectedExcluded(name string, shallowList map[string]bool, rules []rule.Rule) bool {
	for _, r := range rules {
		if !containsString(r.Excludes, name) {
			continue
		}
		if len(r.IfExists) == 0 {
			return true
		}
		for _, sibling := range r.IfExists {
			if _, ok := shallowList[sibling]; ok {
				return true
			}
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// pathHasPrefix reports whether child is equal to or nested under parent,
// using path-component comparison rather than raw string prefixing.
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
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
