// Package rule defines the exclusion rule model: Rule, PreRule, Directory,
// and WalkConfig, along with the resolver that turns a raw parsed config
// into a fully resolved WalkConfig ready for scanning.
package rule

import (
	"path/filepath"
	"sort"
)

// Rule describes a single exclusion policy: a path component is excluded
// from backups if its name is in Excludes and, when IfExists is non-empty,
// at least one of the named siblings is present in the same directory.
type Rule struct {
	Excludes []string
	IfExists []string
}

// key returns a canonical string representation so Rules can be deduplicated
// in a set despite containing slices.
func (r Rule) key() string {
	k := "e:"
	for _, e := range r.Excludes {
		k += e + "\x00"
	}
	k += "i:"
	for _, e := range r.IfExists {
		k += e + "\x00"
	}
	return k
}

// Directory pairs an interested directory with the rules bound to it.
type Directory struct {
	Path  string
	Rules []Rule
}

// WalkConfig holds everything the scanner needs: interested directories
// (with resolved rules) and the set of paths to never descend into.
type WalkConfig struct {
	Directories []Directory
	Skips       map[string]struct{}
	// SkipGlobs holds skip entries containing glob metacharacters, matched
	// against candidate paths at scan time rather than resolved up front.
	SkipGlobs []string
}

// Config is the top-level resolved configuration.
type Config struct {
	NoInclude bool
	Walk      *WalkConfig
}

// Root returns the common ancestor of all interested directories.
func (w *WalkConfig) Root() (string, error) {
	root, ok := getRoot(w.Directories)
	if !ok {
		return "", ErrNoDirectory
	}
	return root, nil
}

// Paths returns the squashed (non-overlapping, minimal) set of interested
// directory paths: if one directory is an ancestor of another, only the
// ancestor is kept.
func (w *WalkConfig) Paths() []string {
	return getPaths(w.Directories)
}

func getRoot(directories []Directory) (string, bool) {
	var root string
	first := true
	for _, d := range directories {
		if first {
			root = d.Path
			first = false
			continue
		}
		root = maxCommonPath(root, d.Path)
	}
	return root, !first
}

func maxCommonPath(a, b string) string {
	av := filepath.VolumeName(a)
	bv := filepath.VolumeName(b)
	if av != bv {
		return ""
	}
	aParts := splitPath(a)
	bParts := splitPath(b)
	var common []string
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			break
		}
		common = append(common, aParts[i])
	}
	return joinPath(av, common)
}

func splitPath(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	var parts []string
	for _, seg := range filepathSplitAll(p) {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

func filepathSplitAll(p string) []string {
	var out []string
	cur := ""
	for _, r := range p {
		if r == '/' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func joinPath(volume string, parts []string) string {
	if len(parts) == 0 {
		if volume != "" {
			return volume + string(filepath.Separator)
		}
		return string(filepath.Separator)
	}
	return volume + string(filepath.Separator) + filepath.Join(parts...)
}

func getPaths(directories []Directory) []string {
	paths := make([]string, len(directories))
	for i, d := range directories {
		paths[i] = d.Path
	}
	sort.Slice(paths, func(i, j int) bool { return len(paths[i]) < len(paths[j]) })

	seen := make(map[string]struct{}, len(paths))
	var result []string
	for _, p := range paths {
		if hasAncestorIn(p, seen) {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

func hasAncestorIn(p string, set map[string]struct{}) bool {
	cur := p
	for {
		if _, ok := set[cur]; ok {
			return true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return false
		}
		cur = parent
	}
}
