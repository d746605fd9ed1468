package rule

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve turns a PreConfig into a fully resolved Config: rule names are
// expanded via DFS union resolution (with cycle detection), directory paths
// are tilde-expanded and canonicalized, and skip paths are tilde-expanded,
// followed through their full symlink chain, and made absolute.
func Resolve(pc *PreConfig) (*Config, error) {
	walk, err := resolveWalkConfig(pc.Directories, pc.Rules, pc.Skips)
	if err != nil {
		return nil, err
	}
	return &Config{NoInclude: pc.NoInclude, Walk: walk}, nil
}

func resolveWalkConfig(directories []PreDirectory, rules map[string]PreRule, skips []string) (*WalkConfig, error) {
	cache := map[string][]Rule{}

	resolvedDirs := make([]Directory, 0, len(directories))
	for _, pd := range directories {
		var resolved []Rule
		seen := map[string]struct{}{}
		for _, name := range pd.Rules {
			rs, err := dfsUnionRules(cache, rules, name, map[string]struct{}{})
			if err != nil {
				return nil, err
			}
			for _, r := range rs {
				k := r.key()
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				resolved = append(resolved, r)
			}
		}

		path, err := canonicalizeDirectory(pd.Path)
		if err != nil {
			return nil, err
		}
		resolvedDirs = append(resolvedDirs, Directory{Path: path, Rules: resolved})
	}

	skipSet := map[string]struct{}{}
	var skipGlobs []string
	for _, s := range skips {
		if isGlob(s) {
			skipGlobs = append(skipGlobs, expandTilde(s))
			continue
		}
		expanded := expandTilde(s)
		for _, followed := range followSymlinks(expanded) {
			abs, err := filepath.Abs(followed)
			if err != nil {
				continue
			}
			skipSet[abs] = struct{}{}
		}
	}

	return &WalkConfig{Directories: resolvedDirs, Skips: skipSet, SkipGlobs: skipGlobs}, nil
}

// dfsUnionRules resolves a rule name into its set of concrete Rules,
// following union references depth-first. visited tracks the names on the
// current DFS path to detect cycles; cache memoizes fully-resolved names
// globally across the whole resolution.
func dfsUnionRules(cache map[string][]Rule, rules map[string]PreRule, node string, visited map[string]struct{}) ([]Rule, error) {
	if hit, ok := cache[node]; ok {
		return hit, nil
	}
	if _, ok := visited[node]; ok {
		return nil, &LoopError{Name: node}
	}

	pre, ok := rules[node]
	if !ok {
		return nil, &RuleError{Name: node}
	}

	var result []Rule
	if pre.Concrete != nil {
		result = []Rule{*pre.Concrete}
	} else {
		nextVisited := make(map[string]struct{}, len(visited)+1)
		for k := range visited {
			nextVisited[k] = struct{}{}
		}
		nextVisited[node] = struct{}{}

		seen := map[string]struct{}{}
		for _, ref := range pre.Union {
			rs, err := dfsUnionRules(cache, rules, ref, nextVisited)
			if err != nil {
				return nil, err
			}
			for _, r := range rs {
				k := r.key()
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				result = append(result, r)
			}
		}
	}

	cache[node] = result
	return result, nil
}

func canonicalizeDirectory(path string) (string, error) {
	expanded := expandTilde(path)
	resolved, err := filepath.EvalSymlinks(expanded)
	if err != nil {
		return "", &InvalidPathError{Path: path, Cause: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &InvalidPathError{Path: path, Cause: err}
	}
	if !info.IsDir() {
		return "", &InvalidPathError{Path: path, Cause: errNotADirectory}
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", &InvalidPathError{Path: path, Cause: err}
	}
	return abs, nil
}

var errNotADirectory = notADirectoryError{}

type notADirectoryError struct{}

func (notADirectoryError) Error() string { return "not a directory" }

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// followSymlinks walks the chain of symlinks starting at path, returning
// every path visited (including the starting path). It stops at a path that
// does not exist or is not a symlink, and breaks out of cycles.
func followSymlinks(path string) []string {
	visited := map[string]struct{}{path: {}}
	chain := []string{path}
	cur := path
	for {
		target, err := os.Readlink(cur)
		if err != nil {
			break
		}
		var next string
		if filepath.IsAbs(target) {
			next = target
		} else {
			next = filepath.Join(filepath.Dir(cur), target)
		}
		if _, ok := visited[next]; ok {
			break
		}
		visited[next] = struct{}{}
		chain = append(chain, next)
		cur = next
	}
	return chain
}
