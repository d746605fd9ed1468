package rule

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustMkdirTree(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestResolveSimple(t *testing.T) {
	root := mustMkdirTree(t, "path_a", "path_b")

	pc := &PreConfig{
		NoInclude: true,
		Directories: []PreDirectory{
			{Path: filepath.Join(root, "path_a"), Rules: []string{"a", "b"}},
			{Path: filepath.Join(root, "path_b"), Rules: []string{"b", "d"}},
		},
		Skips: []string{filepath.Join(root, "path_b")},
		Rules: map[string]PreRule{
			"a": {Concrete: &Rule{Excludes: []string{"exclude_a"}}},
			"b": {Concrete: &Rule{Excludes: []string{"exclude_b"}}},
			"d": {Concrete: &Rule{Excludes: []string{"exclude_d1", "exclude_d2"}, IfExists: []string{"a", "b"}}},
		},
	}

	cfg, err := Resolve(pc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cfg.NoInclude {
		t.Fatalf("expected NoInclude=true")
	}
	if len(cfg.Walk.Directories) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(cfg.Walk.Directories))
	}
	if _, ok := cfg.Walk.Skips[filepath.Join(root, "path_b")]; !ok {
		t.Fatalf("expected path_b in skips: %v", cfg.Walk.Skips)
	}
}

func TestResolveInheritRule(t *testing.T) {
	root := mustMkdirTree(t, "a", "b")

	pc := &PreConfig{
		Directories: []PreDirectory{
			{Path: filepath.Join(root, "a"), Rules: []string{"union1"}},
			{Path: filepath.Join(root, "b"), Rules: []string{"union2"}},
		},
		Rules: map[string]PreRule{
			"r_a":    {Concrete: &Rule{Excludes: []string{"a"}}},
			"r_c":    {Concrete: &Rule{Excludes: []string{"c"}}},
			"r_d":    {Concrete: &Rule{Excludes: []string{"d"}}},
			"r_e":    {Concrete: &Rule{Excludes: []string{"e"}}},
			"union1": {Union: []string{"r_a", "r_c", "r_d"}},
			"union2": {Union: []string{"union1", "r_e"}},
		},
	}

	cfg, err := Resolve(pc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got0 := excludeNames(cfg.Walk.Directories[0].Rules)
	got1 := excludeNames(cfg.Walk.Directories[1].Rules)
	want0 := map[string]bool{"a": true, "c": true, "d": true}
	want1 := map[string]bool{"a": true, "c": true, "d": true, "e": true}
	if diff := cmp.Diff(want0, got0); diff != "" {
		t.Errorf("directory 0 excludes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want1, got1); diff != "" {
		t.Errorf("directory 1 excludes mismatch (-want +got):\n%s", diff)
	}
}

func excludeNames(rules []Rule) map[string]bool {
	m := map[string]bool{}
	for _, r := range rules {
		for _, e := range r.Excludes {
			m[e] = true
		}
	}
	return m
}

func TestResolveLoop(t *testing.T) {
	root := mustMkdirTree(t, "a")
	pc := &PreConfig{
		Directories: []PreDirectory{{Path: filepath.Join(root, "a"), Rules: []string{"a"}}},
		Rules: map[string]PreRule{
			"a": {Union: []string{"b"}},
			"b": {Union: []string{"a"}},
		},
	}
	_, err := Resolve(pc)
	var loopErr *LoopError
	if !errors.As(err, &loopErr) {
		t.Fatalf("expected LoopError, got %v", err)
	}
}

func TestResolveBrokenRule(t *testing.T) {
	root := mustMkdirTree(t, "a")
	pc := &PreConfig{
		Directories: []PreDirectory{{Path: filepath.Join(root, "a"), Rules: []string{"missing"}}},
		Rules:       map[string]PreRule{},
	}
	_, err := Resolve(pc)
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected RuleError, got %v", err)
	}
}

func TestResolveBrokenDir(t *testing.T) {
	root := mustMkdirTree(t)
	file := filepath.Join(root, "some_file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	pc := &PreConfig{Directories: []PreDirectory{{Path: file}}, Rules: map[string]PreRule{}}
	_, err := Resolve(pc)
	var pathErr *InvalidPathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected InvalidPathError, got %v", err)
	}
}

func TestResolveMissingDir(t *testing.T) {
	root := mustMkdirTree(t)
	pc := &PreConfig{Directories: []PreDirectory{{Path: filepath.Join(root, "non_exist")}}, Rules: map[string]PreRule{}}
	_, err := Resolve(pc)
	var pathErr *InvalidPathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected InvalidPathError, got %v", err)
	}
}

func TestResolveAllowsMissingSkipDir(t *testing.T) {
	root := mustMkdirTree(t)
	missing := filepath.Join(root, "non_exist")
	pc := &PreConfig{Skips: []string{missing}, Rules: map[string]PreRule{}}
	cfg, err := Resolve(pc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := cfg.Walk.Skips[missing]; !ok {
		t.Fatalf("expected missing skip dir to still resolve: %v", cfg.Walk.Skips)
	}
}

func TestGetRoot(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
		ok    bool
	}{
		{[]string{"/a/b/c/d", "/a/b/c"}, "/a/b/c", true},
		{[]string{"/a/e/a", "/a/c", "/a/c/d"}, "/a", true},
		{[]string{"/a", "/b"}, "/", true},
	}
	for _, c := range cases {
		dirs := make([]Directory, len(c.paths))
		for i, p := range c.paths {
			dirs[i] = Directory{Path: p}
		}
		got, ok := getRoot(dirs)
		if ok != c.ok || got != c.want {
			t.Errorf("getRoot(%v) = (%q, %v), want (%q, %v)", c.paths, got, ok, c.want, c.ok)
		}
	}
}

func TestGetPaths(t *testing.T) {
	cases := []struct {
		paths []string
		want  []string
	}{
		{[]string{"/a/b/c", "/a/b", "/a/b/d"}, []string{"/a/b"}},
		{[]string{"/a/b/c", "/a/e", "/a/b/d"}, []string{"/a/b/c", "/a/b/d", "/a/e"}},
		{[]string{"/e", "/a/b/c", "/a/e", "/a/b/d", "/a/b/d/e"}, []string{"/a/b/c", "/a/b/d", "/a/e", "/e"}},
	}
	for _, c := range cases {
		dirs := make([]Directory, len(c.paths))
		for i, p := range c.paths {
			dirs[i] = Directory{Path: p}
		}
		got := getPaths(dirs)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("getPaths(%v) mismatch (-want +got):\n%s", c.paths, diff)
		}
	}
}

func TestFollowSymlinksCycle(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "cyclic_a")
	b := filepath.Join(root, "cyclic_b")
	if err := os.Symlink(b, a); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(a, b); err != nil {
		t.Fatal(err)
	}
	chain := followSymlinks(a)
	if len(chain) == 0 || chain[0] != a {
		t.Fatalf("expected chain to start at %q, got %v", a, chain)
	}
	// Must terminate despite the cycle.
	if len(chain) > 10 {
		t.Fatalf("expected cycle to be broken, got long chain: %v", chain)
	}
}
