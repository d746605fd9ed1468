package scan

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/excludewatch/excludewatch/internal/attr"
	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/rule"
)

func newTestLogger() *logging.Logger {
	return logging.New(io.Discard, false)
}

func TestNonRecursiveExcludesChild(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	nm := filepath.Join(proj, "node_modules")
	if err := os.MkdirAll(nm, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &rule.WalkConfig{
		Directories: []rule.Directory{
			{Path: proj, Rules: []rule.Rule{{Excludes: []string{"node_modules"}}}},
		},
		Skips: map[string]struct{}{},
	}

	cache := NewSkipCache()
	attrs := attr.New()
	batch := NonRecursive(proj, cfg, cache, attrs, newTestLogger())
	if !batch.ContainsAdd(nm) {
		t.Fatalf("expected node_modules to be added, got %v", batch)
	}
}

func TestNonRecursiveCachesUnrelatedDir(t *testing.T) {
	root := t.TempDir()
	unrelated := filepath.Join(root, "unrelated")
	if err := os.MkdirAll(unrelated, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := &rule.WalkConfig{
		Directories: []rule.Directory{
			{Path: filepath.Join(root, "other"), Rules: []rule.Rule{{Excludes: []string{"x"}}}},
		},
		Skips: map[string]struct{}{},
	}
	cache := NewSkipCache()
	attrs := attr.New()
	NonRecursive(unrelated, cfg, cache, attrs, newTestLogger())
	if !cache.Has(unrelated) {
		t.Fatalf("expected unrelated dir to be cached")
	}
}

func TestRecursiveFindsNestedMatches(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	nm := filepath.Join(a, "node_modules")
	if err := os.MkdirAll(nm, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &rule.WalkConfig{
		Directories: []rule.Directory{
			{Path: root, Rules: []rule.Rule{{Excludes: []string{"node_modules"}}}},
		},
		Skips: map[string]struct{}{},
	}

	attrs := attr.New()
	var found atomic.Int64
	batch, err := Recursive(context.Background(), root, cfg, attrs, newTestLogger(), RecursiveOptions{Found: &found})
	if err != nil {
		t.Fatalf("Recursive: %v", err)
	}
	if !batch.ContainsAdd(nm) {
		t.Fatalf("expected %s to be added, got %v", nm, batch)
	}
}

func TestSkipCacheEvictsOldest(t *testing.T) {
	cache := NewSkipCache()
	for i := 0; i < SkipCacheCapacity+1; i++ {
		cache.Insert(filepath.Join("/fake", itoa(i)))
	}
	if cache.Has(filepath.Join("/fake", itoa(0))) {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if !cache.Has(filepath.Join("/fake", itoa(SkipCacheCapacity))) {
		t.Fatalf("expected newest entry to remain cached")
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}
