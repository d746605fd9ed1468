package attr

import (
	"os"
	"path/filepath"
	"testing"
)

// These tests exercise the xattr round trip. The test is skipped when
// SetExcluded(true) fails; an error from the initial IsExcluded call (as on
// Linux, which rejects the unprefixed attribute name) fails the test.
func TestSetAndIsExcluded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := New()

	excluded, err := a.IsExcluded(path)
	if err != nil {
		t.Fatalf("IsExcluded: %v", err)
	}
	if excluded {
		t.Fatalf("expected not excluded initially")
	}

	if err := a.SetExcluded(path, true); err != nil {
		t.Skipf("xattr not supported on this filesystem: %v", err)
	}
	excluded, err = a.IsExcluded(path)
	if err != nil {
		t.Fatalf("IsExcluded after set: %v", err)
	}
	if !excluded {
		t.Fatalf("expected excluded after SetExcluded(true)")
	}

	if err := a.SetExcluded(path, false); err != nil {
		t.Fatalf("SetExcluded(false): %v", err)
	}
	excluded, err = a.IsExcluded(path)
	if err != nil {
		t.Fatalf("IsExcluded after clear: %v", err)
	}
	if excluded {
		t.Fatalf("expected not excluded after SetExcluded(false)")
	}
}
