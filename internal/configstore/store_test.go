package configstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/excludewatch/excludewatch/internal/rule"
)

func TestNewBootstrapsExampleConfig(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "excludewatch")
	store, err := New(configDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := os.Stat(store.Path); err != nil {
		t.Fatalf("expected config file to be bootstrapped: %v", err)
	}

	pc, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(pc.Directories) == 0 {
		t.Fatalf("expected bundled example to declare at least one directory")
	}
}

func TestLoadCorruptConfigReturnsDeserializeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(": not valid yaml : ["), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &Store{Path: path}
	_, err := store.Load()
	var deserErr *rule.DeserializeError
	if !errors.As(err, &deserErr) {
		t.Fatalf("expected DeserializeError for corrupt config, got %v", err)
	}
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "excludewatch")
	store, err := New(configDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pc, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pc.NoInclude = true
	if err := store.Save(pc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.NoInclude {
		t.Fatalf("expected NoInclude to round-trip as true")
	}
}
