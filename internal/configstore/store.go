// Package configstore loads and saves the human-editable YAML config file
// that describes which directories to watch and which rules apply to them.
package configstore

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/excludewatch/excludewatch/internal/rule"
)

//go:embed example_config.yaml
var exampleConfig []byte

// IOError wraps a failure while locating, creating, reading, or writing the
// config file.
type IOError struct {
	Op    string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("configstore: %s: %v", e.Op, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// Store manages a single config file on disk.
type Store struct {
	Path string
}

// New locates (and, if absent, bootstraps) the config file under the given
// config directory, bundling the example document on first run.
func New(configDir string) (*Store, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, &IOError{Op: "create config dir", Cause: err}
	}
	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, exampleConfig, 0o644); err != nil {
			return nil, &IOError{Op: "write default config", Cause: err}
		}
	} else if err != nil {
		return nil, &IOError{Op: "stat config", Cause: err}
	}
	return &Store{Path: path}, nil
}

// Load reads and parses the config file into a PreConfig. A corrupt file
// returns rule.DeserializeError without mutating any prior in-memory state.
func (s *Store) Load() (*rule.PreConfig, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &IOError{Op: "read config", Cause: err}
	}
	return rule.ParsePreConfig(data)
}

// Save serializes and writes pc back to the config file.
func (s *Store) Save(pc *rule.PreConfig) error {
	data, err := yaml.Marshal(pc)
	if err != nil {
		return &IOError{Op: "serialize config", Cause: err}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return &IOError{Op: "write config", Cause: err}
	}
	return nil
}

// LoadResolved loads and resolves the config file in one step.
func (s *Store) LoadResolved() (*rule.Config, error) {
	pc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return rule.Resolve(pc)
}

// DefaultConfigDir returns the platform config directory for this tool.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", &IOError{Op: "locate config dir", Cause: err}
	}
	return filepath.Join(dir, "excludewatch"), nil
}
