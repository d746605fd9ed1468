package mission

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// eventState records the last time the watcher flushed a coalesced batch,
// so a restarted daemon has a rough sense of how stale its view may be.
// It has no bearing on scan/diff correctness; it is purely informational.
type eventState struct {
	LastFlush time.Time `json:"last_flush"`
}

func eventStatePath(configDir string) string {
	return filepath.Join(configDir, "last_event.json")
}

func loadEventState(configDir string) (*eventState, error) {
	data, err := os.ReadFile(eventStatePath(configDir))
	if os.IsNotExist(err) {
		return &eventState{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s eventState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func saveEventState(configDir string, s *eventState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(eventStatePath(configDir), data, 0o644)
}
