package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the restore-side progress record: {"chunks_restored": N},
// monotonically non-decreasing, created on the first restored chunk and
// retained after completion as the "restored" marker (spec.md §3).
type State struct {
	ChunksRestored int `json:"chunks_restored"`
}

// StatePath returns the restore_state.json path for a table directory.
func StatePath(tableDir string) string {
	return filepath.Join(tableDir, "restore_state.json")
}

// LoadState reads the restore state, returning the zero State (chunks
// restored = 0) if no file exists yet.
func LoadState(tableDir string) (*State, error) {
	data, err := os.ReadFile(StatePath(tableDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read restore state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse restore state: %w", err)
	}
	return &s, nil
}

// SaveState writes the restore state atomically, same mechanism as Save.
func SaveState(tableDir string, s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal restore state: %w", err)
	}
	return atomicWrite(StatePath(tableDir), data)
}
