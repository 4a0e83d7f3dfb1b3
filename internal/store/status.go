package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// Status is the progress snapshot written during long OCR passes so an
// external process (a wrapper UI, a watch script) can monitor the run.
type Status struct {
	Page  int    `json:"page"`
	Total int    `json:"total"`
	State string `json:"status"`
}

// Status states.
const (
	StateRunning = "running"
	StateDone    = "done"
)

// WriteStatus atomically replaces the status file at path.
func WriteStatus(path string, st Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadStatus reads a progress snapshot written by WriteStatus.
func ReadStatus(path string) (Status, error) {
	var st Status
	data, err := os.ReadFile(path)
	if err != nil {
		return st, fmt.Errorf("failed to read status: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to parse status: %w", err)
	}
	return st, nil
}
