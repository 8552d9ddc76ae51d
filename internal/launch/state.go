package launch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the queue's durable snapshot. Everything needed to resume after a
// crash lives here: the pending IDs in order plus the rate and budget
// counters with their reset instants.
type State struct {
	Pending []string `json:"pending"`

	LaunchedThisHour int       `json:"launched_this_hour"`
	HourResetsAt     time.Time `json:"hour_resets_at"`

	SpentTodaySOL float64   `json:"spent_today_sol"`
	DayResetsAt   time.Time `json:"day_resets_at"`

	TotalProcessed int `json:"total_processed"`
	TotalFailed    int `json:"total_failed"`

	SavedAt time.Time `json:"saved_at"`
}

// Store persists queue state as a JSON file
type Store struct {
	path string
}

// NewStore creates a Store writing to path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file is a fresh start, not an
// error; absent fields in an older file default to their zero values so the
// format can grow.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse queue state %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes state atomically: a temp file in the same directory, then a
// rename. A crash mid-write leaves the previous snapshot intact.
func (s *Store) Save(state *State) error {
	state.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode queue state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write queue state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace queue state: %w", err)
	}
	return nil
}
