package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileResolver resolves request IDs against a JSON definitions file holding
// an array of requests. The file is re-read on every lookup so operators can
// add definitions while the queue is running.
type FileResolver struct {
	path string
}

// NewFileResolver creates a resolver backed by path
func NewFileResolver(path string) *FileResolver {
	return &FileResolver{path: path}
}

// Resolve returns the request definition for id
func (r *FileResolver) Resolve(id string) (*Request, error) {
	requests, err := r.loadAll()
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ID == id {
			return &requests[i], nil
		}
	}
	return nil, fmt.Errorf("launch request %q not found in %s", id, r.path)
}

// All returns every request definition in file order
func (r *FileResolver) All() ([]Request, error) {
	return r.loadAll()
}

func (r *FileResolver) loadAll() ([]Request, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read launch requests: %w", err)
	}

	var requests []Request
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("failed to parse launch requests %s: %w", r.path, err)
	}
	return requests, nil
}

// JSONLRecorder appends outcomes to a JSON-lines audit file, one object per
// line
type JSONLRecorder struct {
	mu   sync.Mutex
	path string
}

// NewJSONLRecorder creates a recorder appending to path
func NewJSONLRecorder(path string) *JSONLRecorder {
	return &JSONLRecorder{path: path}
}

// Record appends one outcome
func (r *JSONLRecorder) Record(_ context.Context, outcome *Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	return nil
}
