package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// storeVersion is written into every queue file. Files of another
// version are refused rather than misread.
const storeVersion = 1

type queueFile struct {
	Version int     `json:"version"`
	Tasks   []*Task `json:"tasks"`
}

// Store reads and writes one queue.json.
type Store struct {
	filePath string
}

func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Save replaces the file with tasks. The new content is written to a
// sibling temp file and renamed over the old one, so readers in another
// process see either the old or the new queue.
func (s *Store) Save(tasks []*Task) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create queue directory: %w", err)
	}

	data, err := json.MarshalIndent(queueFile{Version: storeVersion, Tasks: tasks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close queue file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("failed to replace queue file: %w", err)
	}
	return nil
}

// Load returns the stored tasks. A missing file is an empty queue.
func (s *Store) Load() ([]*Task, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []*Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}

	var file queueFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue: %w", err)
	}
	// Version 0 is a file written before versioning; its layout is the same.
	if file.Version > storeVersion {
		return nil, fmt.Errorf("queue file %s has version %d, this build reads up to %d",
			s.filePath, file.Version, storeVersion)
	}

	if file.Tasks == nil {
		return []*Task{}, nil
	}
	return file.Tasks, nil
}
