package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"memocal/internal/model"
)

// JSONStore keeps the whole record map in memory and rewrites the backing
// file on every Put. Reads and writes of the collection go through one
// mutex: the file has whole-document semantics, so writers for different
// keys must serialize against each other or an unrelated entry could be
// lost.
type JSONStore struct {
	path string

	mu      sync.Mutex
	records map[string]model.Record
}

// OpenJSON loads the state file at path, treating a missing file as an
// empty store.
func OpenJSON(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("state path is empty")
	}

	s := &JSONStore{path: path, records: make(map[string]model.Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Get(key string) (model.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *JSONStore) Put(key string, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return s.writeLocked(s.path)
}

func (s *JSONStore) Close() error { return nil }

// Snapshot writes a timestamped copy of the current state into dir.
func (s *JSONStore) Snapshot(dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := "state-" + time.Now().UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(dir, name)
	if err := s.writeLocked(path); err != nil {
		return "", err
	}
	return path, nil
}

// writeLocked persists the full map atomically: temp file in the target
// directory, then rename. Caller holds s.mu.
func (s *JSONStore) writeLocked(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".memocal-state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
