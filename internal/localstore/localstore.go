package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a file-based JSON key-value store. It stands in for the
// per-client local storage the UI shell would otherwise provide: navigation
// snapshots, checked shopping-list items, the last-used menu name.
type Store struct {
	basePath string
}

// New creates a Store and ensures the base directory exists.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &Store{basePath: basePath}, nil
}

// sanitizeKey makes a key safe for use as a filename.
func sanitizeKey(key string) string {
	r := strings.NewReplacer(":", "-", "/", "-", "\\", "-", " ", "-")
	return r.Replace(key)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.basePath, sanitizeKey(key)+".json")
}

// Put stores a value under key, replacing any previous value. The write goes
// through a temp file and rename so readers never observe a partial record.
func (s *Store) Put(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to finalize write of %s: %w", key, err)
	}
	return nil
}

// Get loads the value for key into v. It returns false when no record
// exists; that is not an error.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the record for key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	pattern := filepath.Join(s.basePath, sanitizeKey(prefix)+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob keys: %w", err)
	}

	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return keys, nil
}
