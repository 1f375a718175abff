// Package storage persists small client values (the session credential and
// UI preferences) in ~/.config/livra/state.toml.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Known keys.
const (
	KeyToken = "token"
	KeyTheme = "theme"
)

const defaultStatePath = "~/.config/livra/state.toml"

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return defaultStatePath
}

// Store is a string key-value file. Every write rewrites the file.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open resolves path (blank means the default) without touching disk.
func Open(path string) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	return &Store{path: resolved}, nil
}

// Path is the resolved file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value under key. A missing file or key reports false.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *Store) load() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	// The file holds a bearer credential.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultStatePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
