package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

var (
	// ErrStateRead means the snapshot exists but could not be read or
	// decoded. Callers treat it as a cold start.
	ErrStateRead = errors.New("state read failed")

	// ErrStateWrite wraps any failure while persisting the snapshot.
	ErrStateWrite = errors.New("state write failed")
)

// Store keeps a value in memory and mirrors it to a JSON file. Every Set
// replaces the file atomically, so a crash leaves either the old snapshot
// or the new one on disk.
type Store[T any] struct {
	mu       sync.RWMutex
	data     T
	filepath string
	defaults T
}

// NewStore creates a store backed by filepath. Nothing is read until Load.
func NewStore[T any](filepath string, defaults T) *Store[T] {
	return &Store[T]{
		filepath: filepath,
		defaults: defaults,
		data:     defaults,
	}
}

// Path returns the backing file.
func (s *Store[T]) Path() string {
	return s.filepath
}

// Load reads the snapshot from disk. A missing file is not an error: ok is
// false and the defaults stay in place. A corrupt file returns
// ErrStateRead and also leaves the defaults.
func (s *Store[T]) Load() (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filepath)
	if err != nil {
		s.data = s.defaults
		if errors.Is(err, fs.ErrNotExist) {
			return s.data, false, nil
		}
		return s.data, false, fmt.Errorf("%w: %w", ErrStateRead, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.data = s.defaults
		return s.data, false, fmt.Errorf("%w: failed to parse %s: %w", ErrStateRead, s.filepath, err)
	}

	s.data = v
	return s.data, true, nil
}

// Set replaces the value and persists it.
func (s *Store[T]) Set(data T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	return s.save()
}

func (s *Store[T]) save() error {
	dir := filepath.Dir(s.filepath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", ErrStateWrite, err)
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal data: %w", ErrStateWrite, err)
	}

	if err := atomic.WriteFile(s.filepath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrStateWrite, err)
	}
	return nil
}
