package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store persists history entries in insertion order.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, entry Entry) error
	Clear(ctx context.Context) error
}

// FileStore keeps history as a JSON array in a single file. A missing
// file is an empty history. FileStore is safe for concurrent use within
// one process.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *logrus.Entry
}

// NewFileStore returns a store backed by the file at path. The file and
// its directory are created on the first Add.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		logger: logrus.WithFields(logrus.Fields{
			"component": "history",
			"path":      path,
		}),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// List returns every recorded entry, oldest first.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add validates and appends entry.
func (s *FileStore) Add(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Version == 0 {
		entry.Version = CurrentVersion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if err := s.save(entries); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"function": "Add",
		"url":      entry.URL,
		"entries":  len(entries),
	}).Debug("Recorded history entry")
	return nil
}

// Clear removes the history file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing history file: %w", err)
	}
	s.logger.WithField("function", "Clear").Info("Cleared upload history")
	return nil
}

func (s *FileStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", s.path, err)
	}
	return entries, nil
}

// save writes entries atomically through a temporary file.
func (s *FileStore) save(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary history file: %w", err)
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// List returns a copy of the recorded entries, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry{}, s.entries...), nil
}

// Add validates and appends entry.
func (s *MemoryStore) Add(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.Version == 0 {
		entry.Version = CurrentVersion
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
