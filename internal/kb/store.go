package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document is one knowledge-base chunk: its text and embedding vector.
type Document struct {
	Text string    `json:"text"`
	Vec  []float32 `json:"vec"`
}

type indexFile struct {
	Docs []Document `json:"docs"`
}

// FileStore persists the index as a single JSON document and mirrors it in
// memory. Replace writes to a temp file and renames it into place, so a
// concurrent reader never observes a partially written index.
type FileStore struct {
	path string

	mu     sync.RWMutex
	docs   []Document
	loaded bool
}

// NewFileStore creates a store backed by the given path. Nothing is read
// until Docs or Replace is called.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Replace atomically swaps the full index contents, on disk and in memory.
func (s *FileStore) Replace(docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(indexFile{Docs: docs})
	if err != nil {
		return fmt.Errorf("kb: marshal index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("kb: create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".kb_index-*.json")
	if err != nil {
		return fmt.Errorf("kb: create temp index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("kb: write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kb: close temp index: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kb: swap index: %w", err)
	}

	s.docs = docs
	s.loaded = true
	return nil
}

// Docs returns the current index contents, loading from disk on first use.
// Returns ok=false when no index exists yet.
func (s *FileStore) Docs() ([]Document, bool, error) {
	s.mu.RLock()
	if s.loaded {
		docs := s.docs
		s.mu.RUnlock()
		return docs, true, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.docs, true, nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kb: read index: %w", err)
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false, fmt.Errorf("kb: parse index: %w", err)
	}
	s.docs = f.Docs
	s.loaded = true
	return s.docs, true, nil
}
