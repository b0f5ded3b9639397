package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileFormatVersion = "1.0"

// fileDocument is the on-disk layout of a FileStore.
type fileDocument struct {
	Version  string            `json:"version"`
	Elements map[string]string `json:"elements"`
}

// FileStore keeps all keys in one JSON document on disk. Writes go to a
// temp file that is renamed over the original.
type FileStore struct {
	path   string
	mu     sync.Mutex
	closed bool
}

// NewFileStore creates a file store at path. The file is created lazily on
// the first Save; an existing file must be a valid document.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store: file path is required")
	}

	s := &FileStore{path: path}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{Version: fileFormatVersion, Elements: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	if doc.Elements == nil {
		doc.Elements = make(map[string]string)
	}
	return doc, nil
}

// Get returns the value under key.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false, ErrClosed
	}
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Elements[key]
	return v, ok, nil
}

// Save replaces the value under key, rewriting the whole document atomically.
func (s *FileStore) Save(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Version = fileFormatVersion
	doc.Elements[key] = value

	return s.write(doc)
}

func (s *FileStore) write(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("store: encode: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("store: rename temp file: %w", err)
	}
	return nil
}

// Close marks the store closed. The file itself is left in place.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
