package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDStorage is the identifier for the storage section
	SectionIDStorage = "storage"

	defaultStorageBackend = "file"
	defaultStorageKey     = "storage-key"
)

var storageBackends = map[string]bool{
	"memory": true,
	"file":   true,
	"redis":  true,
	"sqlite": true,
}

// StorageSection selects where the snippet tree is persisted.
type StorageSection struct {
	Backend     string
	Path        string
	RedisURL    string
	RedisPrefix string
	Key         string
	mu          sync.RWMutex
}

// NewStorageSection returns the defaults: file backend at its default path,
// key "storage-key".
func NewStorageSection() *StorageSection {
	return &StorageSection{
		Backend: defaultStorageBackend,
		Key:     defaultStorageKey,
	}
}

// ID returns the section identifier.
func (s *StorageSection) ID() string {
	return SectionIDStorage
}

// Title returns the section title.
func (s *StorageSection) Title() string {
	return "Storage"
}

// Description returns the section description.
func (s *StorageSection) Description() string {
	return "Where the snippet tree is stored. backend is one of memory, file, redis, sqlite; path applies to file and sqlite, redis_url and redis_prefix to redis."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"backend":      s.Backend,
		"path":         s.Path,
		"redis_url":    s.RedisURL,
		"redis_prefix": s.RedisPrefix,
		"key":          s.Key,
	}
}

// SetData updates the fields present in data.
func (s *StorageSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["backend"].(string); ok && v != "" {
		s.Backend = v
	}
	if v, ok := data["path"].(string); ok {
		s.Path = v
	}
	if v, ok := data["redis_url"].(string); ok {
		s.RedisURL = v
	}
	if v, ok := data["redis_prefix"].(string); ok {
		s.RedisPrefix = v
	}
	if v, ok := data["key"].(string); ok && v != "" {
		s.Key = v
	}
	return nil
}

// Validate checks the backend name and that redis has a URL.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !storageBackends[s.Backend] {
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	if s.Backend == "redis" && s.RedisURL == "" {
		return fmt.Errorf("redis backend requires redis_url")
	}
	return nil
}

// Reset restores defaults.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = defaultStorageBackend
	s.Path = ""
	s.RedisURL = ""
	s.RedisPrefix = ""
	s.Key = defaultStorageKey
}

// GetBackend returns the backend name.
func (s *StorageSection) GetBackend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Backend
}

// GetPath returns the file or database path; empty means the default.
func (s *StorageSection) GetPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Path
}

// GetRedisURL returns the redis URL.
func (s *StorageSection) GetRedisURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RedisURL
}

// GetRedisPrefix returns the prefix prepended to redis keys.
func (s *StorageSection) GetRedisPrefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RedisPrefix
}

// GetKey returns the key the tree is stored under.
func (s *StorageSection) GetKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Key
}
