// Package store provides the element stores the snippet tree is persisted in.
//
// A Store holds string blobs under string keys. Every Save is a full
// replacement of the value under its key; the stores make no promise beyond
// "last write wins" when several processes write the same key.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("store: unknown backend")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("store: invalid key")
)

// Store is durable key to string storage.
type Store interface {
	// Get returns the value under key. ok is false when nothing was ever saved.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Save replaces the value under key.
	Save(ctx context.Context, key, value string) error

	// Close releases any underlying resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of the Backend* constants. Defaults to BackendFile.
	Backend string

	// Path is the JSON file (file backend) or database file (sqlite backend).
	// Empty means a default location under the quill home directory.
	Path string

	// RedisURL is the connection string for the redis backend.
	RedisURL string

	// RedisPrefix is prepended to every redis key.
	RedisPrefix string

	// ConnectTimeout bounds connection establishment for network backends.
	ConnectTimeout time.Duration
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		path, err := defaultPath(opts.Path, "tree.json")
		if err != nil {
			return nil, err
		}
		return NewFileStore(path)
	case BackendSQLite:
		path, err := defaultPath(opts.Path, "quill.db")
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)
	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			URL:            opts.RedisURL,
			Prefix:         opts.RedisPrefix,
			ConnectTimeout: opts.ConnectTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// HomeDir returns the quill data directory: $QUILL_HOME or ~/.quill.
func HomeDir() (string, error) {
	if dir := os.Getenv("QUILL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".quill"), nil
}

func defaultPath(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
