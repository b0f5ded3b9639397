package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a constructor per backend so each subtest gets a fresh store.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "tree.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "quill.db"))
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			s, err := NewRedisStore(context.Background(), RedisOptions{
				URL:    fmt.Sprintf("redis://%s", mr.Addr()),
				Prefix: "quill:",
			})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key reports not ok", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				value, ok, err := s.Get(ctx, "storage-key")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, value)
			})

			t.Run("save then get", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "storage-key", `[{"data":{"id":"r"}}]`))
				value, ok, err := s.Get(ctx, "storage-key")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `[{"data":{"id":"r"}}]`, value)
			})

			t.Run("save overwrites", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "k", "first"))
				require.NoError(t, s.Save(ctx, "k", "second"))
				value, _, err := s.Get(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, "second", value)
			})

			t.Run("empty value is stored", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "k", ""))
				value, ok, err := s.Get(ctx, "k")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Empty(t, value)
			})

			t.Run("keys are independent", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "a", "1"))
				require.NoError(t, s.Save(ctx, "b", "2"))
				a, _, _ := s.Get(ctx, "a")
				b, _, _ := s.Get(ctx, "b")
				assert.Equal(t, "1", a)
				assert.Equal(t, "2", b)
			})

			t.Run("empty key is rejected", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				assert.ErrorIs(t, s.Save(ctx, "", "x"), ErrInvalidKey)
				_, _, err := s.Get(ctx, "")
				assert.ErrorIs(t, err, ErrInvalidKey)
			})

			t.Run("closed store fails", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Close())

				err := s.Save(ctx, "k", "v")
				require.Error(t, err)
			})
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tree.json")

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "storage-key", "payload"))

	s2, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := s2.Get(ctx, "storage-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", value)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileStore_RejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quill.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "storage-key", "v1"))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	value, ok, err := s2.Get(ctx, "storage-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)
}

func TestRedisStore(t *testing.T) {
	t.Run("uses key prefix", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := NewRedisStore(context.Background(), RedisOptions{
			URL:    fmt.Sprintf("redis://%s", mr.Addr()),
			Prefix: "quill:",
		})
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Save(context.Background(), "storage-key", "blob"))
		got, err := mr.Get("quill:storage-key")
		require.NoError(t, err)
		assert.Equal(t, "blob", got)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisStore(context.Background(), RedisOptions{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})

	t.Run("connection failure", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisStore(context.Background(), RedisOptions{URL: fmt.Sprintf("redis://%s", addr)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("server error propagates", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := NewRedisStore(context.Background(), RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
		require.NoError(t, err)
		defer s.Close()

		mr.SetError("READONLY replica")
		err = s.Save(context.Background(), "k", "v")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis save")
	})
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Save(ctx, "k", fmt.Sprintf("v%d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Saves())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, Options{Backend: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("file defaults under QUILL_HOME", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("QUILL_HOME", home)

		s, err := Open(ctx, Options{})
		require.NoError(t, err)
		fs, ok := s.(*FileStore)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(home, "tree.json"), fs.Path())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, Options{Backend: "SQLite", Path: filepath.Join(t.TempDir(), "q.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := Open(ctx, Options{
			Backend:     "redis",
			RedisURL:    fmt.Sprintf("redis://%s", mr.Addr()),
			RedisPrefix: "quill:",
		})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &RedisStore{}, s)

		require.NoError(t, s.Save(ctx, "storage-key", "blob"))
		assert.True(t, mr.Exists("quill:storage-key"), "prefix reaches the redis store")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: "etcd"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownBackend))
	})
}
