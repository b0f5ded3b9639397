package config

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps sections in memory and can be told to fail.
type memStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{sections: make(map[string]map[string]interface{})}
}

func (s *memStore) Load() error { return s.loadErr }

func (s *memStore) Save() error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	return nil
}

func (s *memStore) GetSection(id string) (map[string]interface{}, error) {
	if data, ok := s.sections[id]; ok {
		return data, nil
	}
	return map[string]interface{}{}, nil
}

func (s *memStore) SetSection(id string, data map[string]interface{}) error {
	s.sections[id] = data
	return nil
}

func (s *memStore) GetAll() (map[string]map[string]interface{}, error) {
	return s.sections, nil
}

func (s *memStore) SetAll(data map[string]map[string]interface{}) error {
	s.sections = data
	return nil
}

func newQuillManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m := NewManager(store)
	for _, s := range []Section{NewStorageSection(), NewInsertSection(), NewLLMSection()} {
		require.NoError(t, m.RegisterSection(s))
	}
	return m
}

func TestManager_Register(t *testing.T) {
	store := newMemStore()
	m := newQuillManager(t, store)
	assert.Same(t, store, m.Store())

	var ids []string
	for _, s := range m.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{SectionIDStorage, SectionIDInsert, SectionIDLLM}, ids, "registration order")

	assert.Error(t, m.RegisterSection(NewInsertSection()), "duplicate id")

	s, ok := m.GetSection(SectionIDInsert)
	require.True(t, ok)
	assert.IsType(t, &InsertSection{}, s)

	_, ok = m.GetSection("ui")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	store := newMemStore()
	store.sections[SectionIDStorage] = map[string]interface{}{"backend": "sqlite", "path": "/tmp/q.db"}
	store.sections[SectionIDInsert] = map[string]interface{}{"insert_type": "content"}

	m := newQuillManager(t, store)
	require.NoError(t, m.LoadAll())

	storage, _ := m.GetSection(SectionIDStorage)
	assert.Equal(t, "sqlite", storage.(*StorageSection).GetBackend())
	assert.Equal(t, "/tmp/q.db", storage.(*StorageSection).GetPath())

	insert, _ := m.GetSection(SectionIDInsert)
	assert.Equal(t, InsertTypeContent, insert.(*InsertSection).GetInsertType())

	llmSection, _ := m.GetSection(SectionIDLLM)
	assert.InDelta(t, 0.7, llmSection.(*LLMSection).GetTemperature(), 1e-9, "absent section keeps defaults")
}

func TestManager_LoadAllStoreError(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("disk on fire")

	err := newQuillManager(t, store).LoadAll()
	assert.ErrorIs(t, err, store.loadErr)
}

func TestManager_SaveAll(t *testing.T) {
	store := newMemStore()
	m := newQuillManager(t, store)

	require.NoError(t, m.SaveAll())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "file", store.sections[SectionIDStorage]["backend"])
	assert.Equal(t, InsertTypeContentWithContext, store.sections[SectionIDInsert]["insert_type"])
}

func TestManager_SaveAllValidatesFirst(t *testing.T) {
	store := newMemStore()
	m := newQuillManager(t, store)

	storage, _ := m.GetSection(SectionIDStorage)
	require.NoError(t, storage.SetData(map[string]interface{}{"backend": "redis"}))

	assert.Error(t, m.SaveAll(), "redis without url")
	assert.Zero(t, store.saves)
}

func TestManager_SaveAllStoreError(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("read-only")

	assert.Error(t, newQuillManager(t, store).SaveAll())
}

func TestManager_ResetAll(t *testing.T) {
	m := newQuillManager(t, newMemStore())
	require.NoError(t, m.Set("insert.insert_type", "context"))
	require.NoError(t, m.Set("llm.model", "local"))

	m.ResetAll()

	v, err := m.Get("insert.insert_type")
	require.NoError(t, err)
	assert.Equal(t, InsertTypeContentWithContext, v)
	v, err = m.Get("llm.model")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// An empty manager has nothing to reset.
	NewManager(newMemStore()).ResetAll()
}

func TestManager_ConcurrentRegistration(t *testing.T) {
	m := NewManager(newMemStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := NewStorageSection()
			assert.NoError(t, m.RegisterSection(renamed{s, fmt.Sprintf("storage%d", i)}))
			m.GetSections()
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.GetSections(), 10)
}

// renamed registers a section under another id.
type renamed struct {
	*StorageSection
	id string
}

func (r renamed) ID() string { return r.id }

func TestManager_GetSet(t *testing.T) {
	store := newMemStore()
	m := newQuillManager(t, store)

	value, err := m.Get("insert.insert_type")
	require.NoError(t, err)
	assert.Equal(t, InsertTypeContentWithContext, value)

	require.NoError(t, m.Set("insert.insert_type", "content"))
	assert.Equal(t, "content", store.sections[SectionIDInsert]["insert_type"], "Set saves through the store")

	assert.Error(t, m.Set("insert.insert_type", "bogus"))
	value, _ = m.Get("insert.insert_type")
	assert.Equal(t, "content", value, "failed Set restores the previous value")

	for _, path := range []string{"insert", ".insert_type", "insert.", "missing.key", "insert.missing"} {
		_, err := m.Get(path)
		assert.Error(t, err, "Get(%q)", path)
		assert.Error(t, m.Set(path, "x"), "Set(%q)", path)
	}
}
