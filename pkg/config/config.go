package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// NewDefaultManager opens the file store at path and registers the storage,
// insert and llm sections, loading their saved values.
func NewDefaultManager(path string) (*Manager, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	for _, section := range []Section{NewStorageSection(), NewInsertSection(), NewLLMSection()} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize creates the global configuration manager.
// Call once at startup; an empty path means DefaultPath.
func Initialize(configPath string) error {
	manager, err := NewDefaultManager(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

func globalSection[T Section](id string) T {
	var zero T
	if !IsInitialized() {
		return zero
	}
	section, ok := Global().GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetStorage returns the storage section, or nil before Initialize.
func GetStorage() *StorageSection {
	return globalSection[*StorageSection](SectionIDStorage)
}

// GetInsert returns the insert section, or nil before Initialize.
func GetInsert() *InsertSection {
	return globalSection[*InsertSection](SectionIDInsert)
}

// GetLLM returns the LLM settings section, or nil before Initialize.
func GetLLM() *LLMSection {
	return globalSection[*LLMSection](SectionIDLLM)
}
