package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Section is one named group of settings persisted under its ID.
type Section interface {
	// ID is the key the section is stored under
	ID() string

	// Title is a short human-readable name
	Title() string

	// Description explains what the section configures
	Description() string

	// Data returns the current values keyed by setting name
	Data() map[string]interface{}

	// SetData applies values loaded from the store. Unknown keys are ignored.
	SetData(data map[string]interface{}) error

	// Validate reports whether the current values are usable
	Validate() error

	// Reset restores defaults
	Reset()
}

// Manager owns the registered sections and moves their data in and out of a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager over store with no sections registered.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection adds a section. Registering the same ID twice is an error.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}

	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns every section in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll reloads the store and pushes its data into every section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %s: %w", section.ID(), err)
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("failed to apply section %s: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveAll validates every section and writes them all to the store.
// Nothing is written if any section fails validation.
func (m *Manager) SaveAll() error {
	sections := m.GetSections()

	for _, section := range sections {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid %s settings: %w", section.ID(), err)
		}
	}

	for _, section := range sections {
		if err := m.store.SetSection(section.ID(), section.Data()); err != nil {
			return fmt.Errorf("failed to store section %s: %w", section.ID(), err)
		}
	}

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ResetAll restores defaults in every section. The store is not touched.
func (m *Manager) ResetAll() {
	for _, section := range m.GetSections() {
		section.Reset()
	}
}

// Get returns one setting as "<section>.<key>".
func (m *Manager) Get(path string) (interface{}, error) {
	sectionID, key, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	section, ok := m.GetSection(sectionID)
	if !ok {
		return nil, fmt.Errorf("unknown config section %q", sectionID)
	}
	value, ok := section.Data()[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q in section %q (known: %v)", key, sectionID, keys(section))
	}
	return value, nil
}

// Set changes one setting, validates the section and saves everything.
// The section is restored if validation fails.
func (m *Manager) Set(path string, value interface{}) error {
	sectionID, key, err := splitPath(path)
	if err != nil {
		return err
	}
	section, ok := m.GetSection(sectionID)
	if !ok {
		return fmt.Errorf("unknown config section %q", sectionID)
	}

	previous := section.Data()
	if _, ok := previous[key]; !ok {
		return fmt.Errorf("unknown setting %q in section %q (known: %v)", key, sectionID, keys(section))
	}

	if err := section.SetData(map[string]interface{}{key: value}); err != nil {
		return err
	}
	if err := section.Validate(); err != nil {
		_ = section.SetData(previous)
		return fmt.Errorf("invalid %s: %w", path, err)
	}
	return m.SaveAll()
}

func splitPath(path string) (string, string, error) {
	section, key, ok := strings.Cut(path, ".")
	if !ok || section == "" || key == "" {
		return "", "", fmt.Errorf("config path %q must look like <section>.<key>", path)
	}
	return section, key, nil
}

func keys(section Section) []string {
	var out []string
	for k := range section.Data() {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
