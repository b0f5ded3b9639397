package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDInsert is the identifier for the insert section
	SectionIDInsert = "insert"

	InsertTypeContent            = "content"
	InsertTypeContext            = "context"
	InsertTypeContentWithContext = "content-with-context"
)

// InsertSection holds which text of a snippet gets inserted.
type InsertSection struct {
	InsertType string
	mu         sync.RWMutex
}

// NewInsertSection defaults to content-with-context.
func NewInsertSection() *InsertSection {
	return &InsertSection{InsertType: InsertTypeContentWithContext}
}

func (s *InsertSection) ID() string          { return SectionIDInsert }
func (s *InsertSection) Title() string       { return "Insert" }
func (s *InsertSection) Description() string { return "insert_type: content, context or content-with-context." }

// Data returns the current configuration data.
func (s *InsertSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{"insert_type": s.InsertType}
}

// SetData updates insert_type when present.
func (s *InsertSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := data["insert_type"].(string); ok && v != "" {
		s.InsertType = v
	}
	return nil
}

// Validate rejects unknown insert types.
func (s *InsertSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.InsertType {
	case InsertTypeContent, InsertTypeContext, InsertTypeContentWithContext:
		return nil
	default:
		return fmt.Errorf("unknown insert_type %q", s.InsertType)
	}
}

// Reset restores the default.
func (s *InsertSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertType = InsertTypeContentWithContext
}

// GetInsertType returns the configured insert type.
func (s *InsertSection) GetInsertType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.InsertType
}
