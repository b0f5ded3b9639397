package tree

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out node ids. Ids must not repeat within a snapshot;
// no format or ordering is assumed.
type IDGenerator interface {
	Next() string
}

// UUIDGenerator produces random (version 4) UUID strings.
type UUIDGenerator struct{}

// Next returns a new UUID.
func (UUIDGenerator) Next() string {
	return uuid.New().String()
}

// SequenceGenerator produces prefix1, prefix2, ... and is safe for
// concurrent use. It gives tests predictable ids.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Int64
}

// NewSequenceGenerator returns a generator starting at prefix1.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

// Next returns the next id in the sequence.
func (g *SequenceGenerator) Next() string {
	return fmt.Sprintf("%s%d", g.Prefix, g.n.Add(1))
}
