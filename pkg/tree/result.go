package tree

import "context"

// Outcome tells a caller which branch a mutation took.
type Outcome int

const (
	// Applied means the mutation was persisted.
	Applied Outcome = iota
	// RejectedMissing means a referenced id did not resolve.
	RejectedMissing
	// RejectedSameNode means a move named the same node as source and target.
	RejectedSameNode
	// RejectedCycle means a move would put a node inside its own subtree.
	RejectedCycle
	// RejectedRoot means the operation is not allowed on the root.
	RejectedRoot
	// Declined means the confirmation gate said no.
	Declined
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedMissing:
		return "rejected: missing reference"
	case RejectedSameNode:
		return "rejected: source and target are the same node"
	case RejectedCycle:
		return "rejected: would create cycle"
	case RejectedRoot:
		return "rejected: root node"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

// Result is returned by every mutation. ID is the node created or touched.
type Result struct {
	Outcome Outcome
	ID      string
}

// OK reports whether the mutation was applied.
func (r Result) OK() bool {
	return r.Outcome == Applied
}

// DeletePolicy decides what happens to the descendants of a deleted folder.
type DeletePolicy int

const (
	// OrphanChildren removes only the named node. Its former children keep
	// their stale parent id and become unreachable from the root.
	OrphanChildren DeletePolicy = iota
	// CascadeChildren removes the whole subtree, deepest nodes first.
	CascadeChildren
)

// Confirmer is the gate asked before a delete is carried out.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every request. For non-interactive callers that
// already obtained consent (e.g. a -y flag).
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// NeverConfirm declines every request.
var NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return false, nil
})

// InsertMode picks which text fields Text returns.
type InsertMode string

const (
	InsertContent            InsertMode = "content"
	InsertContext            InsertMode = "context"
	InsertContentWithContext InsertMode = "content-with-context"
)

// ParseInsertMode maps a configured value to an InsertMode. Unknown values
// map to InsertContentWithContext.
func ParseInsertMode(s string) InsertMode {
	switch InsertMode(s) {
	case InsertContent, InsertContext:
		return InsertMode(s)
	default:
		return InsertContentWithContext
	}
}
