package tree

import (
	"errors"
	"fmt"
)

// Snapshot is the complete id to Node table for one operation.
// Iteration order follows insertion order so serialization is stable.
type Snapshot struct {
	nodes  map[string]*Node
	order  []string
	rootID string
}

func newSnapshot() *Snapshot {
	return &Snapshot{nodes: make(map[string]*Node)}
}

// NewSnapshot returns a snapshot holding only a fresh root folder whose id
// comes from ids.
func NewSnapshot(ids IDGenerator) *Snapshot {
	s := newSnapshot()
	root := newFolder(NodeData{ID: ids.Next(), Label: RootLabel}, "")
	s.insert(root)
	s.rootID = root.ID()
	return s
}

// FromNodes builds a snapshot from decoded records. The first parent-less
// folder becomes the root; later parent-less records stay in the table as
// orphans. It fails with ErrCorrupt when a record has no id, an id repeats,
// or no root candidate exists.
func FromNodes(nodes []*Node) (*Snapshot, error) {
	s := newSnapshot()
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrCorrupt, i)
		}
		if n.ID() == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrCorrupt, i)
		}
		if _, dup := s.nodes[n.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorrupt, n.ID())
		}
		s.insert(n)
		if s.rootID == "" && n.IsRoot() && n.IsFolder() {
			s.rootID = n.ID()
		}
	}
	if s.rootID == "" {
		return nil, fmt.Errorf("%w: no root folder among %d records", ErrCorrupt, len(nodes))
	}
	return s, nil
}

// RootID returns the id of the canonical root.
func (s *Snapshot) RootID() string {
	return s.rootID
}

// Root returns the canonical root node.
func (s *Snapshot) Root() *Node {
	return s.nodes[s.rootID]
}

// Get returns the node with id.
func (s *Snapshot) Get(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of nodes, orphans included.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// IDs returns every id in snapshot order.
func (s *Snapshot) IDs() []string {
	return append([]string(nil), s.order...)
}

// Nodes returns every node in snapshot order.
func (s *Snapshot) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Children resolves the children of folder id in order, skipping ids that
// do not resolve. It returns nil for leaves and unknown ids.
func (s *Snapshot) Children(id string) []*Node {
	n, ok := s.nodes[id]
	if !ok || !n.IsFolder() {
		return nil
	}
	out := make([]*Node, 0, len(n.ChildIDs))
	for _, cid := range n.ChildIDs {
		if c, ok := s.nodes[cid]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Path returns the labels from the root down to id, excluding the root.
func (s *Snapshot) Path(id string) []string {
	chain := s.Ancestors(id)
	labels := make([]string, 0, len(chain)+1)
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] == s.rootID {
			continue
		}
		labels = append(labels, s.nodes[chain[i]].Data.Label)
	}
	if n, ok := s.nodes[id]; ok && id != s.rootID {
		labels = append(labels, n.Data.Label)
	}
	return labels
}

// Ancestors returns the parent chain of id, nearest first. The walk stops
// before a missing parent and is bounded by the snapshot size.
func (s *Snapshot) Ancestors(id string) []string {
	var chain []string
	n, ok := s.nodes[id]
	for steps := 0; ok && !n.IsRoot() && steps < len(s.nodes); steps++ {
		pid := n.Parent()
		if n, ok = s.nodes[pid]; ok {
			chain = append(chain, pid)
		}
	}
	return chain
}

// wouldCycle reports whether making parentID the parent of sourceID would
// put sourceID inside its own subtree. It walks up from parentID and rejects
// on meeting sourceID itself or any node whose parent is sourceID. A chain
// longer than the snapshot already contains a cycle and is rejected too.
func (s *Snapshot) wouldCycle(sourceID, parentID string) bool {
	cur, ok := s.nodes[parentID]
	for steps := 0; ok; steps++ {
		if steps > len(s.nodes) {
			return true
		}
		if cur.ID() == sourceID || cur.Parent() == sourceID {
			return true
		}
		if cur.IsRoot() {
			return false
		}
		cur, ok = s.nodes[cur.Parent()]
	}
	return false
}

// Descendants returns every id reachable below id through child lists,
// deepest first, so deleting in order never leaves a dangling child.
func (s *Snapshot) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(pid string) {
		for _, c := range s.Children(pid) {
			if seen[c.ID()] {
				continue
			}
			seen[c.ID()] = true
			walk(c.ID())
			out = append(out, c.ID())
		}
	}
	walk(id)
	return out
}

func (s *Snapshot) insert(n *Node) {
	if _, exists := s.nodes[n.ID()]; !exists {
		s.order = append(s.order, n.ID())
	}
	s.nodes[n.ID()] = n
}

func (s *Snapshot) remove(id string) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	delete(s.nodes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Validate checks the tree invariants and returns every violation joined.
func (s *Snapshot) Validate() error {
	var errs []error

	root, ok := s.nodes[s.rootID]
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("root %q is missing", s.rootID))
	case !root.IsRoot():
		errs = append(errs, fmt.Errorf("root %q has a parent", s.rootID))
	case !root.IsFolder():
		errs = append(errs, fmt.Errorf("root %q is not a folder", s.rootID))
	}

	listedBy := make(map[string]string)
	for _, id := range s.order {
		n := s.nodes[id]
		if n.IsRoot() {
			if id != s.rootID {
				errs = append(errs, fmt.Errorf("node %q has no parent but is not the root", id))
			}
		} else {
			p, ok := s.nodes[n.Parent()]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("node %q has missing parent %q", id, n.Parent()))
			case !p.IsFolder():
				errs = append(errs, fmt.Errorf("node %q has leaf parent %q", id, n.Parent()))
			case countOf(p.ChildIDs, id) != 1:
				errs = append(errs, fmt.Errorf("parent %q lists node %q %d times", p.ID(), id, countOf(p.ChildIDs, id)))
			}
			if s.wouldCycle(id, n.Parent()) {
				errs = append(errs, fmt.Errorf("node %q is its own ancestor", id))
			}
		}

		for _, cid := range n.ChildIDs {
			if _, ok := s.nodes[cid]; !ok {
				errs = append(errs, fmt.Errorf("folder %q lists missing child %q", id, cid))
				continue
			}
			if other, seen := listedBy[cid]; seen && other != id {
				errs = append(errs, fmt.Errorf("node %q is listed by both %q and %q", cid, other, id))
			}
			listedBy[cid] = id
		}
	}

	return errors.Join(errs...)
}

func countOf(ids []string, id string) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}
