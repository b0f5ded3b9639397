package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Match is one Find hit.
type Match struct {
	Node *Node
	// Path holds the labels from below the root down to Node.
	Path []string
}

// Walk visits every node reachable from the root depth-first, children in
// order, with the root at depth 0. Returning false from fn skips the node's
// children.
func (s *Snapshot) Walk(fn func(n *Node, depth int) bool) {
	seen := make(map[string]bool, len(s.nodes))
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		if !fn(n, depth) {
			return
		}
		for _, c := range s.Children(n.ID()) {
			visit(c, depth+1)
		}
	}
	if root := s.Root(); root != nil {
		visit(root, 0)
	}
}

// Orphans returns the nodes that cannot be reached from the root, in
// snapshot order.
func (s *Snapshot) Orphans() []*Node {
	reachable := make(map[string]bool, len(s.nodes))
	s.Walk(func(n *Node, _ int) bool {
		reachable[n.ID()] = true
		return true
	})

	var out []*Node
	for _, id := range s.order {
		if !reachable[id] {
			out = append(out, s.nodes[id])
		}
	}
	return out
}

// Find returns the nodes whose label matches the glob pattern, ignoring case.
// Reachable nodes come first in tree order, then orphans. The root is never
// matched.
func (r *Repository) Find(ctx context.Context, pattern string) ([]Match, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("tree: bad pattern %q: %w", pattern, err)
	}

	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	add := func(n *Node) {
		if n.ID() != s.RootID() && g.Match(strings.ToLower(n.Data.Label)) {
			matches = append(matches, Match{Node: n, Path: s.Path(n.ID())})
		}
	}
	s.Walk(func(n *Node, _ int) bool {
		add(n)
		return true
	})
	for _, n := range s.Orphans() {
		add(n)
	}
	return matches, nil
}
