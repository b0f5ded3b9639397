// Package export renders a tree snapshot as a nested YAML outline.
package export

import (
	"fmt"
	"io"

	"github.com/entrhq/quill/pkg/tree"
	"gopkg.in/yaml.v3"
)

// Outline is one node with its children nested in place.
type Outline struct {
	tree.NodeData `yaml:",inline"`
	Folder        bool      `yaml:"folder,omitempty"`
	Children      []Outline `yaml:"children,omitempty"`
}

// Document is the exported file.
type Document struct {
	Root Outline `yaml:"root"`
	// Orphans holds nodes unreachable from the root, each with its subtree.
	Orphans []Outline `yaml:"orphans,omitempty"`
}

// Build converts s to a Document.
func Build(s *tree.Snapshot) Document {
	seen := make(map[string]bool, s.Len())
	doc := Document{Root: build(s, s.Root(), seen)}

	for _, n := range s.Orphans() {
		if seen[n.ID()] {
			continue
		}
		// Nodes still listed by their parent are emitted under it.
		if p, ok := s.Get(n.Parent()); ok && contains(p.ChildIDs, n.ID()) {
			continue
		}
		doc.Orphans = append(doc.Orphans, build(s, n, seen))
	}
	// Whatever is left hangs off a parent cycle.
	for _, n := range s.Orphans() {
		if !seen[n.ID()] {
			doc.Orphans = append(doc.Orphans, build(s, n, seen))
		}
	}
	return doc
}

func build(s *tree.Snapshot, n *tree.Node, seen map[string]bool) Outline {
	seen[n.ID()] = true
	o := Outline{NodeData: n.Data, Folder: n.IsFolder()}
	for _, c := range s.Children(n.ID()) {
		if seen[c.ID()] {
			continue
		}
		o.Children = append(o.Children, build(s, c, seen))
	}
	return o
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Write encodes s as YAML to w.
func Write(w io.Writer, s *tree.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Build(s)); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return enc.Close()
}

// Count returns how many nodes o holds, itself included.
func (o Outline) Count() int {
	n := 1
	for _, c := range o.Children {
		n += c.Count()
	}
	return n
}
