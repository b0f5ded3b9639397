// Package tree implements the snippet tree: folders and leaf responses
// addressed by opaque ids, persisted as one serialized blob in a store.Store.
//
// Nodes live in a flat id-indexed table. Parent and child links are plain id
// strings, never pointers, which matches the persisted flat-list format.
package tree

// RootLabel is the label given to a freshly synthesized root folder.
const RootLabel = "root"

// NodeData is the user-visible payload of a node.
type NodeData struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Context string `json:"context" yaml:"context,omitempty"`
	Content string `json:"content" yaml:"content,omitempty"`
}

// Node is one entry of the tree.
//
// A non-nil ChildIDs (even empty) marks a folder; nil marks a leaf.
// A nil ParentID marks the root. See codec.go for the JSON form.
type Node struct {
	Data     NodeData
	ParentID *string
	ChildIDs []string
}

// ID is shorthand for n.Data.ID.
func (n *Node) ID() string {
	return n.Data.ID
}

// IsFolder reports whether n can hold children.
func (n *Node) IsFolder() bool {
	return n.ChildIDs != nil
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// Parent returns the parent id, or "" for the root.
func (n *Node) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

func (n *Node) setParent(id string) {
	n.ParentID = &id
}

// hasChild reports whether id is listed in n's children.
func (n *Node) hasChild(id string) bool {
	for _, c := range n.ChildIDs {
		if c == id {
			return true
		}
	}
	return false
}

// removeChild drops every occurrence of id, keeping n a folder.
func (n *Node) removeChild(id string) {
	if n.ChildIDs == nil {
		return
	}
	kept := n.ChildIDs[:0]
	for _, c := range n.ChildIDs {
		if c != id {
			kept = append(kept, c)
		}
	}
	n.ChildIDs = kept
}

func newLeaf(data NodeData, parentID string) *Node {
	n := &Node{Data: data}
	n.setParent(parentID)
	return n
}

func newFolder(data NodeData, parentID string) *Node {
	n := &Node{Data: data, ChildIDs: []string{}}
	if parentID != "" {
		n.setParent(parentID)
	}
	return n
}
