package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrCorrupt marks persisted data that cannot be adopted as a tree.
var ErrCorrupt = errors.New("tree: corrupt snapshot")

// record is the persisted shape of a Node. ChildIDs is a pointer so that an
// empty folder keeps its "childIds": [] and a leaf omits the key entirely.
type record struct {
	Data     NodeData  `json:"data"`
	ParentID *string   `json:"parentId,omitempty"`
	ChildIDs *[]string `json:"childIds,omitempty"`
}

// MarshalJSON encodes n in the persisted record form.
func (n *Node) MarshalJSON() ([]byte, error) {
	r := record{Data: n.Data, ParentID: n.ParentID}
	if n.ChildIDs != nil {
		ids := n.ChildIDs
		r.ChildIDs = &ids
	}
	return json.Marshal(r)
}

// UnmarshalJSON decodes a persisted record. An empty parentId is read as
// absent, and a null childIds as a leaf.
func (n *Node) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	n.Data = r.Data
	n.ParentID = nil
	if r.ParentID != nil && *r.ParentID != "" {
		n.setParent(*r.ParentID)
	}
	n.ChildIDs = nil
	if r.ChildIDs != nil {
		n.ChildIDs = append([]string{}, (*r.ChildIDs)...)
	}
	return nil
}

// Serialize encodes s as a JSON array of node records in snapshot order.
func Serialize(s *Snapshot) (string, error) {
	b, err := json.Marshal(s.Nodes())
	if err != nil {
		return "", fmt.Errorf("tree: serialize: %w", err)
	}
	return string(b), nil
}

// Decode parses persisted text strictly. Any failure wraps ErrCorrupt; an
// empty or blank text is reported as corrupt too.
func Decode(text string) (*Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty", ErrCorrupt)
	}

	var nodes []*Node
	if err := json.Unmarshal([]byte(text), &nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if nodes == nil {
		return nil, fmt.Errorf("%w: top level is not a list", ErrCorrupt)
	}
	return FromNodes(nodes)
}

// Deserialize decodes text, falling back to a fresh single-root snapshot on
// any failure. Partially valid input is never partially adopted.
func Deserialize(text string, ids IDGenerator) *Snapshot {
	s, err := Decode(text)
	if err != nil {
		return NewSnapshot(ids)
	}
	return s
}
