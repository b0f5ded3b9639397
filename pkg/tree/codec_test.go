package tree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeserializeRecovers(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", "   \n"},
		{"not json", "Hello World"},
		{"empty list", "[]"},
		{"object", "{}"},
		{"null", "null"},
		{"null record", "[null]"},
		{"record without id", `[{"data":{"label":"x"},"childIds":[]}]`},
		{"duplicate ids", `[{"data":{"id":"r"},"childIds":[]},{"data":{"id":"r"},"parentId":"r"}]`},
		{"no parentless record", `[{"data":{"id":"a"},"parentId":"b"}]`},
		{"parentless leaf only", `[{"data":{"id":"a","label":"x"}}]`},
		{"truncated", `[{"data":{"id":"r"},"childIds":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)

			s := Deserialize(tt.text, NewSequenceGenerator("fresh"))
			require.Equal(t, 1, s.Len())
			root := s.Root()
			require.NotNil(t, root)
			assert.Equal(t, "fresh1", root.ID())
			assert.Equal(t, RootLabel, root.Data.Label)
			assert.True(t, root.IsRoot())
			assert.True(t, root.IsFolder())
			assert.Empty(t, root.ChildIDs)
			assert.NoError(t, s.Validate())
		})
	}
}

func TestDecodeValidTree(t *testing.T) {
	text := `[
		{"data":{"id":"r","label":"root","context":"","content":""},"childIds":["f","a"]},
		{"data":{"id":"f","label":"folder","context":"","content":""},"parentId":"r","childIds":[]},
		{"data":{"id":"a","label":"answer","context":"q","content":"A"},"parentId":"r"}
	]`

	s, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, "r", s.RootID())
	assert.Equal(t, []string{"r", "f", "a"}, s.IDs())

	f, ok := s.Get("f")
	require.True(t, ok)
	assert.True(t, f.IsFolder(), "empty childIds must stay a folder")
	assert.Equal(t, "r", f.Parent())

	a, ok := s.Get("a")
	require.True(t, ok)
	assert.False(t, a.IsFolder())
	assert.Equal(t, "q", a.Data.Context)
	assert.Equal(t, "A", a.Data.Content)
	assert.NoError(t, s.Validate())
}

func TestDecodeFirstRootWins(t *testing.T) {
	text := `[
		{"data":{"id":"r1","label":"root"},"childIds":[]},
		{"data":{"id":"r2","label":"root"},"childIds":[]}
	]`

	s, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, "r1", s.RootID())
	assert.Equal(t, 2, s.Len())

	orphans := s.Orphans()
	require.Len(t, orphans, 1)
	assert.Equal(t, "r2", orphans[0].ID())
}

func TestDecodeEmptyParentIDIsAbsent(t *testing.T) {
	s, err := Decode(`[{"data":{"id":"r","label":"root"},"parentId":"","childIds":[]}]`)
	require.NoError(t, err)
	assert.True(t, s.Root().IsRoot())
}

func TestSerializeRecordShape(t *testing.T) {
	s := NewSnapshot(NewSequenceGenerator("r"))
	root := s.Root()
	s.insert(newFolder(NodeData{ID: "f", Label: "empty"}, root.ID()))
	s.insert(newLeaf(NodeData{ID: "l", Label: "leaf", Content: "x"}, root.ID()))
	root.ChildIDs = append(root.ChildIDs, "f", "l")

	text, err := Serialize(s)
	require.NoError(t, err)

	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(text), &raw))
	require.Len(t, raw, 3)

	_, hasParent := raw[0]["parentId"]
	assert.False(t, hasParent, "root must omit parentId")

	assert.JSONEq(t, `[]`, string(raw[1]["childIds"]), "empty folder keeps childIds")

	_, hasChildren := raw[2]["childIds"]
	assert.False(t, hasChildren, "leaf must omit childIds")
	assert.JSONEq(t, `{"id":"l","label":"leaf","context":"","content":"x"}`, string(raw[2]["data"]))
}

func TestSerializeRoundTrip(t *testing.T) {
	s := NewSnapshot(NewSequenceGenerator("r"))
	root := s.Root()
	s.insert(newFolder(NodeData{ID: "f", Label: "folder"}, root.ID()))
	s.insert(newLeaf(NodeData{ID: "a", Label: "answer", Context: "why?", Content: "because"}, "f"))
	root.ChildIDs = append(root.ChildIDs, "f")
	f, _ := s.Get("f")
	f.ChildIDs = append(f.ChildIDs, "a")

	text, err := Serialize(s)
	require.NoError(t, err)

	back, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, s.IDs(), back.IDs())
	assert.Equal(t, s.RootID(), back.RootID())
	for _, id := range s.IDs() {
		want, _ := s.Get(id)
		got, _ := back.Get(id)
		assert.Equal(t, want, got, id)
	}

	again, err := Serialize(back)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}
