package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/entrhq/quill/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `[
	{"data":{"id":"r","label":"root","context":"","content":""},"childIds":["f","z"]},
	{"data":{"id":"f","label":"Folder","context":"","content":""},"parentId":"r","childIds":["x"]},
	{"data":{"id":"x","label":"X","context":"why","content":"because"},"parentId":"f"},
	{"data":{"id":"z","label":"Z","context":"","content":"zz"},"parentId":"r"},
	{"data":{"id":"o","label":"Lost","context":"","content":""},"parentId":"gone","childIds":["p"]},
	{"data":{"id":"p","label":"Under lost","context":"","content":"p"},"parentId":"o"}
]`

func decode(t *testing.T, text string) *tree.Snapshot {
	t.Helper()
	s, err := tree.Decode(text)
	require.NoError(t, err)
	return s
}

func TestBuild(t *testing.T) {
	doc := Build(decode(t, sample))

	assert.Equal(t, "r", doc.Root.ID)
	assert.True(t, doc.Root.Folder)
	require.Len(t, doc.Root.Children, 2)
	assert.Equal(t, "Folder", doc.Root.Children[0].Label)
	require.Len(t, doc.Root.Children[0].Children, 1)
	assert.Equal(t, "because", doc.Root.Children[0].Children[0].Content)
	assert.False(t, doc.Root.Children[1].Folder)
	assert.Equal(t, 4, doc.Root.Count())

	require.Len(t, doc.Orphans, 1, "orphan subtree is emitted once, from its head")
	assert.Equal(t, "o", doc.Orphans[0].ID)
	require.Len(t, doc.Orphans[0].Children, 1)
	assert.Equal(t, "p", doc.Orphans[0].Children[0].ID)
}

func TestBuildParentCycle(t *testing.T) {
	s := decode(t, `[
		{"data":{"id":"r","label":"root"},"childIds":[]},
		{"data":{"id":"a","label":"a"},"parentId":"b","childIds":["b"]},
		{"data":{"id":"b","label":"b"},"parentId":"a","childIds":["a"]}
	]`)

	doc := Build(s)
	total := 0
	for _, o := range doc.Orphans {
		total += o.Count()
	}
	assert.Equal(t, 2, total, "each node appears exactly once")
}

func TestWriteDecodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, decode(t, sample)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "root:\n"), out)
	assert.Contains(t, out, "label: Folder")
	assert.Contains(t, out, "context: why")

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Build(decode(t, sample)), doc)
}
