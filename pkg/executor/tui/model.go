package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/entrhq/quill/pkg/tree"
)

// inputMode is what keystrokes currently drive.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeRename
	modeNewFolder
	modeConfirmDelete
)

// row is one visible line of the tree.
type row struct {
	node  *tree.Node
	depth int
}

// model represents the state of the tree view.
type model struct {
	ctx  context.Context
	repo *tree.Repository

	insertMode tree.InsertMode
	copy       func(string) error

	input textinput.Model
	mode  inputMode

	rows     []row
	expanded map[string]bool
	cursor   int
	marked   string // id picked up with 'm', dropped with 'p'

	status    string
	statusErr bool

	width  int
	height int
}

// treeLoadedMsg carries a freshly loaded snapshot.
type treeLoadedMsg struct {
	snap *tree.Snapshot
	err  error
}

// refreshMsg is sent when the repository reports a change.
type refreshMsg struct{}

// opResultMsg reports a finished mutation.
type opResultMsg struct {
	action string
	res    tree.Result
	err    error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	label string
	err   error
}

func newModel(ctx context.Context, repo *tree.Repository, insertMode tree.InsertMode, copyFn func(string) error) *model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &model{
		ctx:        ctx,
		repo:       repo,
		insertMode: insertMode,
		copy:       copyFn,
		input:      ti,
		expanded:   make(map[string]bool),
	}
}

// selected returns the node under the cursor, or nil for an empty tree.
func (m *model) selected() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

// setRows rebuilds the visible rows from s, keeping the cursor on the same
// node when it is still visible.
func (m *model) setRows(s *tree.Snapshot) {
	var keep string
	if n := m.selected(); n != nil {
		keep = n.ID()
	}

	m.rows = m.rows[:0]
	s.Walk(func(n *tree.Node, depth int) bool {
		if n.ID() == s.RootID() {
			return true
		}
		m.rows = append(m.rows, row{node: n, depth: depth - 1})
		return n.IsFolder() && m.expanded[n.ID()]
	})

	if _, ok := s.Get(m.marked); !ok {
		m.marked = ""
	}

	for i, r := range m.rows {
		if r.node.ID() == keep {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
