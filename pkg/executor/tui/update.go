package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/quill/pkg/tree"
)

// Init loads the tree once the program starts.
func (m *model) Init() tea.Cmd {
	return m.loadTree()
}

// Update handles all state updates for the tree view.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case treeLoadedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("load failed: %v", msg.err), true)
			return m, nil
		}
		m.setRows(msg.snap)
		return m, nil

	case refreshMsg:
		return m, m.loadTree()

	case opResultMsg:
		return m, m.handleOpResult(msg)

	case copiedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("clipboard: %v", msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("copied %q", msg.label), false)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeRename, modeNewFolder:
			return m, m.handleInputKey(msg)
		case modeConfirmDelete:
			return m, m.handleConfirmKey(msg)
		default:
			return m.handleBrowseKey(msg)
		}
	}
	return m, nil
}

func (m *model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "right", "l":
		if n := m.selected(); n != nil && n.IsFolder() && !m.expanded[n.ID()] {
			m.expanded[n.ID()] = true
			return m, m.loadTree()
		}

	case "left", "h":
		n := m.selected()
		if n == nil {
			break
		}
		if n.IsFolder() && m.expanded[n.ID()] {
			delete(m.expanded, n.ID())
			return m, m.loadTree()
		}
		// Jump to the parent row.
		for i := m.cursor - 1; i >= 0; i-- {
			if m.rows[i].node.ID() == n.Parent() {
				m.cursor = i
				break
			}
		}

	case " ":
		if n := m.selected(); n != nil && n.IsFolder() {
			m.toggle(n.ID())
			return m, m.loadTree()
		}

	case "enter":
		n := m.selected()
		if n == nil {
			break
		}
		if n.IsFolder() {
			m.toggle(n.ID())
			return m, m.loadTree()
		}
		return m, m.copyText(n)

	case "r":
		if n := m.selected(); n != nil {
			m.startInput(modeRename, "Rename: ", n.Data.Label)
		}

	case "n":
		m.startInput(modeNewFolder, "New folder: ", "")

	case "d":
		if n := m.selected(); n != nil {
			m.mode = modeConfirmDelete
		}

	case "m":
		n := m.selected()
		if n == nil {
			break
		}
		if m.marked == n.ID() {
			m.marked = ""
			m.setStatus("unmarked", false)
		} else {
			m.marked = n.ID()
			m.setStatus(fmt.Sprintf("marked %q, move the cursor and press p to drop", n.Data.Label), false)
		}

	case "p":
		if m.marked == "" {
			m.setStatus("nothing marked", true)
			break
		}
		target := m.selected()
		if target == nil {
			break
		}
		source := m.marked
		m.marked = ""
		return m, m.runOp("move", func() (tree.Result, error) {
			return m.repo.Move(m.ctx, source, target.ID())
		})

	case "esc":
		m.marked = ""
		m.status = ""
	}
	return m, nil
}

func (m *model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopInput()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.stopInput()
		if value == "" {
			m.setStatus("empty name, nothing changed", true)
			return nil
		}
		return m.submitInput(mode, value)
	}

	// The textinput's own cmds only drive cursor blinking, which is disabled.
	m.input, _ = m.input.Update(msg)
	return nil
}

func (m *model) submitInput(mode inputMode, value string) tea.Cmd {
	var relativeTo string
	if n := m.selected(); n != nil {
		relativeTo = n.ID()
	}

	switch mode {
	case modeRename:
		return m.runOp("rename", func() (tree.Result, error) {
			return m.repo.Rename(m.ctx, relativeTo, value)
		})
	case modeNewFolder:
		if relativeTo != "" {
			if n := m.selected(); n.IsFolder() {
				m.expanded[relativeTo] = true
			}
		}
		return m.runOp("new folder", func() (tree.Result, error) {
			return m.repo.CreateFolder(m.ctx, value, relativeTo)
		})
	}
	return nil
}

func (m *model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	n := m.selected()
	m.mode = modeBrowse
	if n == nil {
		return nil
	}

	var policy tree.DeletePolicy
	switch msg.String() {
	case "y":
		policy = tree.OrphanChildren
	case "a":
		policy = tree.CascadeChildren
	default:
		m.setStatus("delete cancelled", false)
		return nil
	}

	id := n.ID()
	return m.runOp("delete", func() (tree.Result, error) {
		// Consent was collected by the overlay.
		return m.repo.Delete(m.ctx, id, tree.AlwaysConfirm, policy)
	})
}

func (m *model) handleOpResult(msg opResultMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("%s failed: %v", msg.action, msg.err), true)
	case msg.res.OK():
		m.setStatus(fmt.Sprintf("%s: done", msg.action), false)
	default:
		m.setStatus(fmt.Sprintf("%s: %s", msg.action, msg.res.Outcome), true)
	}
	return m.loadTree()
}

func (m *model) startInput(mode inputMode, prompt, value string) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *model) stopInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
}

func (m *model) toggle(id string) {
	if m.expanded[id] {
		delete(m.expanded, id)
	} else {
		m.expanded[id] = true
	}
}

func (m *model) loadTree() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.repo.Load(m.ctx)
		return treeLoadedMsg{snap: snap, err: err}
	}
}

func (m *model) runOp(action string, fn func() (tree.Result, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn()
		return opResultMsg{action: action, res: res, err: err}
	}
}

func (m *model) copyText(n *tree.Node) tea.Cmd {
	id, label := n.ID(), n.Data.Label
	return func() tea.Msg {
		text, err := m.repo.Text(m.ctx, id, m.insertMode)
		if err == nil {
			err = m.copy(text)
		}
		return copiedMsg{label: label, err: err}
	}
}
