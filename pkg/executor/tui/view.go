package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const previewWidth = 60

// View renders the tree view.
func (m *model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("quill"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(tipsStyle.Render("No snippets yet. Press n to create a folder."))
		b.WriteString("\n")
	}

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if n := m.selected(); n != nil && !n.IsFolder() {
		b.WriteString("\n")
		b.WriteString(previewStyle.Render(preview(n.Data.Content)))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeRename, modeNewFolder:
		b.WriteString("\n")
		b.WriteString(inputBoxStyle.Render(m.input.View()))
		b.WriteString("\n")
	case modeConfirmDelete:
		b.WriteString("\n")
		b.WriteString(m.renderConfirm())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// visibleRange returns the row window that keeps the cursor on screen.
func (m *model) visibleRange() (int, int) {
	// header, preview, input box and status bar
	const chrome = 10
	height := m.height - chrome
	if m.height == 0 || height >= len(m.rows) || height <= 0 {
		return 0, len(m.rows)
	}
	start := m.cursor - height/2
	start = max(start, 0)
	start = min(start, len(m.rows)-height)
	return start, start + height
}

func (m *model) renderRow(i int) string {
	r := m.rows[i]
	n := r.node
	indent := strings.Repeat("  ", r.depth)

	var icon string
	style := leafStyle
	switch {
	case n.IsFolder() && m.expanded[n.ID()]:
		icon = "▾ "
		style = folderStyle
	case n.IsFolder():
		icon = "▸ "
		style = folderStyle
	default:
		icon = "• "
	}

	label := n.Data.Label
	if label == "" {
		label = "(unnamed)"
	}
	line := style.Render(icon + label)
	if n.ID() == m.marked {
		line += markedStyle.Render("  [marked]")
	}

	if i == m.cursor {
		return cursorStyle.Render("> ") + indent + line
	}
	return "  " + indent + line
}

func (m *model) renderConfirm() string {
	n := m.selected()
	if n == nil {
		return ""
	}
	q := fmt.Sprintf("Delete %q?", n.Data.Label)
	opts := "y: delete  n: cancel"
	if n.IsFolder() && len(n.ChildIDs) > 0 {
		opts = "y: delete folder only  a: delete with contents  n: cancel"
	}
	return inputBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, q, tipsStyle.Render(opts)))
}

func (m *model) renderStatus() string {
	tips := "enter copy • r rename • n folder • d delete • m mark • p drop • q quit"
	if m.status == "" {
		return statusBarStyle.Render(tips)
	}
	style := successStyle
	if m.statusErr {
		style = errorStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left, style.Render(m.status), statusBarStyle.Render(tips))
}

// preview returns the first line of s, shortened to fit the preview area.
func preview(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(line); len(r) > previewWidth {
		return string(r[:previewWidth-1]) + "…"
	}
	return line
}
