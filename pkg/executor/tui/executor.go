// Package tui provides an interactive terminal tree view over a snippet
// repository.
//
// The code is split into:
// - executor.go: program lifecycle and repository subscription
// - model.go: model state and row building
// - update.go: Bubble Tea Update and key handling
// - view.go: rendering
// - styles.go: colors and styles
package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/quill/pkg/tree"
)

// Options configures an Executor.
type Options struct {
	// InsertMode picks the text copied when a snippet is selected.
	InsertMode tree.InsertMode
	// Clipboard replaces the system clipboard writer.
	Clipboard func(string) error
}

// Executor runs the tree view against a repository.
type Executor struct {
	repo *tree.Repository
	opts Options
}

// NewExecutor creates a new TUI executor for repo.
func NewExecutor(repo *tree.Repository, opts Options) *Executor {
	if opts.InsertMode == "" {
		opts.InsertMode = tree.InsertContentWithContext
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	return &Executor{repo: repo, opts: opts}
}

// Run starts the TUI and blocks until the user exits or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	m := newModel(ctx, e.repo, e.opts.InsertMode, e.opts.Clipboard)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Mutations made elsewhere in the process redraw the view.
	unsubscribe := e.repo.Subscribe(func() {
		go p.Send(refreshMsg{})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
