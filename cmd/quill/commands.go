package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	appconfig "github.com/entrhq/quill/pkg/config"
	"github.com/entrhq/quill/pkg/executor/tui"
	"github.com/entrhq/quill/pkg/export"
	"github.com/entrhq/quill/pkg/llm/openai"
	"github.com/entrhq/quill/pkg/llm/tokenizer"
	"github.com/entrhq/quill/pkg/tree"
)

// report prints an applied mutation or turns a rejection into an error.
func report(a *app, action string, res tree.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if !res.OK() {
		return fmt.Errorf("%s %s: %s", action, res.ID, res.Outcome)
	}
	fmt.Fprintln(a.out, res.ID)
	return nil
}

func runTree(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "tree")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	s, err := a.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.Walk(func(n *tree.Node, depth int) bool {
		marker := "-"
		if n.IsFolder() {
			marker = "+"
		}
		fmt.Fprintf(a.out, "%s%s %s  [%s]\n", strings.Repeat("  ", depth), marker, n.Data.Label, n.ID())
		return true
	})
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "show")
	color := fs.Bool("color", true, "Syntax-highlight the content")
	tokens := fs.Bool("tokens", true, "Print token counts")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	n, err := a.repo.GetNode(ctx, rest[0])
	if err != nil {
		return err
	}

	kind := "snippet"
	if n.IsFolder() {
		kind = fmt.Sprintf("folder, %d item(s)", len(n.ChildIDs))
	}
	fmt.Fprintf(a.out, "%s (%s)\n", n.Data.Label, kind)
	fmt.Fprintf(a.out, "id:     %s\n", n.ID())
	if n.IsRoot() {
		fmt.Fprintf(a.out, "parent: -\n")
	} else {
		fmt.Fprintf(a.out, "parent: %s\n", n.Parent())
	}
	if n.IsFolder() {
		return nil
	}

	if *tokens {
		model := openai.DefaultModel
		if l := appconfig.GetLLM(); l != nil && l.GetModel() != "" {
			model = l.GetModel()
		}
		tok, tokErr := tokenizer.New(model)
		if tokErr != nil {
			a.log.Warnf("token counts are estimates: %v", tokErr)
		}
		suffix := ""
		if tok.Estimated() {
			suffix = " (estimated)"
		}
		fmt.Fprintf(a.out, "tokens: context %d, content %d%s\n",
			tok.CountTokens(n.Data.Context), tok.CountTokens(n.Data.Content), suffix)
	}

	fmt.Fprintf(a.out, "\n--- context ---\n%s\n", n.Data.Context)
	fmt.Fprintf(a.out, "\n--- content ---\n")
	if !*color {
		fmt.Fprintln(a.out, n.Data.Content)
		return nil
	}
	// An empty lexer name lets chroma guess from the text.
	if err := quick.Highlight(a.out, n.Data.Content, "", "terminal256", "monokai"); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	fmt.Fprintln(a.out)
	return nil
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add")
	label := fs.String("label", "", "Label (default: first line of the context or content)")
	contextText := fs.String("context", "", "The prompt the snippet answers")
	content := fs.String("content", "", "Snippet text (read from stdin when empty)")
	into := fs.String("into", "", "Folder (or sibling snippet) to place it in")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	body := *content
	if body == "" {
		b, err := io.ReadAll(a.in)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		body = strings.TrimRight(string(b), "\n")
	}

	name := *label
	if name == "" {
		name = firstLine(*contextText)
	}
	if name == "" {
		name = firstLine(body)
	}

	return saveLeaf(ctx, a, *contextText, body, name, *into)
}

// saveLeaf creates a leaf under the root and, when into is set, moves it.
func saveLeaf(ctx context.Context, a *app, contextText, content, label, into string) error {
	res, err := a.repo.CreateLeaf(ctx, contextText, content, label)
	if err != nil || !res.OK() || into == "" {
		return report(a, "add", res, err)
	}

	moved, err := a.repo.Move(ctx, res.ID, into)
	if err != nil {
		return fmt.Errorf("move new snippet %s: %w", res.ID, err)
	}
	if !moved.OK() {
		// The snippet exists under the root; say where it ended up.
		fmt.Fprintln(a.out, res.ID)
		return fmt.Errorf("saved %s under the root, move into %s %s", res.ID, into, moved.Outcome)
	}
	return report(a, "add", res, nil)
}

func runMkdir(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "mkdir")
	near := fs.String("near", "", "Create inside this folder, or beside this snippet")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	res, err := a.repo.CreateFolder(ctx, rest[0], *near)
	return report(a, "mkdir", res, err)
}

func runRename(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "rename")
	rest, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	res, err := a.repo.Rename(ctx, rest[0], rest[1])
	return report(a, "rename", res, err)
}

func runMove(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "mv")
	rest, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	res, err := a.repo.Move(ctx, rest[0], rest[1])
	return report(a, "mv", res, err)
}

func runRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "rm")
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	recursive := fs.Bool("r", false, "Also delete everything inside a folder")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	policy := tree.OrphanChildren
	if *recursive {
		policy = tree.CascadeChildren
	}

	gate := tree.AlwaysConfirm
	if !*yes {
		gate = stdinConfirmer(a)
	}

	res, err := a.repo.Delete(ctx, rest[0], gate, policy)
	if err == nil && res.Outcome == tree.Declined {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	return report(a, "rm", res, err)
}

// stdinConfirmer asks on errOut and reads a y/N answer from in.
func stdinConfirmer(a *app) tree.Confirmer {
	return tree.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(a.errOut, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func runInsert(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "insert")
	mode := fs.String("mode", "", "content, context or content-with-context (default: insert.insert_type)")
	toClipboard := fs.Bool("clipboard", false, "Copy to the clipboard instead of printing")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	m := insertMode()
	if *mode != "" {
		m = tree.ParseInsertMode(*mode)
	}

	// Text yields "" for unknown ids; insert wants a hard failure.
	if _, err := a.repo.GetNode(ctx, rest[0]); err != nil {
		return err
	}
	text, err := a.repo.Text(ctx, rest[0], m)
	if err != nil {
		return err
	}

	if *toClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		fmt.Fprintf(a.errOut, "copied %d characters\n", len(text))
		return nil
	}
	fmt.Fprintln(a.out, text)
	return nil
}

func runFind(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "find")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	matches, err := a.repo.Find(ctx, rest[0])
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Fprintf(a.out, "%s\t%s\n", m.Node.ID(), strings.Join(m.Path, " / "))
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) (err error) {
	fs := newFlagSet(a, "export")
	output := fs.String("o", "", "Output file (default: stdout)")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	s, err := a.repo.Load(ctx)
	if err != nil {
		return err
	}

	w := a.out
	if *output != "" {
		f, cerr := os.Create(*output)
		if cerr != nil {
			return fmt.Errorf("export: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return export.Write(w, s)
}

func runCheck(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "check")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	s, err := a.repo.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%d node(s), root %s\n", s.Len(), s.RootID())
	orphans := s.Orphans()
	for _, n := range orphans {
		fmt.Fprintf(a.out, "unreachable: %s %q (parent %s)\n", n.ID(), n.Data.Label, n.Parent())
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("check failed:\n%w", err)
	}
	if len(orphans) == 0 {
		fmt.Fprintln(a.out, "ok")
	}
	return nil
}

func runConfig(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "config")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()

	switch {
	case len(rest) == 2 && rest[0] == "get":
		v, err := appconfig.Global().Get(rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, v)
		return nil
	case len(rest) == 3 && rest[0] == "set":
		return appconfig.Global().Set(rest[1], rest[2])
	default:
		fs.Usage()
		return errUsage
	}
}

func runTUI(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "tui")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	return tui.NewExecutor(a.repo, tui.Options{InsertMode: insertMode()}).Run(ctx)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
