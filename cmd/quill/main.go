// Package main provides the quill command: a terminal front end for a
// hierarchical tree of saved prompt/response snippets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/entrhq/quill/pkg/config"
	"github.com/entrhq/quill/pkg/logging"
	"github.com/entrhq/quill/pkg/store"
	"github.com/entrhq/quill/pkg/tree"
)

const version = "0.1.0"

// errUsage marks argument errors; the usage text has already been printed.
var errUsage = errors.New("usage error")

// globalFlags are accepted before the subcommand name.
type globalFlags struct {
	ConfigPath  string
	Backend     string
	Path        string
	RedisURL    string
	RedisPrefix string
	Key         string
	ShowVersion bool
}

// app carries what every subcommand needs.
type app struct {
	globals globalFlags

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	log   *logging.Logger
	store store.Store
	repo  *tree.Repository
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
	// noRepo commands do not open the snippet store.
	noRepo bool
}

var commands []command

func init() {
	commands = []command{
		{name: "tree", usage: "tree", summary: "Print the snippet tree", run: runTree},
		{name: "show", usage: "show [-color=false] [-tokens=false] <id>", summary: "Print one node", run: runShow},
		{name: "add", usage: "add [-label l] [-context c] [-content c] [-into folder]", summary: "Save a snippet (content from stdin when -content is empty)", run: runAdd},
		{name: "mkdir", usage: "mkdir [-near id] <name>", summary: "Create a folder under or beside a node", run: runMkdir},
		{name: "rename", usage: "rename <id> <label>", summary: "Change a node's label", run: runRename},
		{name: "mv", usage: "mv <source> <target>", summary: "Move a node into a folder or beside a snippet", run: runMove},
		{name: "rm", usage: "rm [-y] [-r] <id>", summary: "Delete a node (-r also deletes its contents)", run: runRemove},
		{name: "insert", usage: "insert [-mode m] [-clipboard] <id>", summary: "Print or copy the text of a snippet", run: runInsert},
		{name: "find", usage: "find <glob>", summary: "Search labels", run: runFind},
		{name: "export", usage: "export [-o file]", summary: "Write the tree as a YAML outline", run: runExport},
		{name: "check", usage: "check", summary: "Report structural problems and unreachable nodes", run: runCheck},
		{name: "prompt", usage: "prompt [-model m] [-base-url u] [-api-key k] [-into folder] <text>", summary: "Ask the model and save the answer as a snippet", run: runPrompt},
		{name: "config", usage: "config get <section.key> | config set <section.key> <value>", summary: "Read or change settings", run: runConfig, noRepo: true},
		{name: "tui", usage: "tui", summary: "Browse the tree interactively", run: runTUI},
	}
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// run parses global flags and dispatches to a subcommand.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{in: stdin, out: stdout, errOut: stderr}

	fs := flag.NewFlagSet("quill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&a.globals.ConfigPath, "config", "", "Config file (default: ~/.quill/config.json)")
	fs.StringVar(&a.globals.Backend, "backend", "", "Storage backend: file, sqlite, redis or memory")
	fs.StringVar(&a.globals.Path, "path", "", "Storage file for the file and sqlite backends")
	fs.StringVar(&a.globals.RedisURL, "redis-url", "", "Redis connection URL")
	fs.StringVar(&a.globals.RedisPrefix, "redis-prefix", "", "Prefix for redis keys")
	fs.StringVar(&a.globals.Key, "key", "", "Key the tree is stored under")
	fs.BoolVar(&a.globals.ShowVersion, "version", false, "Show version and exit")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if a.globals.ShowVersion {
		fmt.Fprintf(stdout, "quill v%s\n", version)
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	name := fs.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return errUsage
	}

	if err := appconfig.Initialize(a.globals.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logger, err := logging.NewLogger("quill")
	if err != nil {
		fmt.Fprintf(stderr, "Warning: logging to stderr: %v\n", err)
	}
	defer logger.Close()
	a.log = logger

	if !cmd.noRepo {
		if err := a.openRepository(ctx); err != nil {
			return err
		}
		defer a.store.Close()
	}

	return cmd.run(ctx, a, fs.Args()[1:])
}

// openRepository opens the configured store. Flags override the storage
// section of the config file.
func (a *app) openRepository(ctx context.Context) error {
	opts := store.Options{}
	key := tree.DefaultKey
	if s := appconfig.GetStorage(); s != nil {
		opts.Backend = s.GetBackend()
		opts.Path = s.GetPath()
		opts.RedisURL = s.GetRedisURL()
		opts.RedisPrefix = s.GetRedisPrefix()
		key = s.GetKey()
	}
	if a.globals.Backend != "" {
		opts.Backend = a.globals.Backend
	}
	if a.globals.Path != "" {
		opts.Path = a.globals.Path
	}
	if a.globals.RedisURL != "" {
		opts.RedisURL = a.globals.RedisURL
	}
	if a.globals.RedisPrefix != "" {
		opts.RedisPrefix = a.globals.RedisPrefix
	}
	if a.globals.Key != "" {
		key = a.globals.Key
	}

	st, err := store.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", opts.Backend, err)
	}
	a.store = st
	a.repo = tree.NewRepository(st, tree.WithKey(key), tree.WithLogger(a.log.With("tree")))
	a.log.Debugf("opened %q backend, key %q", opts.Backend, key)
	return nil
}

// insertMode returns the configured insert mode.
func insertMode() tree.InsertMode {
	if s := appconfig.GetInsert(); s != nil {
		return tree.ParseInsertMode(s.GetInsertType())
	}
	return tree.InsertContentWithContext
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "quill - a tree of saved prompts and responses\n\n")
	fmt.Fprintf(w, "Usage: quill [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
		fmt.Fprintf(w, "           quill %s\n", c.usage)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nEnvironment Variables:\n")
	fmt.Fprintf(w, "  QUILL_HOME         Data directory (default: ~/.quill)\n")
	fmt.Fprintf(w, "  QUILL_LOG_LEVEL    debug, info, warn or error\n")
	fmt.Fprintf(w, "  OPENAI_API_KEY     API key for the prompt command\n")
	fmt.Fprintf(w, "  OPENAI_BASE_URL    API base URL (for compatible APIs)\n")
}

// newFlagSet builds a subcommand flag set that reports errors as errUsage.
func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	for _, c := range commands {
		if c.name == name {
			usage := c.usage
			fs.Usage = func() {
				fmt.Fprintf(a.errOut, "Usage: quill %s\n", usage)
				fs.PrintDefaults()
			}
		}
	}
	return fs
}

// parseArgs parses a subcommand's flags and checks its positional count.
func parseArgs(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if want >= 0 && fs.NArg() != want {
		fs.Usage()
		return nil, errUsage
	}
	return fs.Args(), nil
}
