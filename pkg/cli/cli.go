// Package cli implements the interactive shell over a dictionary store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-shellwords"

	"github.com/psaab/foamdict/pkg/cmdtree"
	"github.com/psaab/foamdict/pkg/dictionary"
	"github.com/psaab/foamdict/pkg/dictstore"
	"github.com/psaab/foamdict/pkg/logging"
)

// Options configures the shell.
type Options struct {
	HistoryFile string
	AllowEnv    bool                  // let expand fall back to the environment
	Logs        *logging.RecordBuffer // optional, for "show log"
}

// CLI is the interactive command-line interface.
type CLI struct {
	rl       *readline.Instance
	store    *dictstore.Store
	opts     Options
	out      io.Writer
	hostname string
	username string
}

var (
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	addColor  = color.New(color.FgGreen)
)

// New creates a new CLI writing to stdout.
func New(store *dictstore.Store, opts Options) *CLI {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "foamdict"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = "user"
	}
	return &CLI{
		store:    store,
		opts:     opts,
		out:      os.Stdout,
		hostname: hostname,
		username: username,
	}
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// Run starts the interactive CLI loop.
func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		HistoryFile:     c.opts.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &completer{cli: c},
		Listener:        readline.FuncListener(c.helpListener),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer c.rl.Close()
	c.out = c.rl.Stdout()

	fmt.Fprintf(c.out, "foamdict shell - %s\n", c.store.Active().Name())
	fmt.Fprintln(c.out, "Type '?' for help")
	fmt.Fprintln(c.out)

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}
		if err := c.Execute(line); err != nil {
			if err == errExit {
				break
			}
			errColor.Fprintf(c.rl.Stderr(), "error: %v\n", err)
		}
	}
	if c.store.InConfigMode() {
		c.store.ExitConfigure()
	}
	return nil
}

var errExit = errors.New("exit")

// Execute runs a single command line.
func (c *CLI) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasSuffix(line, "?") {
		c.showContextHelp(strings.TrimSuffix(line, "?"))
		return nil
	}
	defer c.refreshPrompt()
	if c.store.InConfigMode() {
		return c.dispatchConfig(line)
	}
	return c.dispatchOperational(line)
}

func (c *CLI) dispatchOperational(line string) error {
	parts := strings.Fields(line)

	switch parts[0] {
	case "configure":
		if err := c.store.EnterConfigure(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Entering configuration mode")
		return nil

	case "show":
		return c.handleShow(parts[1:])

	case "get":
		if len(parts) != 2 {
			return fmt.Errorf("get: usage: get <keyword>")
		}
		return c.handleGet(c.store.Active(), parts[1])

	case "expand":
		text := strings.TrimSpace(strings.TrimPrefix(line, "expand"))
		fmt.Fprintln(c.out, c.store.Active().Expand(text, dictionary.ExpandOptions{AllowEnv: c.opts.AllowEnv}))
		return nil

	case "export":
		format := ""
		if len(parts) > 1 {
			format = parts[1]
		}
		return c.export(c.store.Active(), format)

	case "quit", "exit":
		return errExit

	case "?", "help":
		c.showOperationalHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (c *CLI) dispatchConfig(line string) error {
	parts := strings.Fields(line)

	switch parts[0] {
	case "set":
		if len(parts) < 2 {
			return fmt.Errorf("set: missing path")
		}
		return c.store.Set(parts[1], strings.Join(parts[2:], " "))

	case "delete":
		if len(parts) != 2 {
			return fmt.Errorf("delete: usage: delete <path>")
		}
		return c.store.Delete(parts[1])

	case "show":
		return c.handleConfigShow(parts[1:])

	case "commit", "load":
		args, err := shellwords.Parse(strings.TrimSpace(strings.TrimPrefix(line, parts[0])))
		if err != nil {
			return fmt.Errorf("%s: %w", parts[0], err)
		}
		if parts[0] == "commit" {
			return c.handleCommit(args)
		}
		return c.handleLoad(args)

	case "rollback":
		n := 0
		if len(parts) >= 2 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 0 {
				return fmt.Errorf("rollback: invalid index %q", parts[1])
			}
			n = v
		}
		if err := c.store.Rollback(n); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "load complete")
		return nil

	case "run":
		if len(parts) < 2 {
			return fmt.Errorf("run: missing command")
		}
		return c.dispatchOperational(strings.Join(parts[1:], " "))

	case "exit", "quit":
		if c.store.IsDirty() {
			warnColor.Fprintln(c.out, "warning: uncommitted changes will be discarded")
		}
		c.store.ExitConfigure()
		fmt.Fprintln(c.out, "Exiting configuration mode")
		return nil

	case "?", "help":
		c.showConfigHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s (in configuration mode)", parts[0])
	}
}

func (c *CLI) handleShow(args []string) error {
	if len(args) == 0 {
		cmdtree.WriteHelp(c.out, cmdtree.HelpCandidates(cmdtree.OperationalTree["show"].Children))
		return nil
	}
	d := c.store.Active()
	switch args[0] {
	case "configuration":
		if len(args) > 1 {
			return c.handleGet(d, args[1])
		}
		fmt.Fprint(c.out, d.String())
		return nil

	case "digest":
		if len(args) > 1 {
			e, err := d.LookupEntry(args[1], dictionary.MatchDefault)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, dictionary.EntryDigest(e))
			return nil
		}
		fmt.Fprintln(c.out, d.Digest())
		return nil

	case "history":
		hist := c.store.History()
		if len(hist) == 0 {
			fmt.Fprintln(c.out, "No commit history")
			return nil
		}
		for i, h := range hist {
			fmt.Fprintf(c.out, "%-3d %s  %.12s  %s\n", i+1,
				h.Timestamp.Format(time.DateTime), h.Digest, h.Comment)
		}
		return nil

	case "log":
		if c.opts.Logs == nil {
			return fmt.Errorf("log buffer not available")
		}
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 1 {
				return fmt.Errorf("show log: invalid count %q", args[1])
			}
			n = v
		}
		recs := c.opts.Logs.Latest(n, logging.RecordFilter{})
		for i := len(recs) - 1; i >= 0; i-- {
			r := recs[i]
			warnColor.Fprintf(c.out, "%s %-5s", r.Time.Format(time.TimeOnly), r.Level)
			fmt.Fprintf(c.out, " %s %s\n", r.Message, r.Attrs)
		}
		return nil

	default:
		return fmt.Errorf("unknown show target: %s", args[0])
	}
}

func (c *CLI) handleGet(d *dictionary.Dictionary, keyword string) error {
	e, err := d.LookupEntry(keyword, dictionary.MatchDefault)
	if err != nil {
		return d.WithSuggestions(keyword, err)
	}
	if sub, err := e.Dict(); err == nil {
		fmt.Fprint(c.out, sub.String())
		return nil
	}
	fmt.Fprintln(c.out, e.Value())
	return nil
}

func (c *CLI) export(d *dictionary.Dictionary, format string) error {
	switch format {
	case "", "dict":
		fmt.Fprint(c.out, d.String())
	case "flat":
		for _, fe := range d.Flatten() {
			fmt.Fprintln(c.out, fe.String())
		}
	case "json":
		b, err := d.ToJSON()
		if err != nil {
			return err
		}
		c.out.Write(b)
	case "yaml":
		b, err := d.ToYAML()
		if err != nil {
			return err
		}
		c.out.Write(b)
	case "tree":
		fmt.Fprint(c.out, d.ToTree())
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
	return nil
}

func (c *CLI) handleConfigShow(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, c.store.ShowCandidate())
		return nil
	}
	switch args[0] {
	case "compare":
		c.writeCompare(c.store.ShowCompare())
	case "flat":
		fmt.Fprint(c.out, c.store.ShowCandidateFlat())
	default:
		return c.handleShow(args)
	}
	return nil
}

// writeCompare colours added and removed lines.
func (c *CLI) writeCompare(diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			addColor.Fprint(c.out, line)
		case strings.HasPrefix(line, "- "):
			errColor.Fprint(c.out, line)
		default:
			fmt.Fprint(c.out, line)
		}
	}
}

func (c *CLI) handleCommit(args []string) error {
	comment := ""
	if len(args) > 0 {
		if args[0] != "comment" || len(args) < 2 {
			return fmt.Errorf("commit: usage: commit [comment <text>]")
		}
		comment = strings.Join(args[1:], " ")
	}
	d, err := c.store.Commit(comment)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "commit complete (%.12s)\n", d.Digest())
	return nil
}

func (c *CLI) handleLoad(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("load: usage: load merge|override <file>")
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	switch args[0] {
	case "merge":
		err = c.store.LoadMerge(args[1], string(data))
	case "override":
		err = c.store.LoadOverride(args[1], string(data))
	default:
		return fmt.Errorf("load: unknown mode %q", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "load complete")
	return nil
}

func (c *CLI) prompt() string {
	if c.store.InConfigMode() {
		return fmt.Sprintf("[edit]\n%s@%s# ", c.username, c.hostname)
	}
	return fmt.Sprintf("%s@%s> ", c.username, c.hostname)
}

func (c *CLI) refreshPrompt() {
	if c.rl != nil {
		c.rl.SetPrompt(c.prompt())
	}
}

func (c *CLI) showOperationalHelp() {
	fmt.Fprintln(c.out, "Operational mode commands:")
	fmt.Fprintln(c.out, "  configure                    Enter configuration mode")
	fmt.Fprintln(c.out, "  show configuration [key]     Show active dictionary or one entry")
	fmt.Fprintln(c.out, "  show digest [key]            Show BLAKE3 digest")
	fmt.Fprintln(c.out, "  show history                 Show commit history")
	fmt.Fprintln(c.out, "  show log [N]                 Show recent warnings")
	fmt.Fprintln(c.out, "  get <key>                    Look up a keyword (a.b or a/b)")
	fmt.Fprintln(c.out, "  expand <text>                Expand $variables")
	fmt.Fprintln(c.out, "  export <format>              Export as dict, flat, json, yaml or tree")
	fmt.Fprintln(c.out, "  quit                         Exit shell")
}

func (c *CLI) showConfigHelp() {
	fmt.Fprintln(c.out, "Configuration mode commands:")
	fmt.Fprintln(c.out, "  set <path> [value]           Set a value (no value: empty dictionary)")
	fmt.Fprintln(c.out, "  delete <path>                Delete an entry")
	fmt.Fprintln(c.out, "  show [compare|flat]          Show candidate or pending changes")
	fmt.Fprintln(c.out, "  load merge|override <file>   Load dictionary file into candidate")
	fmt.Fprintln(c.out, "  commit [comment <text>]      Commit candidate")
	fmt.Fprintln(c.out, "  rollback [n]                 Revert candidate to a previous commit")
	fmt.Fprintln(c.out, "  run <cmd>                    Run operational command")
	fmt.Fprintln(c.out, "  exit                         Exit configuration mode")
}
