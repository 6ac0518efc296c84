// foamdict reads, queries and rewrites dictionary files from the command
// line.
//
// Usage:
//
//	foamdict get [flags] FILE KEYWORD
//	foamdict expand [flags] FILE TEXT...
//	foamdict merge [flags] FILE...
//	foamdict format [flags] FILE
//	foamdict export [flags] FILE...
//	foamdict flatten [flags] FILE...
//	foamdict digest [flags] FILE [KEYWORD]
//	foamdict diff [flags] OLD NEW
//	foamdict shell [flags] FILE...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/psaab/foamdict/pkg/cli"
	"github.com/psaab/foamdict/pkg/dictionary"
	"github.com/psaab/foamdict/pkg/dictstore"
	"github.com/psaab/foamdict/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

var errUsage = errors.New("usage")

type command struct {
	name  string
	args  string
	desc  string
	run   func(c *cmdContext, args []string) error
	nargs int // minimum positional arguments
}

var commands = []command{
	{"get", "FILE KEYWORD", "Print the value of a keyword", runGet, 2},
	{"expand", "FILE TEXT...", "Expand $variables in TEXT against FILE", runExpand, 2},
	{"merge", "FILE...", "Merge files in order and print the result", runMerge, 1},
	{"format", "FILE", "Print FILE in canonical form", runFormat, 1},
	{"export", "FILE...", "Print merged files as json, yaml, flat or tree", runExport, 1},
	{"flatten", "FILE...", "Print one 'path value' line per primitive entry", runFlatten, 1},
	{"digest", "FILE [KEYWORD]", "Print the content digest of FILE or one entry", runDigest, 1},
	{"diff", "OLD NEW", "Show entries that differ between two files", runDiff, 2},
	{"shell", "FILE...", "Open the interactive shell on the merged files", runShell, 0},
}

// cmdContext carries parsed flags and output streams to a subcommand.
type cmdContext struct {
	stdout, stderr io.Writer

	parse    dictionary.ParseOptions
	policy   dictionary.MergePolicy
	match    dictionary.MatchOption
	format   string
	allowEnv bool
	empty    bool
	output   string
}

func run(args []string, stdout, stderr io.Writer) int {
	errOut := color.New(color.FgRed)
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		errOut.Fprintf(stderr, "foamdict: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	fs := flag.NewFlagSet("foamdict "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputMode := fs.String("input-mode", "merge", "duplicate keyword handling (merge, overwrite, protect, warn, error)")
	expandVars := fs.Bool("expand", true, "expand $variables while reading")
	allowEnv := fs.Bool("env", false, "let expansion fall back to environment variables")
	policy := fs.String("policy", "warn", "merge policy between files (warn, keep, overwrite, append)")
	recursive := fs.Bool("recursive", false, "search parent scopes")
	patterns := fs.Bool("patterns", true, "match regex keywords")
	format := fs.String("format", "json", "export format (json, yaml, flat, dict, tree)")
	empty := fs.Bool("allow-empty", false, "remove unresolved references instead of keeping them")
	output := fs.String("o", "", "write output to this file instead of stdout")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: foamdict %s [flags] %s\n", cmd.name, cmd.args)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	}
	logging.Setup(stderr, logging.Options{Level: logLevel})

	c := &cmdContext{
		stdout:   stdout,
		stderr:   stderr,
		allowEnv: *allowEnv,
		empty:    *empty,
		format:   *format,
		output:   *output,
	}
	var err error
	if c.parse.InputMode, err = dictionary.ParseInputMode(*inputMode); err != nil {
		errOut.Fprintf(stderr, "foamdict: %v\n", err)
		return 2
	}
	if c.policy, err = dictionary.ParseMergePolicy(*policy); err != nil {
		errOut.Fprintf(stderr, "foamdict: %v\n", err)
		return 2
	}
	c.parse.ExpandVariables = *expandVars
	c.parse.AllowEnv = *allowEnv
	if *recursive {
		c.match |= dictionary.MatchRecursive
	}
	if *patterns {
		c.match |= dictionary.MatchPattern
	}

	if fs.NArg() < cmd.nargs {
		fs.Usage()
		return 2
	}

	var file *os.File
	if c.output != "" {
		file, err = os.Create(c.output)
		if err != nil {
			errOut.Fprintf(stderr, "foamdict: %v\n", err)
			return 1
		}
		c.stdout = file
	}
	err = cmd.run(c, fs.Args())
	if file != nil {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}
		errOut.Fprintf(stderr, "foamdict %s: %v\n", cmd.name, err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: foamdict COMMAND [flags] ARGS")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %-16s %s\n", c.name, c.args, c.desc)
	}
}

// read parses files and merges them in order with the selected policy.
// A single file is returned as parsed.
func (c *cmdContext) read(files []string) (*dictionary.Dictionary, error) {
	if len(files) == 1 {
		return dictionary.ReadFile(files[0], c.parse)
	}
	merged := dictionary.New(files[0])
	for _, path := range files {
		d, err := dictionary.ReadFile(path, c.parse)
		if err != nil {
			return nil, err
		}
		merged.MergeWith(d, c.policy)
	}
	return merged, nil
}

func runGet(c *cmdContext, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	d, err := c.read(args[:1])
	if err != nil {
		return err
	}
	e, err := d.LookupEntry(args[1], c.match)
	if err != nil {
		return d.WithSuggestions(args[1], err)
	}
	if sub, err := e.Dict(); err == nil {
		fmt.Fprint(c.stdout, sub.String())
		return nil
	}
	fmt.Fprintln(c.stdout, e.Value())
	return nil
}

func runExpand(c *cmdContext, args []string) error {
	d, err := c.read(args[:1])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	fmt.Fprintln(c.stdout, d.Expand(text, dictionary.ExpandOptions{
		AllowEnv:   c.allowEnv,
		AllowEmpty: c.empty,
	}))
	return nil
}

func runMerge(c *cmdContext, args []string) error {
	d, err := c.read(args)
	if err != nil {
		return err
	}
	return d.Write(c.stdout)
}

func runFormat(c *cmdContext, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	d, err := c.read(args)
	if err != nil {
		return err
	}
	return d.Write(c.stdout)
}

func runExport(c *cmdContext, args []string) error {
	d, err := c.read(args)
	if err != nil {
		return err
	}
	switch c.format {
	case "json":
		b, err := d.ToJSON()
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(b)
		return err
	case "yaml":
		b, err := d.ToYAML()
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(b)
		return err
	case "flat":
		return runFlatten(c, args)
	case "dict":
		return d.Write(c.stdout)
	case "tree":
		_, err := io.WriteString(c.stdout, d.ToTree())
		return err
	}
	return fmt.Errorf("unsupported format %q", c.format)
}

func runFlatten(c *cmdContext, args []string) error {
	d, err := c.read(args)
	if err != nil {
		return err
	}
	for _, fe := range d.Flatten() {
		fmt.Fprintln(c.stdout, fe.String())
	}
	return nil
}

func runDigest(c *cmdContext, args []string) error {
	if len(args) > 2 {
		return errUsage
	}
	d, err := c.read(args[:1])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintln(c.stdout, d.Digest())
		return nil
	}
	e, err := d.LookupEntry(args[1], c.match)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, dictionary.EntryDigest(e))
	return nil
}

func runDiff(c *cmdContext, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	from, err := c.read(args[:1])
	if err != nil {
		return err
	}
	to, err := c.read(args[1:])
	if err != nil {
		return err
	}
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	for _, line := range strings.SplitAfter(dictstore.Compare(from, to), "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			add.Fprint(c.stdout, line)
		case strings.HasPrefix(line, "- "):
			del.Fprint(c.stdout, line)
		default:
			fmt.Fprint(c.stdout, line)
		}
	}
	return nil
}

func runShell(c *cmdContext, args []string) error {
	store := dictstore.New(dictstore.Options{
		Files:  args,
		Policy: c.policy,
		Parse:  c.parse,
	})
	if err := store.Load(); err != nil {
		return err
	}
	shell := cli.New(store, cli.Options{
		HistoryFile: "/tmp/foamdict_history",
		AllowEnv:    c.allowEnv,
	})
	return shell.Run()
}
