// Package cmdtree defines the command trees of the interactive shell.
//
// The trees drive tab completion, '?' help and command descriptions, so a
// command added here shows up everywhere the shell offers help.
package cmdtree

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/psaab/foamdict/pkg/dictionary"
)

// Node defines a completion tree node with description, children, and
// optional dynamic values.
type Node struct {
	Desc     string
	Children map[string]*Node
	// DynamicFn lists values completing partial, typically keyword paths
	// of d. d may be nil.
	DynamicFn func(d *dictionary.Dictionary, partial string) []string
}

// Candidate holds a command name and its description for display.
type Candidate struct {
	Name string
	Desc string
}

var exportFormats = map[string]*Node{
	"dict": {Desc: "Dictionary syntax"},
	"flat": {Desc: "One path and value per line"},
	"json": {Desc: "JSON object"},
	"tree": {Desc: "Indented tree"},
	"yaml": {Desc: "YAML mapping"},
}

// OperationalTree defines tab completion for operational mode.
var OperationalTree = map[string]*Node{
	"configure": {Desc: "Enter configuration mode"},
	"show": {Desc: "Show information", Children: map[string]*Node{
		"configuration": {Desc: "Show active dictionary", DynamicFn: CompletePath},
		"history":       {Desc: "Show commit history"},
		"digest":        {Desc: "Show BLAKE3 digest of the active dictionary", DynamicFn: CompletePath},
		"log":           {Desc: "Show recent warnings [N]"},
	}},
	"get":    {Desc: "Look up a keyword (dot or slash scoped)", DynamicFn: CompletePath},
	"expand": {Desc: "Expand $variables in text against the active dictionary"},
	"export": {Desc: "Export the active dictionary", Children: exportFormats},
	"quit":   {Desc: "Exit the shell"},
	"exit":   {Desc: "Exit the shell"},
	"help":   {Desc: "Show help"},
}

// ConfigTopLevel defines tab completion for config mode top-level commands.
var ConfigTopLevel = map[string]*Node{
	"set":    {Desc: "Set a value by slash path", DynamicFn: CompletePath},
	"delete": {Desc: "Delete an entry by slash path", DynamicFn: CompletePath},
	"show": {Desc: "Show candidate dictionary", Children: map[string]*Node{
		"compare": {Desc: "Show pending changes against active"},
		"flat":    {Desc: "Show as path/value lines"},
	}},
	"commit": {Desc: "Commit candidate", Children: map[string]*Node{
		"comment": {Desc: "Add comment to commit"},
	}},
	"load": {Desc: "Load dictionary text from a file", Children: map[string]*Node{
		"override": {Desc: "Replace candidate with file contents"},
		"merge":    {Desc: "Merge file contents into candidate"},
	}},
	"rollback": {Desc: "Revert candidate to a previous commit [n]"},
	"run":      {Desc: "Run operational command"},
	"exit":     {Desc: "Exit configuration mode"},
	"quit":     {Desc: "Exit configuration mode"},
}

// CompletePath completes a slash-scoped keyword path in d. Dictionary
// entries complete with a trailing '/'.
func CompletePath(d *dictionary.Dictionary, partial string) []string {
	if d == nil {
		return nil
	}
	dir, base := "", partial
	if i := strings.LastIndexByte(partial, '/'); i >= 0 {
		dir, base = partial[:i+1], partial[i+1:]
	}
	cur := d
	for _, p := range strings.Split(dir, "/") {
		if p == "" {
			continue
		}
		cur = cur.FindDict(p, dictionary.MatchLiteral)
		if cur == nil {
			return nil
		}
	}
	var out []string
	for _, e := range cur.Entries() {
		name := e.Keyword().Name
		if e.Keyword().Pattern || !strings.HasPrefix(name, base) {
			continue
		}
		if e.IsDict() {
			name += "/"
		}
		out = append(out, dir+name)
	}
	return out
}

// HelpCandidates returns Candidates from a tree's children for help display.
func HelpCandidates(tree map[string]*Node) []Candidate {
	candidates := make([]Candidate, 0, len(tree))
	for name, node := range tree {
		candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
	}
	return candidates
}

// CompleteFromTree walks the tree to find completion candidates for the
// given words and partial.
func CompleteFromTree(tree map[string]*Node, words []string, partial string, d *dictionary.Dictionary) []string {
	cands := CompleteFromTreeWithDesc(tree, words, partial, d)
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// CompleteFromTreeWithDesc walks the tree returning name+description pairs.
func CompleteFromTreeWithDesc(tree map[string]*Node, words []string, partial string, d *dictionary.Dictionary) []Candidate {
	current := tree
	var currentNode *Node
	dynamicConsumed := false
	for _, w := range words {
		dynamicConsumed = false
		node, ok := current[w]
		if !ok {
			// A dynamic value: stay at the same children level.
			if currentNode != nil && currentNode.DynamicFn != nil {
				dynamicConsumed = true
				continue
			}
			return nil
		}
		currentNode = node
		if node.Children == nil {
			if node.DynamicFn == nil {
				return nil
			}
			current = nil
			continue
		}
		current = node.Children
	}

	var candidates []Candidate
	for name, node := range current {
		if strings.HasPrefix(name, partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
		}
	}
	if !dynamicConsumed && currentNode != nil && currentNode.DynamicFn != nil {
		for _, name := range currentNode.DynamicFn(d, partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: "(keyword)"})
		}
	}
	return candidates
}

// WriteHelp prints aligned completion candidates to w.
// The entire output is built as a single string and written in one call
// so that readline's wrapWriter triggers only one Refresh cycle.
func WriteHelp(w io.Writer, candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	maxWidth := 20
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	var sb strings.Builder
	sb.WriteString("Possible completions:\n")
	for _, c := range candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Name, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Name)
		}
	}
	io.WriteString(w, sb.String())
}
