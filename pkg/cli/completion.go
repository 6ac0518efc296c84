package cli

import (
	"fmt"
	"strings"

	"github.com/psaab/foamdict/pkg/cmdtree"
	"github.com/psaab/foamdict/pkg/dictionary"
)

// completer implements readline.AutoCompleter over the command trees.
type completer struct {
	cli *CLI
}

func (cp *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	cands, partial := cp.cli.candidates(text)
	if len(cands) == 0 {
		return nil, 0
	}
	var result [][]rune
	for _, c := range cands {
		suffix := c.Name[len(partial):]
		// Paths ending in '/' keep the cursor on the word.
		if !strings.HasSuffix(suffix, "/") {
			suffix += " "
		}
		result = append(result, []rune(suffix))
	}
	return result, len(partial)
}

// candidates returns completions for text and the partial word they extend.
func (c *CLI) candidates(text string) ([]cmdtree.Candidate, string) {
	words := strings.Fields(text)
	trailingSpace := len(text) > 0 && text[len(text)-1] == ' '
	var partial string
	if !trailingSpace && len(words) > 0 {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	tree := cmdtree.OperationalTree
	var d *dictionary.Dictionary
	if c.store.InConfigMode() {
		if len(words) > 0 && words[0] == "run" {
			words = words[1:]
			d = c.store.Active()
		} else {
			tree = cmdtree.ConfigTopLevel
			d = c.store.Candidate()
		}
	} else {
		d = c.store.Active()
	}
	return cmdtree.CompleteFromTreeWithDesc(tree, words, partial, d), partial
}

// helpListener shows context help when '?' is typed, without inserting it.
func (c *CLI) helpListener(line []rune, pos int, key rune) ([]rune, int, bool) {
	if key != '?' || pos < 1 {
		return line, pos, false
	}
	// Strip the '?' that readline already inserted.
	clean := make([]rune, 0, len(line)-1)
	clean = append(clean, line[:pos-1]...)
	clean = append(clean, line[pos:]...)
	fmt.Fprintln(c.out)
	c.showContextHelp(string(clean[:pos-1]))
	return clean, pos - 1, true
}

func (c *CLI) showContextHelp(prefix string) {
	cands, _ := c.candidates(prefix)
	if len(cands) == 0 {
		fmt.Fprintln(c.out, "  (no help available)")
		return
	}
	cmdtree.WriteHelp(c.out, cands)
}
