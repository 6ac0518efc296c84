package dictionary

import (
	"fmt"
	"io"
	"strings"
)

const (
	indentUnit = "    "
	// keywordWidth is the column primitive values start at.
	keywordWidth = 16
)

// Write serializes the entries of d in dictionary syntax. Reading the output
// back produces an equal dictionary.
func (d *Dictionary) Write(w io.Writer) error {
	return d.writeEntries(w, 0)
}

func (d *Dictionary) writeEntries(w io.Writer, indent int) error {
	for i, e := range d.entries {
		// Blank line before a sub-dictionary, except at the start.
		if e.dict != nil && i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := e.Write(w, indent); err != nil {
			return err
		}
	}
	return nil
}

// String returns the serialized form of d.
func (d *Dictionary) String() string {
	var b strings.Builder
	d.Write(&b)
	return b.String()
}

// WriteWithHeader writes d wrapped in a named block, the way a nested
// dictionary is written.
func (d *Dictionary) WriteWithHeader(w io.Writer, keyword string) error {
	return NewDictEntry(Literal(keyword), d).Write(w, 0)
}

// FlatEntry is a primitive entry addressed by its slash-scoped path.
type FlatEntry struct {
	Path  string
	Value string
}

func (f FlatEntry) String() string {
	return fmt.Sprintf("%s %s", f.Path, f.Value)
}

// Flatten lists every primitive entry of d and its sub-dictionaries in
// order, one line per entry. The paths are accepted by SearchScoped when
// keywords contain no '/'.
func (d *Dictionary) Flatten() []FlatEntry {
	var out []FlatEntry
	flatten(&out, d, nil)
	return out
}

func flatten(out *[]FlatEntry, d *Dictionary, prefix []string) {
	for _, e := range d.entries {
		path := append(prefix[:len(prefix):len(prefix)], e.keyword.Name)
		if e.dict != nil {
			flatten(out, e.dict, path)
			continue
		}
		*out = append(*out, FlatEntry{
			Path:  strings.Join(path, "/"),
			Value: e.stream.String(),
		})
	}
}

// WalkFunc is called for each entry visited by Walk. path holds the keywords
// from d down to the entry. Returning false from a dictionary entry skips
// its contents.
type WalkFunc func(path []string, e *Entry) bool

// Walk visits every entry of d depth-first in insertion order.
func (d *Dictionary) Walk(fn WalkFunc) {
	walk(d, nil, fn)
}

func walk(d *Dictionary, prefix []string, fn WalkFunc) {
	for _, e := range d.entries {
		path := append(prefix[:len(prefix):len(prefix)], e.keyword.Name)
		if !fn(path, e) {
			continue
		}
		if e.dict != nil {
			walk(e.dict, path, fn)
		}
	}
}
