package dictionary

import (
	"log/slog"
	"regexp"
	"strings"
)

// compiledPattern pairs a pattern entry with its compiled expression.
type compiledPattern struct {
	entry *Entry
	re    *regexp.Regexp
}

// Dictionary is an ordered collection of entries with a non-owning
// reference to its enclosing scope. A dictionary with a nil parent is a
// top-level dictionary.
type Dictionary struct {
	name   string
	parent *Dictionary
	line   int

	// entries is the owner, in insertion order. index maps keyword text to
	// every entry, literal or pattern. patterns lists pattern entries oldest
	// first and is searched newest first.
	entries  []*Entry
	index    map[string]*Entry
	patterns []compiledPattern
}

// New creates an empty top-level dictionary.
func New(name string) *Dictionary {
	return &Dictionary{
		name:  name,
		index: make(map[string]*Entry),
	}
}

// NewChild creates an empty dictionary scoped inside parent. The child is
// not added to parent.
func NewChild(name string, parent *Dictionary) *Dictionary {
	d := New(name)
	d.parent = parent
	return d
}

// Name returns the scoped name, e.g. "system/fvSolution.solvers.p".
func (d *Dictionary) Name() string { return d.name }

// SetName renames the dictionary and its sub-dictionaries.
func (d *Dictionary) SetName(name string) { d.rename(name) }

// DictName returns the last component of the scoped name.
func (d *Dictionary) DictName() string {
	n := d.name
	if i := strings.LastIndexByte(n, '/'); i >= 0 {
		n = n[i+1:]
	}
	if i := strings.LastIndexByte(n, '.'); i >= 0 {
		n = n[i+1:]
	}
	return n
}

// Line returns the input line the dictionary started on, 0 when unknown.
func (d *Dictionary) Line() int { return d.line }

// Parent returns the enclosing dictionary, nil at top level.
func (d *Dictionary) Parent() *Dictionary { return d.parent }

// IsTop reports whether d has no enclosing scope.
func (d *Dictionary) IsTop() bool { return d.parent == nil }

// TopDict returns the top-level dictionary of the scope chain.
func (d *Dictionary) TopDict() *Dictionary {
	p := d
	for p.parent != nil {
		p = p.parent
	}
	return p
}

// Depth returns the number of scopes above d.
func (d *Dictionary) Depth() int {
	n := 0
	for p := d.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entries returns the entries in insertion order. The slice must not be
// modified.
func (d *Dictionary) Entries() []*Entry { return d.entries }

// Keys returns the keyword text of every entry in insertion order.
func (d *Dictionary) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.keyword.Name
	}
	return keys
}

// Patterns returns the pattern keywords, newest first.
func (d *Dictionary) Patterns() []string {
	out := make([]string, 0, len(d.patterns))
	for i := len(d.patterns) - 1; i >= 0; i-- {
		out = append(out, d.patterns[i].entry.keyword.Name)
	}
	return out
}

// Add inserts e at the end. When an entry with the same keyword exists and
// merge is false, nothing changes and Add returns nil. With merge, two
// dictionaries are merged recursively, two primitives have e's tokens
// appended, and mixed kinds are replaced in place. Add returns the entry now
// stored under the keyword.
func (d *Dictionary) Add(e *Entry, merge bool) *Entry {
	if e == nil {
		return nil
	}
	if e.dict != nil && d.inScopeChain(e.dict) {
		slog.Warn("dictionary: refusing to add entry that would create a scope cycle",
			"scope", d.name, "keyword", e.keyword.Name)
		return nil
	}
	_, ok := d.index[e.keyword.Name]
	if !ok {
		if !d.appendEntry(e) {
			return nil
		}
		return e
	}
	if !merge {
		return nil
	}
	d.mergeEntry(e, MergeAppend.conflict(), true)
	return d.index[e.keyword.Name]
}

// AddString lexes value and adds it as a primitive entry.
func (d *Dictionary) AddString(keyword, value string, merge bool) (*Entry, error) {
	e, err := NewEntryFromString(Literal(keyword), value)
	if err != nil {
		return nil, err
	}
	return d.Add(e, merge), nil
}

// Set inserts e, replacing any entry with the same keyword in place.
func (d *Dictionary) Set(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	if e.dict != nil && d.inScopeChain(e.dict) {
		return nil
	}
	if existing, ok := d.index[e.keyword.Name]; ok {
		if !d.replace(existing, e) {
			return nil
		}
		return e
	}
	if !d.appendEntry(e) {
		return nil
	}
	return e
}

// SetString lexes value and sets it as a primitive entry.
func (d *Dictionary) SetString(keyword, value string) (*Entry, error) {
	e, err := NewEntryFromString(Literal(keyword), value)
	if err != nil {
		return nil, err
	}
	return d.Set(e), nil
}

// Remove deletes the entry with the given keyword text. It reports whether
// anything was removed.
func (d *Dictionary) Remove(keyword string) bool {
	e, ok := d.index[keyword]
	if !ok {
		return false
	}
	for i, x := range d.entries {
		if x == e {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			break
		}
	}
	delete(d.index, keyword)
	if e.keyword.Pattern {
		d.dropPattern(e)
	}
	e.owner = nil
	return true
}

// Clear removes all entries.
func (d *Dictionary) Clear() {
	for _, e := range d.entries {
		e.owner = nil
	}
	d.entries = nil
	d.index = make(map[string]*Entry)
	d.patterns = nil
}

// Clone returns a deep copy of d scoped inside parent.
func (d *Dictionary) Clone(parent *Dictionary) *Dictionary {
	c := &Dictionary{
		name:    d.name,
		parent:  parent,
		line:    d.line,
		entries: make([]*Entry, 0, len(d.entries)),
		index:   make(map[string]*Entry, len(d.index)),
	}
	res := make(map[*Entry]*regexp.Regexp, len(d.patterns))
	for _, p := range d.patterns {
		res[p.entry] = p.re
	}
	for _, e := range d.entries {
		ce := e.Clone(c)
		ce.owner = c
		c.entries = append(c.entries, ce)
		c.index[ce.keyword.Name] = ce
		if re, ok := res[e]; ok {
			c.patterns = append(c.patterns, compiledPattern{entry: ce, re: re})
		}
	}
	return c
}

// Equal reports whether both dictionaries hold equal entries in the same
// order. Names and scopes are not compared.
func (d *Dictionary) Equal(o *Dictionary) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.entries) != len(o.entries) {
		return false
	}
	for i := range d.entries {
		if !d.entries[i].Equal(o.entries[i]) {
			return false
		}
	}
	return true
}

// appendEntry stores e at the end of the ordered list and indexes it.
func (d *Dictionary) appendEntry(e *Entry) bool {
	var re *regexp.Regexp
	if e.keyword.Pattern {
		var err error
		if re, err = e.keyword.Compile(); err != nil {
			slog.Warn("dictionary: invalid pattern keyword",
				"scope", d.name, "keyword", e.keyword.Name, "line", e.line, "err", err)
			return false
		}
	}
	d.adopt(e)
	d.entries = append(d.entries, e)
	d.index[e.keyword.Name] = e
	if re != nil {
		d.patterns = append(d.patterns, compiledPattern{entry: e, re: re})
	}
	return true
}

// replace swaps old for e at old's position.
func (d *Dictionary) replace(old, e *Entry) bool {
	var re *regexp.Regexp
	if e.keyword.Pattern {
		var err error
		if re, err = e.keyword.Compile(); err != nil {
			slog.Warn("dictionary: invalid pattern keyword",
				"scope", d.name, "keyword", e.keyword.Name, "line", e.line, "err", err)
			return false
		}
	}
	for i, x := range d.entries {
		if x == old {
			d.entries[i] = e
			break
		}
	}
	delete(d.index, old.keyword.Name)
	if old.keyword.Pattern {
		d.dropPattern(old)
	}
	old.owner = nil
	d.adopt(e)
	d.index[e.keyword.Name] = e
	if re != nil {
		d.patterns = append(d.patterns, compiledPattern{entry: e, re: re})
	}
	return true
}

func (d *Dictionary) dropPattern(e *Entry) {
	for i, p := range d.patterns {
		if p.entry == e {
			d.patterns = append(d.patterns[:i], d.patterns[i+1:]...)
			return
		}
	}
}

// adopt makes d the owner of e and re-scopes a dictionary value.
func (d *Dictionary) adopt(e *Entry) {
	e.owner = d
	if e.dict != nil {
		e.dict.parent = d
		e.dict.rename(d.scopedName(e.keyword.Name))
	}
}

func (d *Dictionary) scopedName(keyword string) string {
	if d.name == "" {
		return keyword
	}
	return d.name + "." + keyword
}

func (d *Dictionary) rename(name string) {
	d.name = name
	for _, e := range d.entries {
		if e.dict != nil {
			e.dict.rename(d.scopedName(e.keyword.Name))
		}
	}
}

// inScopeChain reports whether x is d or one of its ancestors.
func (d *Dictionary) inScopeChain(x *Dictionary) bool {
	for p := d; p != nil; p = p.parent {
		if p == x {
			return true
		}
	}
	return false
}
