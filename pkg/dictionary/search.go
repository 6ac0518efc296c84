package dictionary

import "strings"

// MatchOption controls keyword search.
type MatchOption uint8

const (
	// MatchLiteral matches keyword text only, in this dictionary only.
	MatchLiteral MatchOption = 0
	// MatchRecursive ascends into enclosing scopes on a miss.
	MatchRecursive MatchOption = 1 << 0
	// MatchPattern lets pattern entries match.
	MatchPattern MatchOption = 1 << 1

	// MatchDefault is the option used by the plain accessors.
	MatchDefault = MatchPattern
)

func (o MatchOption) recursive() bool { return o&MatchRecursive != 0 }
func (o MatchOption) pattern() bool   { return o&MatchPattern != 0 }

// Searcher is the result of a search. The zero value means not found.
type Searcher struct {
	entry   *Entry
	context *Dictionary
}

// Found reports whether an entry was found.
func (s Searcher) Found() bool { return s.entry != nil }

// Entry returns the entry found, or nil.
func (s Searcher) Entry() *Entry { return s.entry }

// Context returns the dictionary holding the entry found.
func (s Searcher) Context() *Dictionary { return s.context }

// IsDict reports whether a dictionary entry was found.
func (s Searcher) IsDict() bool { return s.entry != nil && s.entry.dict != nil }

// Dict returns the dictionary found, or nil.
func (s Searcher) Dict() *Dictionary {
	if s.entry == nil {
		return nil
	}
	return s.entry.dict
}

// Search finds keyword. An exact keyword match always wins over patterns;
// among patterns the most recently added match wins. With MatchRecursive
// the search continues in the enclosing scopes.
func (d *Dictionary) Search(keyword string, opt MatchOption) Searcher {
	for p := d; p != nil; p = p.parent {
		if e := p.searchLocal(keyword, opt); e != nil {
			return Searcher{entry: e, context: p}
		}
		if !opt.recursive() {
			break
		}
	}
	return Searcher{}
}

func (d *Dictionary) searchLocal(keyword string, opt MatchOption) *Entry {
	if e, ok := d.index[keyword]; ok {
		return e
	}
	if opt.pattern() {
		for i := len(d.patterns) - 1; i >= 0; i-- {
			if d.patterns[i].re.MatchString(keyword) {
				return d.patterns[i].entry
			}
		}
	}
	return nil
}

// Found reports whether keyword resolves, honouring scope syntax.
func (d *Dictionary) Found(keyword string, opt MatchOption) bool {
	return d.FindEntry(keyword, opt) != nil
}

// FindEntry returns the entry for keyword, or nil. Scoped keywords are
// resolved with SearchScoped; scope errors count as not found.
func (d *Dictionary) FindEntry(keyword string, opt MatchOption) *Entry {
	s, err := d.find(keyword, opt)
	if err != nil {
		return nil
	}
	return s.entry
}

// FindDict returns the sub-dictionary for keyword, or nil when missing or
// not a dictionary.
func (d *Dictionary) FindDict(keyword string, opt MatchOption) *Dictionary {
	if e := d.FindEntry(keyword, opt); e != nil {
		return e.dict
	}
	return nil
}

// find dispatches to SearchScoped only when the keyword carries scope
// syntax.
func (d *Dictionary) find(keyword string, opt MatchOption) (Searcher, error) {
	if IsScoped(keyword) {
		return d.SearchScoped(keyword, opt)
	}
	return d.Search(keyword, opt), nil
}

// IsScoped reports whether keyword uses dot or slash scope syntax.
func IsScoped(keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.ContainsAny(keyword, "./") || keyword[0] == '^' || keyword[0] == ':'
}
