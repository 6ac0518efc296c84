package dictionary

import "strings"

// SearchScoped resolves a scoped keyword.
//
// Slash syntax (any '/' present): a leading '/' starts at the top-level
// dictionary, "." stays, ".." ascends one scope and every other segment
// names a sub-dictionary. Only the final segment may match a pattern. A path
// ending in "." or ".." resolves to the entry holding the dictionary reached.
//
// Dot syntax: a leading '^' (or ':') starts at the top-level dictionary. A
// leading run of dots stays at the current scope for the first dot and
// ascends one scope for each further dot. Because keywords may contain
// dots, the whole remaining string is tried as one keyword first; after
// that each split point is tried from the left, descending into the prefix
// when it names a dictionary. Keywords such as "a.b.c" are inherently
// ambiguous under this rule.
//
// Ascending past the top-level dictionary is an ErrScope error. A keyword
// that simply does not resolve returns a zero Searcher and no error.
func (d *Dictionary) SearchScoped(keyword string, opt MatchOption) (Searcher, error) {
	if keyword == "" {
		return Searcher{}, nil
	}
	if strings.IndexByte(keyword, '/') >= 0 {
		return d.searchSlashScoped(keyword, opt)
	}
	if keyword[0] == '^' || keyword[0] == ':' {
		return d.TopDict().searchDotScoped(keyword[1:], opt)
	}
	return d.searchDotScoped(keyword, opt)
}

func (d *Dictionary) searchDotScoped(keyword string, opt MatchOption) (Searcher, error) {
	if keyword == "" {
		return Searcher{}, nil
	}

	if keyword[0] == '.' {
		dict := d
		i := 1
		for ; i < len(keyword) && keyword[i] == '.'; i++ {
			if dict.parent == nil {
				return Searcher{}, &Error{
					Kind:    ErrScope,
					Scope:   d.name,
					Keyword: keyword,
					Msg:     "no parent of top-level dictionary",
				}
			}
			dict = dict.parent
		}
		return dict.searchDotScoped(keyword[i:], opt)
	}

	if strings.IndexByte(keyword, '.') < 0 {
		return d.Search(keyword, opt), nil
	}

	// Whole keyword first: literal keywords may contain dots.
	if s := d.Search(keyword, opt); s.Found() {
		return s, nil
	}

	for i := 1; i < len(keyword); i++ {
		if keyword[i] != '.' {
			continue
		}
		head := d.Search(keyword[:i], opt)
		if !head.IsDict() {
			continue
		}
		// The remainder keeps its leading dot: "a..b" is b in a's parent.
		s, err := head.Dict().searchDotScoped(keyword[i:], opt&^MatchRecursive)
		if err != nil {
			return Searcher{}, err
		}
		if s.Found() {
			return s, nil
		}
	}
	return Searcher{}, nil
}

func (d *Dictionary) searchSlashScoped(keyword string, opt MatchOption) (Searcher, error) {
	dict := d
	if keyword[0] == '/' {
		dict = d.TopDict()
	}

	var parts []string
	for _, p := range strings.Split(keyword, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	for i, part := range parts {
		last := i == len(parts)-1
		switch part {
		case ".":
			continue
		case "..":
			if dict.parent == nil {
				return Searcher{}, &Error{
					Kind:    ErrScope,
					Scope:   d.name,
					Keyword: keyword,
					Msg:     "no parent of top-level dictionary",
				}
			}
			dict = dict.parent
			continue
		}
		if last {
			return dict.Search(part, opt&^MatchRecursive), nil
		}
		s := dict.Search(part, MatchLiteral)
		if !s.IsDict() {
			return Searcher{}, nil
		}
		dict = s.Dict()
	}
	// Path ended on "." or "..": the dictionary reached, as held by its parent.
	return dict.selfSearcher(), nil
}

// selfSearcher returns the entry holding d in its parent. A top-level
// dictionary has none.
func (d *Dictionary) selfSearcher() Searcher {
	if d.parent == nil {
		return Searcher{}
	}
	for _, e := range d.parent.entries {
		if e.dict == d {
			return Searcher{entry: e, context: d.parent}
		}
	}
	return Searcher{}
}
