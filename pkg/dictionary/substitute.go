package dictionary

import (
	"log/slog"
	"strings"

	"github.com/psaab/foamdict/pkg/expand"
)

// ExpandOptions controls string expansion against a dictionary.
type ExpandOptions struct {
	// AllowEnv falls back to process environment variables.
	AllowEnv bool
	// AllowEmpty removes unresolved references instead of keeping them.
	AllowEmpty bool
	// Sigil overrides the '$' that introduces a reference.
	Sigil byte
}

// Resolver returns an expand.Resolver that looks names up in d with
// recursive, pattern-matching scoped search. Primitive values resolve to
// their token text; dictionary entries do not resolve.
func (d *Dictionary) Resolver(allowEnv bool) expand.Resolver {
	r := expand.ResolverFunc(func(name string) (string, bool) {
		e := d.FindEntry(name, MatchRecursive|MatchPattern)
		if e == nil || e.IsDict() {
			return "", false
		}
		return streamText(e.stream), true
	})
	if allowEnv {
		return expand.Chain(r, expand.Env())
	}
	return r
}

// Expand expands $name, ${name}, ${name:-default} and ${name:+alt} in s
// using d as the resolution scope.
func (d *Dictionary) Expand(s string, opts ExpandOptions) string {
	return expand.String(s, d.Resolver(opts.AllowEnv), expand.Options{
		Sigil:      opts.Sigil,
		AllowEmpty: opts.AllowEmpty,
	})
}

// streamText renders a value for substitution into a string. A single
// string token contributes its unquoted contents.
func streamText(s TokenStream) string {
	if len(s) == 1 && s[0].Kind == TokenString {
		return s[0].Str
	}
	return s.String()
}

// VariableName strips the sigil and braces from a variable keyword:
// "$a" and "${a}" both give "a".
func VariableName(v string) string {
	v = strings.TrimPrefix(v, "$")
	if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
		v = v[1 : len(v)-1]
	}
	return v
}

// SubstituteKeyword splices the contents of the dictionary named by a
// "$name" keyword into d. When d holds a placeholder entry with exactly that
// keyword, the contents take its place and the placeholder is removed;
// otherwise they are appended. Entries are added with Add, so merge decides
// how clashing keywords are treated.
func (d *Dictionary) SubstituteKeyword(keyword string, merge bool) (bool, error) {
	if !strings.HasPrefix(keyword, "$") {
		return false, nil
	}
	name := VariableName(keyword)
	s, err := d.SearchScoped(name, MatchRecursive|MatchPattern)
	if err != nil {
		return false, err
	}
	if !s.Found() {
		return false, notFound(d, name)
	}
	src, err := s.Entry().Dict()
	if err != nil {
		return false, err
	}

	// Copy first: src may be an ancestor of d or d's own placeholder.
	copies := make([]*Entry, 0, src.Len())
	for _, e := range src.entries {
		copies = append(copies, e.Clone(d))
	}

	placeholder, hasPlaceholder := d.index[keyword]
	if !hasPlaceholder {
		for _, c := range copies {
			d.Add(c, merge)
		}
		return true, nil
	}

	// Rebuild the ordered list with the copies at the placeholder position.
	pos := 0
	for i, e := range d.entries {
		if e == placeholder {
			pos = i
			break
		}
	}
	d.Remove(keyword)
	tail := append([]*Entry(nil), d.entries[pos:]...)
	for _, e := range tail {
		d.Remove(e.keyword.Name)
	}
	for _, c := range copies {
		d.Add(c, merge)
	}
	// Entries that followed the placeholder were defined later and win.
	for _, e := range tail {
		if d.Add(e, merge) == nil {
			d.Set(e)
		}
	}
	return true, nil
}

// expandTokens replaces variable tokens in a primitive value by the tokens
// of the entries they name. Unresolved variables are kept.
func (d *Dictionary) expandTokens(tokens TokenStream, opts ParseOptions) TokenStream {
	var out TokenStream
	for _, t := range tokens {
		if t.Kind != TokenVariable {
			out = append(out, t)
			continue
		}
		repl, ok := d.resolveVariable(t, opts)
		if !ok {
			slog.Warn("dictionary: unresolved variable",
				"scope", d.name, "variable", t.Str, "line", t.Line)
			out = append(out, t)
			continue
		}
		out = append(out, repl...)
	}
	return out
}

func (d *Dictionary) resolveVariable(t Token, opts ParseOptions) (TokenStream, bool) {
	name := VariableName(t.Str)
	if strings.ContainsAny(name, "${}") || strings.Contains(name, ":-") || strings.Contains(name, ":+") {
		text := d.Expand(t.Str, ExpandOptions{AllowEnv: opts.AllowEnv})
		if text == t.Str {
			return nil, false
		}
		toks, err := NewLexer(text).Tokens()
		if err != nil {
			return TokenStream{Str(text)}, true
		}
		return toks, true
	}

	e := d.FindEntry(name, MatchRecursive|MatchPattern)
	if e != nil && e.IsStream() {
		return e.stream.Clone(), true
	}
	if e == nil && opts.AllowEnv {
		if v, ok := expand.Env().Lookup(name); ok {
			toks, err := NewLexer(v).Tokens()
			if err != nil || len(toks) == 0 {
				return TokenStream{Str(v)}, true
			}
			return toks, true
		}
	}
	return nil, false
}
