// Package expand implements shell-like variable expansion of strings:
// $name, ${name}, ${name:-default} and ${name:+alternative}.
//
// Names are resolved through a Resolver. Substituted values are inserted
// verbatim and never scanned again, so expansion always terminates, even for
// self-referencing names. Text that does not form a valid expression is left
// as it is.
package expand

import (
	"os"
	"strings"
)

// Resolver looks up the value of a name.
type Resolver interface {
	Lookup(name string) (string, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (string, bool)

// Lookup implements Resolver.
func (f ResolverFunc) Lookup(name string) (string, bool) { return f(name) }

// Map is a Resolver backed by a map.
type Map map[string]string

// Lookup implements Resolver.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Env returns a Resolver over the process environment.
func Env() Resolver {
	return ResolverFunc(os.LookupEnv)
}

// Chain returns a Resolver trying each resolver in order.
func Chain(rs ...Resolver) Resolver {
	return ResolverFunc(func(name string) (string, bool) {
		for _, r := range rs {
			if r == nil {
				continue
			}
			if v, ok := r.Lookup(name); ok {
				return v, true
			}
		}
		return "", false
	})
}

// DefaultSigil introduces an expression.
const DefaultSigil = '$'

// Options controls expansion.
type Options struct {
	// Sigil introduces an expression. Zero means DefaultSigil.
	Sigil byte
	// AllowEmpty removes unresolved $name and ${name} instead of keeping
	// them verbatim.
	AllowEmpty bool
}

func (o Options) sigil() byte {
	if o.Sigil == 0 {
		return DefaultSigil
	}
	return o.Sigil
}

// String expands s against r.
func String(s string, r Resolver, opts Options) string {
	sigil := opts.sigil()
	if strings.IndexByte(s, sigil) < 0 {
		return s
	}
	if r == nil {
		r = Map(nil)
	}

	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		j := strings.IndexByte(s[i:], sigil)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+j])
		i += j

		if i+1 < len(s) && s[i+1] == '{' {
			end := matchBrace(s, i+1)
			if end < 0 {
				// Unterminated: keep the sigil and move on.
				b.WriteByte(sigil)
				i++
				continue
			}
			b.WriteString(expandBraced(s[i:end+1], s[i+2:end], r, opts))
			i = end + 1
			continue
		}

		n := identLen(s[i+1:])
		if n == 0 {
			b.WriteByte(sigil)
			i++
			continue
		}
		name := s[i+1 : i+1+n]
		if v, ok := r.Lookup(name); ok {
			b.WriteString(v)
		} else if !opts.AllowEmpty {
			b.WriteString(s[i : i+1+n])
		}
		i += 1 + n
	}
	return b.String()
}

// expandBraced expands the body of ${...}. raw is the full expression text,
// kept when the expression cannot be resolved.
func expandBraced(raw, body string, r Resolver, opts Options) string {
	namePart, op, arg := splitModifier(body)
	name := String(namePart, r, opts)
	if name == "" {
		return raw
	}

	v, ok := r.Lookup(name)
	set := ok && v != ""
	switch op {
	case '-':
		if set {
			return v
		}
		return String(arg, r, opts)
	case '+':
		if set {
			return String(arg, r, opts)
		}
		return ""
	}
	if ok {
		return v
	}
	if opts.AllowEmpty {
		return ""
	}
	return raw
}

// splitModifier splits body at the first ":-" or ":+" outside nested
// braces.
func splitModifier(body string) (name string, op byte, arg string) {
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ':':
			if depth == 0 && i+1 < len(body) && (body[i+1] == '-' || body[i+1] == '+') {
				return body[:i], body[i+1], body[i+2:]
			}
		}
	}
	return body, 0, ""
}

// matchBrace returns the index of the '}' closing the '{' at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// identLen returns the length of the identifier at the start of s.
func identLen(s string) int {
	if s == "" || !(isAlpha(s[0]) || s[0] == '_') {
		return 0
	}
	n := 1
	for n < len(s) && (isAlpha(s[n]) || isDigit(s[n]) || s[n] == '_') {
		n++
	}
	return n
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Names returns the names referenced by s, in order of appearance, without
// resolving them. Names inside nested braces are reported as written.
func Names(s string, opts Options) []string {
	sigil := opts.sigil()
	var names []string
	for i := 0; i < len(s); i++ {
		if s[i] != sigil {
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			end := matchBrace(s, i+1)
			if end < 0 {
				continue
			}
			name, _, _ := splitModifier(s[i+2 : end])
			if name != "" {
				names = append(names, name)
			}
			i = end
			continue
		}
		if n := identLen(s[i+1:]); n > 0 {
			names = append(names, s[i+1:i+1+n])
			i += n
		}
	}
	return names
}
