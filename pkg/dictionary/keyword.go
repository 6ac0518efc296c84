package dictionary

import (
	"regexp"
	"strings"
)

// Keyword identifies an entry. A pattern keyword is matched as a regular
// expression against the whole searched keyword.
type Keyword struct {
	Name    string
	Pattern bool
}

// Literal returns a literal keyword.
func Literal(name string) Keyword { return Keyword{Name: name} }

// Pattern returns a regular-expression keyword.
func Pattern(expr string) Keyword { return Keyword{Name: expr, Pattern: true} }

// KeywordFromToken converts a keyword token. Words are literal; quoted
// strings become patterns when they contain regular-expression meta
// characters.
func KeywordFromToken(t Token) (Keyword, bool) {
	switch t.Kind {
	case TokenWord:
		return Literal(t.Str), true
	case TokenString:
		return Keyword{Name: t.Str, Pattern: IsMeta(t.Str)}, true
	case TokenVariable, TokenDirective:
		return Literal(t.Str), true
	}
	return Keyword{}, false
}

// IsMeta reports whether s contains regular-expression meta characters.
func IsMeta(s string) bool {
	return strings.ContainsAny(s, `.*+?()[]{}|^$\`)
}

// Compile compiles the keyword as an anchored regular expression.
func (k Keyword) Compile() (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + k.Name + `)$`)
}

// Text renders the keyword as it is written in a dictionary.
func (k Keyword) Text() string {
	if k.Pattern || !isPlainWord(k.Name) {
		return quote(k.Name)
	}
	return k.Name
}

func (k Keyword) String() string { return k.Text() }

// isPlainWord reports whether s lexes back as a single word token.
func isPlainWord(s string) bool {
	if s == "" || startsNumber(s) || isPunctChar(s[0]) || s[0] == '"' || s[0] == '#' {
		return false
	}
	if s[0] == '$' {
		return true
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !isWordChar(ch) {
			return false
		}
		switch ch {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return false
			}
			depth--
		case ',':
			if depth == 0 {
				return false
			}
		}
	}
	return depth == 0
}
