// Package dictionary implements the OpenFOAM runtime dictionary: an ordered,
// hierarchical keyword store with literal and regular-expression keys,
// parent-scope chaining, scoped search, variable substitution and merging,
// together with a reader and writer for the dictionary text format.
//
// A Dictionary is not safe for concurrent mutation. Build it in a single
// goroutine, then share it read-only.
package dictionary

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind represents the type of a lexer token.
type TokenKind int

const (
	TokenWord        TokenKind = iota // unquoted word
	TokenString                       // "quoted string"
	TokenLabel                        // integer
	TokenScalar                       // floating point
	TokenPunctuation                  // ; { } ( ) [ ] , : = + - * /
	TokenVariable                     // $name, ${...}
	TokenVerbatim                     // #{ ... #}
	TokenDirective                    // #word
	TokenEOF
	TokenError
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenString:
		return "string"
	case TokenLabel:
		return "label"
	case TokenScalar:
		return "scalar"
	case TokenPunctuation:
		return "punctuation"
	case TokenVariable:
		return "variable"
	case TokenVerbatim:
		return "verbatim"
	case TokenDirective:
		return "directive"
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// Token is a single lexical token. Str holds the text of words, strings,
// variables, verbatim blocks, directives and error messages. Punct holds the
// punctuation character.
type Token struct {
	Kind   TokenKind
	Str    string
	Int    int64
	Float  float64
	Punct  byte
	Line   int
	Column int
}

// Word returns a word token.
func Word(s string) Token { return Token{Kind: TokenWord, Str: s} }

// Str returns a quoted-string token.
func Str(s string) Token { return Token{Kind: TokenString, Str: s} }

// Label returns an integer token.
func Label(v int64) Token { return Token{Kind: TokenLabel, Int: v} }

// Scalar returns a floating-point token.
func Scalar(v float64) Token { return Token{Kind: TokenScalar, Float: v} }

// Punct returns a punctuation token.
func Punct(c byte) Token { return Token{Kind: TokenPunctuation, Punct: c} }

// Variable returns a variable token. s includes the leading '$'.
func Variable(s string) Token { return Token{Kind: TokenVariable, Str: s} }

// IsPunct reports whether t is the punctuation character c.
func (t Token) IsPunct(c byte) bool {
	return t.Kind == TokenPunctuation && t.Punct == c
}

// IsNumber reports whether t is a label or scalar.
func (t Token) IsNumber() bool {
	return t.Kind == TokenLabel || t.Kind == TokenScalar
}

// Number returns the numeric value of a label or scalar token.
func (t Token) Number() (float64, bool) {
	switch t.Kind {
	case TokenLabel:
		return float64(t.Int), true
	case TokenScalar:
		return t.Float, true
	}
	return 0, false
}

// Equal compares kind and value, ignoring position.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TokenLabel:
		return t.Int == o.Int
	case TokenScalar:
		return t.Float == o.Float
	case TokenPunctuation:
		return t.Punct == o.Punct
	default:
		return t.Str == o.Str
	}
}

// Text renders the token in dictionary syntax.
func (t Token) Text() string {
	switch t.Kind {
	case TokenWord, TokenVariable, TokenDirective:
		return t.Str
	case TokenString:
		return quote(t.Str)
	case TokenLabel:
		return strconv.FormatInt(t.Int, 10)
	case TokenScalar:
		return formatScalar(t.Float)
	case TokenPunctuation:
		return string(t.Punct)
	case TokenVerbatim:
		return "#{" + t.Str + "#}"
	default:
		return ""
	}
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("error(%s)", t.Str)
	case TokenPunctuation:
		return fmt.Sprintf("'%c'", t.Punct)
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Text())
}

// formatScalar always keeps a decimal point or exponent so the value lexes
// back as a scalar.
func formatScalar(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// TokenStream is the ordered token sequence of a primitive entry.
type TokenStream []Token

// Equal compares two streams token by token.
func (s TokenStream) Equal(o TokenStream) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the stream.
func (s TokenStream) Clone() TokenStream {
	if s == nil {
		return nil
	}
	return append(TokenStream(nil), s...)
}

// String renders the stream as dictionary text, without the trailing ';'.
func (s TokenStream) String() string {
	var b strings.Builder
	for i, t := range s {
		if i > 0 && needsSpace(s[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text())
	}
	return b.String()
}

func needsSpace(prev, cur Token) bool {
	if prev.IsPunct('(') || prev.IsPunct('[') {
		return false
	}
	return !cur.IsPunct(')') && !cur.IsPunct(']')
}
