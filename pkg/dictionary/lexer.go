package dictionary

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer tokenizes OpenFOAM dictionary text.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// NewLexer creates a new Lexer for the given input string.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
}

// Next returns the next token, advancing the position.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Line: l.line, Column: l.column}
	}

	ch := l.input[l.pos]
	line, col := l.line, l.column

	switch {
	case ch == '"':
		return l.readString(line, col)
	case ch == '$':
		return l.readVariable(line, col)
	case ch == '#':
		return l.readHash(line, col)
	case startsNumber(l.input[l.pos:]):
		return l.readNumber(line, col)
	case isPunctChar(ch):
		l.advance()
		return Token{Kind: TokenPunctuation, Punct: ch, Line: line, Column: col}
	case isWordChar(ch):
		return l.readWord(line, col)
	default:
		l.advance()
		return Token{
			Kind:   TokenError,
			Str:    fmt.Sprintf("unexpected character: %c", ch),
			Line:   line,
			Column: col,
		}
	}
}

// Peek returns the next token without advancing.
func (l *Lexer) Peek() Token {
	savedPos := l.pos
	savedLine := l.line
	savedCol := l.column
	tok := l.Next()
	l.pos = savedPos
	l.line = savedLine
	l.column = savedCol
	return tok
}

// Tokens lexes the whole input. Lexing stops at the first error token,
// which is returned as an error.
func (l *Lexer) Tokens() (TokenStream, error) {
	var out TokenStream
	for {
		tok := l.Next()
		switch tok.Kind {
		case TokenEOF:
			return out, nil
		case TokenError:
			return out, &Error{Kind: ErrParse, Line: tok.Line, Column: tok.Column, Msg: tok.Str}
		}
		out = append(out, tok)
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v' {
			l.advance()
			continue
		}

		// Block comment: /* ... */
		if ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*' {
			l.advance() // /
			l.advance() // *
			for l.pos < len(l.input) {
				if l.input[l.pos] == '*' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/' {
					l.advance() // *
					l.advance() // /
					break
				}
				l.advance()
			}
			continue
		}

		// Line comment: // ... \n
		if ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
			continue
		}

		break
	}
}

func (l *Lexer) readString(line, col int) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.advance()
			switch l.input[l.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case '\n':
				// line continuation
			default:
				b.WriteByte('\\')
				b.WriteByte(l.input[l.pos])
			}
			l.advance()
			continue
		}
		if ch == '"' {
			l.advance()
			return Token{Kind: TokenString, Str: b.String(), Line: line, Column: col}
		}
		b.WriteByte(ch)
		l.advance()
	}
	return Token{Kind: TokenError, Str: "unterminated string", Line: line, Column: col}
}

// readWord reads an OpenFOAM word. Parentheses are part of the word while
// balanced, so div(phi,U) is a single token.
func (l *Lexer) readWord(line, col int) Token {
	start := l.pos
	depth := 0
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isWordChar(ch) {
			break
		}
		if ch == '(' {
			depth++
		} else if ch == ')' {
			if depth == 0 {
				break
			}
			depth--
		} else if ch == ',' && depth == 0 {
			break
		}
		l.advance()
	}
	if depth != 0 {
		return Token{Kind: TokenError, Str: "unbalanced parentheses in word " + l.input[start:l.pos], Line: line, Column: col}
	}
	return Token{Kind: TokenWord, Str: l.input[start:l.pos], Line: line, Column: col}
}

// readNumber reads a label or scalar. A list size prefix such as the 3 in
// 3(1 2 3) ends at the parenthesis. Text that does not parse as a number
// is a word.
func (l *Lexer) readNumber(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isWordChar(ch) || ch == '(' || ch == ')' || ch == ',' {
			break
		}
		l.advance()
	}
	text := l.input[start:l.pos]
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Token{Kind: TokenLabel, Int: v, Line: line, Column: col}
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return Token{Kind: TokenScalar, Float: v, Line: line, Column: col}
	}
	return Token{Kind: TokenWord, Str: text, Line: line, Column: col}
}

func (l *Lexer) readVariable(line, col int) Token {
	start := l.pos
	l.advance() // $
	if l.pos < len(l.input) && l.input[l.pos] == '{' {
		depth := 0
		for l.pos < len(l.input) {
			ch := l.input[l.pos]
			l.advance()
			if ch == '{' {
				depth++
			} else if ch == '}' {
				depth--
				if depth == 0 {
					return Token{Kind: TokenVariable, Str: l.input[start:l.pos], Line: line, Column: col}
				}
			}
		}
		return Token{Kind: TokenError, Str: "unterminated variable " + l.input[start:l.pos], Line: line, Column: col}
	}
	for l.pos < len(l.input) && isVariableChar(l.input[l.pos]) {
		l.advance()
	}
	if l.pos-start == 1 {
		return Token{Kind: TokenError, Str: "empty variable name", Line: line, Column: col}
	}
	return Token{Kind: TokenVariable, Str: l.input[start:l.pos], Line: line, Column: col}
}

func (l *Lexer) readHash(line, col int) Token {
	l.advance() // #
	if l.pos < len(l.input) && l.input[l.pos] == '{' {
		l.advance()
		start := l.pos
		for l.pos < len(l.input) {
			if l.input[l.pos] == '#' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '}' {
				body := l.input[start:l.pos]
				l.advance()
				l.advance()
				return Token{Kind: TokenVerbatim, Str: body, Line: line, Column: col}
			}
			l.advance()
		}
		return Token{Kind: TokenError, Str: "unterminated verbatim block", Line: line, Column: col}
	}
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}
	if l.pos == start {
		return Token{Kind: TokenError, Str: "empty directive", Line: line, Column: col}
	}
	return Token{Kind: TokenDirective, Str: "#" + l.input[start:l.pos], Line: line, Column: col}
}

func startsNumber(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func isPunctChar(ch byte) bool {
	switch ch {
	case ';', '{', '}', '(', ')', '[', ']', ',', ':', '=', '+', '-', '*', '/':
		return true
	}
	return false
}

// isWordChar returns true if ch may appear inside an OpenFOAM word.
func isWordChar(ch byte) bool {
	if ch <= ' ' || ch == 0x7f {
		return false
	}
	switch ch {
	case '"', '\'', '/', ';', '{', '}', '[', ']':
		return false
	}
	return true
}

func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}

// isVariableChar accepts identifier characters plus the dot-scoping
// characters, so $..a.b and $:a.b lex as one token.
func isVariableChar(ch byte) bool {
	return isIdentChar(ch) || ch == '.' || ch == ':' || ch == '^'
}
