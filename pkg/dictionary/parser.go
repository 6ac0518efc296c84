package dictionary

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
)

// InputMode decides how the reader treats a keyword defined twice in the
// same dictionary.
type InputMode int

const (
	// InputMerge merges dictionaries recursively and overwrites primitives.
	InputMerge InputMode = iota
	// InputOverwrite replaces the earlier entry.
	InputOverwrite
	// InputProtect keeps the earlier entry silently.
	InputProtect
	// InputWarn keeps the earlier entry and logs a warning.
	InputWarn
	// InputError reports a parse error.
	InputError
)

func (m InputMode) String() string {
	switch m {
	case InputMerge:
		return "merge"
	case InputOverwrite:
		return "overwrite"
	case InputProtect:
		return "protect"
	case InputWarn:
		return "warn"
	case InputError:
		return "error"
	default:
		return fmt.Sprintf("InputMode(%d)", int(m))
	}
}

// ParseInputMode converts an input mode name.
func ParseInputMode(s string) (InputMode, error) {
	switch s {
	case "merge", "default", "":
		return InputMerge, nil
	case "overwrite":
		return InputOverwrite, nil
	case "protect":
		return InputProtect, nil
	case "warn":
		return InputWarn, nil
	case "error":
		return InputError, nil
	}
	return 0, fmt.Errorf("unknown input mode %q", s)
}

// ParseOptions configures the reader.
type ParseOptions struct {
	InputMode InputMode
	// ExpandVariables replaces $name tokens in values while reading and
	// splices "$name;" dictionary references.
	ExpandVariables bool
	// AllowEnv lets read-time expansion fall back to environment variables.
	AllowEnv bool
}

// Parser builds a Dictionary from dictionary text.
type Parser struct {
	lex  *Lexer
	name string
	opts ParseOptions
	errs []*Error
}

// NewParser creates a parser. name becomes the name of the top-level
// dictionary and prefixes error messages.
func NewParser(name, input string, opts ParseOptions) *Parser {
	return &Parser{
		lex:  NewLexer(input),
		name: name,
		opts: opts,
	}
}

// Parse reads the whole input. It returns the dictionary built so far
// together with every error found.
func (p *Parser) Parse() (*Dictionary, []*Error) {
	d := New(p.name)
	p.parseEntries(d, 0)
	return d, p.errs
}

// Parse reads text into a new top-level dictionary. All parse errors are
// combined into the returned error.
func Parse(name, text string, opts ParseOptions) (*Dictionary, error) {
	d, errs := NewParser(name, text, opts).Parse()
	var result *multierror.Error
	for _, err := range errs {
		result = multierror.Append(result, err)
	}
	return d, result.ErrorOrNil()
}

// ReadFile parses the file at path. The dictionary is named after path.
func ReadFile(path string, opts ParseOptions) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return Parse(path, string(data), opts)
}

func (p *Parser) errorf(tok Token, format string, args ...any) {
	p.errs = append(p.errs, &Error{
		Kind:   ErrParse,
		Scope:  p.name,
		Line:   tok.Line,
		Column: tok.Column,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// parseEntries reads entries into d until the closing brace (depth > 0) or
// EOF (depth == 0).
func (p *Parser) parseEntries(d *Dictionary, depth int) {
	for {
		tok := p.lex.Next()
		switch {
		case tok.Kind == TokenEOF:
			if depth > 0 {
				p.errorf(tok, "unexpected EOF: missing '}' for %s", d.name)
			}
			return

		case tok.Kind == TokenError:
			p.errorf(tok, "%s", tok.Str)

		case tok.IsPunct(';'):
			// stray terminator

		case tok.IsPunct('}'):
			if depth == 0 {
				p.errorf(tok, "unexpected '}'")
				continue
			}
			return

		case tok.Kind == TokenDirective:
			p.errorf(tok, "unsupported directive %s", tok.Str)
			p.skipLine(tok.Line)

		case tok.Kind == TokenVariable && p.lex.Peek().IsPunct(';'):
			p.lex.Next()
			p.parseReference(d, tok)

		default:
			kw, ok := KeywordFromToken(tok)
			if !ok {
				p.errorf(tok, "expected keyword, got %s", tok)
				continue
			}
			if e := p.parseEntry(d, kw, tok, depth); e != nil {
				p.insert(d, e, tok)
			}
		}
	}
}

// parseReference handles "$name;" at dictionary level.
func (p *Parser) parseReference(d *Dictionary, tok Token) {
	if !p.opts.ExpandVariables {
		e := NewStreamEntry(Literal(tok.Str), nil)
		e.line = tok.Line
		p.insert(d, e, tok)
		return
	}
	if _, err := d.SubstituteKeyword(tok.Str, p.opts.InputMode == InputMerge); err != nil {
		p.errorf(tok, "%v", err)
	}
}

func (p *Parser) parseEntry(d *Dictionary, kw Keyword, kwTok Token, depth int) *Entry {
	if kw.Pattern {
		if _, err := kw.Compile(); err != nil {
			p.errorf(kwTok, "invalid pattern keyword %q: %v", kw.Name, err)
		}
	}

	if p.lex.Peek().IsPunct('{') {
		open := p.lex.Next()
		child := NewChild(d.scopedName(kw.Name), d)
		child.line = open.Line
		p.parseEntries(child, depth+1)
		e := NewDictEntry(kw, child)
		e.line = kwTok.Line
		return e
	}

	tokens, ok := p.parseValue(kwTok)
	if !ok {
		return nil
	}
	if p.opts.ExpandVariables {
		// "key $dict;" copies a dictionary.
		if len(tokens) == 1 && tokens[0].Kind == TokenVariable {
			if src := d.FindDict(VariableName(tokens[0].Str), MatchRecursive|MatchPattern); src != nil {
				e := NewDictEntry(kw, src.Clone(d))
				e.line = kwTok.Line
				return e
			}
		}
		tokens = d.expandTokens(tokens, p.opts)
	}
	e := NewStreamEntry(kw, tokens)
	e.line = kwTok.Line
	return e
}

// parseValue reads the tokens of a primitive value up to the terminating
// ';' outside any brackets.
func (p *Parser) parseValue(kwTok Token) (TokenStream, bool) {
	var tokens TokenStream
	var stack []byte
	for {
		tok := p.lex.Peek()
		switch {
		case tok.Kind == TokenEOF:
			p.errorf(kwTok, "missing ';' after value of %q", kwTok.Str)
			return nil, false
		case tok.Kind == TokenError:
			p.lex.Next()
			p.errorf(tok, "%s", tok.Str)
			continue
		case tok.Kind == TokenPunctuation:
			switch tok.Punct {
			case ';':
				if len(stack) == 0 {
					p.lex.Next()
					return tokens, true
				}
			case '(', '[':
				stack = append(stack, closerOf(tok.Punct))
			case '{':
				if len(stack) == 0 {
					p.errorf(tok, "unexpected '{' in value of %q", kwTok.Str)
					p.lex.Next()
					p.skipBlock()
					return nil, false
				}
				stack = append(stack, '}')
			case ')', ']', '}':
				if len(stack) == 0 || stack[len(stack)-1] != tok.Punct {
					if tok.Punct == '}' && len(stack) == 0 {
						// Leave the brace for the enclosing dictionary.
						p.errorf(tok, "missing ';' after value of %q", kwTok.Str)
						return nil, false
					}
					p.lex.Next()
					p.errorf(tok, "unbalanced '%c' in value of %q", tok.Punct, kwTok.Str)
					continue
				}
				stack = stack[:len(stack)-1]
			}
		}
		tokens = append(tokens, p.lex.Next())
	}
}

func closerOf(open byte) byte {
	if open == '(' {
		return ')'
	}
	return ']'
}

// skipBlock discards tokens up to the brace matching one already consumed.
func (p *Parser) skipBlock() {
	depth := 1
	for depth > 0 {
		tok := p.lex.Next()
		switch {
		case tok.Kind == TokenEOF:
			return
		case tok.IsPunct('{'):
			depth++
		case tok.IsPunct('}'):
			depth--
		}
	}
}

// skipLine discards the remaining tokens on line.
func (p *Parser) skipLine(line int) {
	for {
		tok := p.lex.Peek()
		if tok.Kind == TokenEOF || tok.Line != line || tok.IsPunct('}') {
			return
		}
		p.lex.Next()
		if tok.IsPunct(';') {
			return
		}
	}
}

// insert stores e in d according to the input mode.
func (p *Parser) insert(d *Dictionary, e *Entry, tok Token) {
	existing, ok := d.index[e.keyword.Name]
	if !ok {
		if !d.appendEntry(e) {
			p.errorf(tok, "cannot add entry %q", e.keyword.Name)
		}
		return
	}

	switch p.opts.InputMode {
	case InputMerge:
		if existing.IsDict() && e.IsDict() {
			d.mergeEntry(e, MergeOverwrite.conflict(), true)
			return
		}
		d.replace(existing, e)
	case InputOverwrite:
		d.replace(existing, e)
	case InputProtect:
	case InputWarn:
		slog.Warn("dictionary: duplicate keyword ignored",
			"scope", d.name, "keyword", e.keyword.Name,
			"line", tok.Line, "first", existing.line)
	case InputError:
		p.errorf(tok, "duplicate keyword %q (first defined on line %d)", e.keyword.Name, existing.line)
	}
}
