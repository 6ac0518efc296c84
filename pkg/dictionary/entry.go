package dictionary

import (
	"fmt"
	"io"
	"strings"
)

// Entry is a keyword bound to either a primitive token stream or a nested
// dictionary. Exactly one of stream and dict is in use.
type Entry struct {
	keyword Keyword
	stream  TokenStream
	dict    *Dictionary
	line    int

	// owner is the dictionary holding this entry, nil while detached.
	owner *Dictionary
}

// NewStreamEntry returns a primitive entry.
func NewStreamEntry(kw Keyword, tokens TokenStream) *Entry {
	if tokens == nil {
		tokens = TokenStream{}
	}
	return &Entry{keyword: kw, stream: tokens}
}

// NewDictEntry returns a dictionary entry. The dictionary is adopted by the
// entry and re-parented when the entry is added to a dictionary.
func NewDictEntry(kw Keyword, d *Dictionary) *Entry {
	if d == nil {
		d = New("")
	}
	return &Entry{keyword: kw, dict: d}
}

// NewEntryFromString lexes value and returns a primitive entry holding the
// tokens.
func NewEntryFromString(kw Keyword, value string) (*Entry, error) {
	tokens, err := NewLexer(value).Tokens()
	if err != nil {
		return nil, err
	}
	return NewStreamEntry(kw, tokens), nil
}

// Keyword returns the entry keyword.
func (e *Entry) Keyword() Keyword { return e.keyword }

// Line returns the input line the entry started on, 0 when unknown.
func (e *Entry) Line() int { return e.line }

// Owner returns the dictionary holding the entry.
func (e *Entry) Owner() *Dictionary { return e.owner }

// IsDict reports whether the entry holds a dictionary.
func (e *Entry) IsDict() bool { return e.dict != nil }

// IsStream reports whether the entry holds a token stream.
func (e *Entry) IsStream() bool { return e.dict == nil }

// Stream returns the token stream of a primitive entry.
func (e *Entry) Stream() (TokenStream, error) {
	if e.dict != nil {
		return nil, typeMismatch(e, "attempt to return dictionary entry as a primitive")
	}
	return e.stream, nil
}

// Dict returns the dictionary of a dictionary entry.
func (e *Entry) Dict() (*Dictionary, error) {
	if e.dict == nil {
		return nil, typeMismatch(e, "attempt to return primitive entry as a dictionary")
	}
	return e.dict, nil
}

// Equal reports whether keywords match and the values are token-wise or
// recursively equal.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.keyword != o.keyword {
		return false
	}
	if e.IsDict() != o.IsDict() {
		return false
	}
	if e.IsDict() {
		return e.dict.Equal(o.dict)
	}
	return e.stream.Equal(o.stream)
}

// Clone returns a deep copy of the entry. A dictionary value is copied with
// parent as its scope.
func (e *Entry) Clone(parent *Dictionary) *Entry {
	c := &Entry{keyword: e.keyword, line: e.line}
	if e.dict != nil {
		c.dict = e.dict.Clone(parent)
	} else {
		c.stream = e.stream.Clone()
	}
	return c
}

// Value renders the value of a primitive entry as text. Dictionary entries
// render as their brace-enclosed contents on one line.
func (e *Entry) Value() string {
	if e.dict == nil {
		return e.stream.String()
	}
	var parts []string
	for _, c := range e.dict.entries {
		parts = append(parts, c.keyword.Text()+" "+c.Value()+";")
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// Write serializes the entry at the given indentation level.
func (e *Entry) Write(w io.Writer, indent int) error {
	prefix := strings.Repeat(indentUnit, indent)
	kw := e.keyword.Text()
	if e.dict != nil {
		if _, err := fmt.Fprintf(w, "%s%s\n%s{\n", prefix, kw, prefix); err != nil {
			return err
		}
		if err := e.dict.writeEntries(w, indent+1); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s}\n", prefix)
		return err
	}
	if len(e.stream) == 0 {
		_, err := fmt.Fprintf(w, "%s%s;\n", prefix, kw)
		return err
	}
	pad := keywordWidth - len(kw)
	if pad < 1 {
		pad = 1
	}
	_, err := fmt.Fprintf(w, "%s%s%s%s;\n", prefix, kw, strings.Repeat(" ", pad), e.stream.String())
	return err
}

func (e *Entry) String() string {
	var b strings.Builder
	e.Write(&b, 0)
	return b.String()
}
