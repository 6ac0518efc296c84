package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds, usable with errors.Is.
var (
	ErrNotFound     = errors.New("keyword not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrParse        = errors.New("parse error")
	ErrScope        = errors.New("invalid scope")
)

// Error is returned by the strict accessors and the reader. It carries the
// dictionary scope and, when known, the input position of the offending text.
type Error struct {
	Kind    error
	Scope   string // dictionary name
	Keyword string
	Line    int
	Column  int
	Msg     string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Scope != "" {
		b.WriteString(e.Scope)
	}
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Keyword != "" {
		fmt.Fprintf(&b, " %q", e.Keyword)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

func notFound(d *Dictionary, keyword string) *Error {
	return &Error{Kind: ErrNotFound, Scope: d.Name(), Keyword: keyword, Line: d.line}
}

func typeMismatch(e *Entry, msg string) *Error {
	err := &Error{Kind: ErrTypeMismatch, Keyword: e.keyword.Name, Line: e.line, Msg: msg}
	if e.owner != nil {
		err.Scope = e.owner.Name()
	}
	return err
}
