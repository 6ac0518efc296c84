package dictionary

import (
	"fmt"
	"strings"
)

// LookupEntry finds keyword with scoped search and fails with an ErrNotFound
// error when it is missing.
func (d *Dictionary) LookupEntry(keyword string, opt MatchOption) (*Entry, error) {
	s, err := d.find(keyword, opt)
	if err != nil {
		return nil, err
	}
	if !s.Found() {
		return nil, notFound(d, keyword)
	}
	return s.Entry(), nil
}

// Lookup returns the token stream of a primitive entry.
func (d *Dictionary) Lookup(keyword string, opt MatchOption) (TokenStream, error) {
	e, err := d.LookupEntry(keyword, opt)
	if err != nil {
		return nil, err
	}
	return e.Stream()
}

// SubDict returns the dictionary of a dictionary entry.
func (d *Dictionary) SubDict(keyword string, opt MatchOption) (*Dictionary, error) {
	e, err := d.LookupEntry(keyword, opt)
	if err != nil {
		return nil, err
	}
	return e.Dict()
}

// SubDictOrEmpty returns the named sub-dictionary, or an empty one scoped
// inside d when it is missing or not a dictionary.
func (d *Dictionary) SubDictOrEmpty(keyword string, opt MatchOption) *Dictionary {
	if sub := d.FindDict(keyword, opt); sub != nil {
		return sub
	}
	return NewChild(d.scopedName(keyword), d)
}

// Value is the set of types Get can convert a primitive entry to.
type Value interface {
	int | int64 | float64 | string | bool | []int64 | []float64 | []string | TokenStream
}

// Get looks keyword up and converts its tokens to T. A value of the wrong
// shape is an ErrTypeMismatch error.
func Get[T Value](d *Dictionary, keyword string, opt MatchOption) (T, error) {
	var zero T
	e, err := d.LookupEntry(keyword, opt)
	if err != nil {
		return zero, err
	}
	stream, err := e.Stream()
	if err != nil {
		return zero, err
	}
	v, err := convert[T](stream)
	if err != nil {
		return zero, typeMismatch(e, err.Error())
	}
	return v, nil
}

// GetOrDefault is Get returning def on any error.
func GetOrDefault[T Value](d *Dictionary, keyword string, def T, opt MatchOption) T {
	v, err := Get[T](d, keyword, opt)
	if err != nil {
		return def
	}
	return v
}

// ReadIfPresent stores the converted value in *dst when keyword exists. It
// reports whether the entry was found; a found entry of the wrong shape is
// an error.
func ReadIfPresent[T Value](d *Dictionary, keyword string, dst *T, opt MatchOption) (bool, error) {
	if !d.Found(keyword, opt) {
		return false, nil
	}
	v, err := Get[T](d, keyword, opt)
	if err != nil {
		return true, err
	}
	*dst = v
	return true, nil
}

func convert[T Value](s TokenStream) (T, error) {
	var out T
	var v any
	var err error
	switch any(out).(type) {
	case int:
		var n int64
		n, err = single(s, toInt)
		v = int(n)
	case int64:
		v, err = single(s, toInt)
	case float64:
		v, err = single(s, toFloat)
	case string:
		v, err = single(s, toString)
	case bool:
		v, err = single(s, toBool)
	case []int64:
		v, err = list(s, toInt)
	case []float64:
		v, err = list(s, toFloat)
	case []string:
		v, err = list(s, toString)
	case TokenStream:
		v = s.Clone()
	}
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

func single[E any](s TokenStream, conv func(Token) (E, error)) (E, error) {
	var zero E
	if len(s) != 1 {
		return zero, fmt.Errorf("expected a single value, got %d tokens %q", len(s), s.String())
	}
	return conv(s[0])
}

// list converts "(a b c)", "N(a b c)" or a bare sequence of values.
func list[E any](s TokenStream, conv func(Token) (E, error)) ([]E, error) {
	items := s
	if len(items) >= 2 && items[0].Kind == TokenLabel && items[1].IsPunct('(') {
		items = items[1:]
	}
	if len(items) >= 2 && items[0].IsPunct('(') && items[len(items)-1].IsPunct(')') {
		items = items[1 : len(items)-1]
	}
	out := make([]E, 0, len(items))
	for _, t := range items {
		v, err := conv(t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func toInt(t Token) (int64, error) {
	if t.Kind == TokenLabel {
		return t.Int, nil
	}
	return 0, fmt.Errorf("expected label, got %s", t)
}

func toFloat(t Token) (float64, error) {
	if n, ok := t.Number(); ok {
		return n, nil
	}
	return 0, fmt.Errorf("expected scalar, got %s", t)
}

func toString(t Token) (string, error) {
	switch t.Kind {
	case TokenWord, TokenString:
		return t.Str, nil
	}
	return "", fmt.Errorf("expected word or string, got %s", t)
}

// Switch words understood as booleans.
var switchWords = map[string]bool{
	"on": true, "off": false,
	"yes": true, "no": false,
	"true": true, "false": false,
	"y": true, "n": false,
	"t": true, "f": false,
	"none": false, "any": true,
}

func toBool(t Token) (bool, error) {
	switch t.Kind {
	case TokenWord:
		if b, ok := switchWords[strings.ToLower(t.Str)]; ok {
			return b, nil
		}
	case TokenLabel:
		if t.Int == 0 || t.Int == 1 {
			return t.Int == 1, nil
		}
	}
	return false, fmt.Errorf("expected switch, got %s", t)
}
