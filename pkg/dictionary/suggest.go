package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Suggest returns up to max keywords close in spelling to the last segment
// of keyword, searched in the scope its prefix names. The results keep the
// prefix so they can be looked up directly.
func (d *Dictionary) Suggest(keyword string, max int) []string {
	scope, prefix, last := d, "", keyword
	if i := strings.LastIndexAny(keyword, "./"); i > 0 {
		sub := d.FindDict(keyword[:i], MatchDefault)
		if sub == nil {
			return nil
		}
		scope, prefix, last = sub, keyword[:i+1], keyword[i+1:]
	}
	if last == "" {
		return nil
	}

	type candidate struct {
		name string
		dist int
	}
	limit := len(last)/3 + 1
	var cands []candidate
	for _, e := range scope.entries {
		if e.keyword.Pattern {
			continue
		}
		name := e.keyword.Name
		if prefix+name == keyword {
			continue
		}
		if dist := levenshtein.Distance(strings.ToLower(last), strings.ToLower(name), nil); dist <= limit {
			cands = append(cands, candidate{name, dist})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = prefix + c.name
	}
	return out
}

// WithSuggestions adds close spellings of keyword to a not-found error.
// Other errors are returned unchanged.
func (d *Dictionary) WithSuggestions(keyword string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	s := d.Suggest(keyword, 3)
	if len(s) == 0 {
		return err
	}
	return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
}
