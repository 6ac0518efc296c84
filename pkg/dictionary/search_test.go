package dictionary

import (
	"errors"
	"testing"
)

func TestSearchExactBeatsPattern(t *testing.T) {
	d := New("test")
	d.Add(NewStreamEntry(Pattern("f.*"), TokenStream{Label(2)}), false)
	d.Add(NewStreamEntry(Literal("foo"), TokenStream{Label(1)}), false)

	s := d.Search("foo", MatchPattern)
	if !s.Found() {
		t.Fatal("foo not found")
	}
	if s.Entry().Keyword().Name != "foo" {
		t.Errorf("found %q, want literal foo", s.Entry().Keyword().Name)
	}

	s = d.Search("fab", MatchPattern)
	if !s.Found() || s.Entry().Keyword().Name != "f.*" {
		t.Errorf("fab should match pattern f.*, got %+v", s.Entry())
	}
	if d.Search("fab", MatchLiteral).Found() {
		t.Error("fab found without pattern matching")
	}
}

func TestSearchPatternRecency(t *testing.T) {
	d := New("test")
	d.Add(NewStreamEntry(Pattern("a.*"), TokenStream{Word("P1")}), false)
	d.Add(NewStreamEntry(Pattern(".*c"), TokenStream{Word("P2")}), false)

	s := d.Search("abc", MatchPattern)
	if !s.Found() {
		t.Fatal("abc not found")
	}
	if got := s.Entry().Value(); got != "P2" {
		t.Errorf("abc matched %s, want P2", got)
	}

	d.Remove(".*c")
	if got := d.Search("abc", MatchPattern).Entry().Value(); got != "P1" {
		t.Errorf("after removal abc matched %s, want P1", got)
	}
}

func TestPatternAnchoring(t *testing.T) {
	d := New("test")
	d.Add(NewStreamEntry(Pattern("U|k"), TokenStream{Label(1)}), false)
	for kw, want := range map[string]bool{"U": true, "k": true, "Uk": false, "xU": false, "kx": false} {
		if got := d.Search(kw, MatchPattern).Found(); got != want {
			t.Errorf("Search(%q) found = %v, want %v", kw, got, want)
		}
	}
}

func TestSearchRecursive(t *testing.T) {
	d0 := New("D0")
	d0.AddString("k", "1", false)
	d1 := NewChild("D1", d0)
	d0.Add(NewDictEntry(Literal("D1"), d1), false)

	s := d1.Search("k", MatchRecursive)
	if !s.Found() {
		t.Fatal("recursive search did not find k")
	}
	if s.Context() != d0 {
		t.Errorf("context = %s, want D0", s.Context().Name())
	}
	if d1.Search("k", MatchLiteral).Found() {
		t.Error("non-recursive search found k in parent")
	}
}

// scopeTree builds R -> A -> B, each with x naming its dictionary.
func scopeTree(t *testing.T) (r, a, b *Dictionary) {
	t.Helper()
	r = mustParse(t, `
x R;
a.b dotted;
A
{
    x A;
    B
    {
        x B;
    }
}
a
{
    b nested;
}
`)
	a = r.FindDict("A", MatchDefault)
	b = r.FindDict("A/B", MatchDefault)
	if a == nil || b == nil {
		t.Fatal("scope tree incomplete")
	}
	return r, a, b
}

func TestSearchScoped(t *testing.T) {
	r, a, b := scopeTree(t)

	tests := []struct {
		from    *Dictionary
		keyword string
		want    string
	}{
		{b, "x", "B"},
		{b, ".x", "B"},
		{b, "..x", "A"},
		{b, "...x", "R"},
		{b, "^x", "R"},
		{b, ":x", "R"},
		{b, "^A.B.x", "B"},
		{b, ":A.x", "A"},
		{r, "A.x", "A"},
		{r, "A.B.x", "B"},
		{r, "A..x", "R"},
		{a, "B..x", "A"},
		{r, "a.b", "dotted"},
		{b, "/A/B/x", "B"},
		{b, "/x", "R"},
		{b, "../x", "A"},
		{b, "../../x", "R"},
		{b, "./x", "B"},
		{r, "//A//B/x", "B"},
		{a, "B/../x", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			s, err := tt.from.SearchScoped(tt.keyword, MatchDefault)
			if err != nil {
				t.Fatalf("SearchScoped(%q): %v", tt.keyword, err)
			}
			if !s.Found() {
				t.Fatalf("SearchScoped(%q) from %s: not found", tt.keyword, tt.from.Name())
			}
			if got := s.Entry().Value(); got != tt.want {
				t.Errorf("SearchScoped(%q) from %s = %s, want %s", tt.keyword, tt.from.Name(), got, tt.want)
			}
		})
	}
}

func TestSearchScopedMisses(t *testing.T) {
	r, _, b := scopeTree(t)

	for _, kw := range []string{"A.y", "A/y", "x/y", "A.B.C.x", "/A/missing/x"} {
		s, err := r.SearchScoped(kw, MatchDefault)
		if err != nil {
			t.Errorf("SearchScoped(%q): unexpected error %v", kw, err)
		}
		if s.Found() {
			t.Errorf("SearchScoped(%q) found %s", kw, s.Entry().Value())
		}
	}

	for _, kw := range []string{"....x", "../../../x"} {
		_, err := b.SearchScoped(kw, MatchDefault)
		if !errors.Is(err, ErrScope) {
			t.Errorf("SearchScoped(%q) error = %v, want ErrScope", kw, err)
		}
		if b.Found(kw, MatchDefault) {
			t.Errorf("Found(%q) should be false", kw)
		}
	}
}

func TestSearchScopedTrailingDots(t *testing.T) {
	r, a, b := scopeTree(t)

	tests := []struct {
		from    *Dictionary
		keyword string
		want    *Dictionary
	}{
		{r, "A/B/..", a},
		{r, "A/B/.", b},
		{b, "../", a},
		{a, "B/./", b},
	}
	for _, tt := range tests {
		s, err := tt.from.SearchScoped(tt.keyword, MatchDefault)
		if err != nil {
			t.Fatalf("SearchScoped(%q): %v", tt.keyword, err)
		}
		if s.Dict() != tt.want {
			t.Errorf("SearchScoped(%q) from %s = %+v, want %s", tt.keyword, tt.from.Name(), s.Entry(), tt.want.Name())
		}
		if s.Context() != tt.want.Parent() {
			t.Errorf("SearchScoped(%q) context is not the parent of %s", tt.keyword, tt.want.Name())
		}
	}

	// The top-level dictionary is not held by any entry.
	for _, kw := range []string{"/", "A/..", "/."} {
		if s, err := r.SearchScoped(kw, MatchDefault); err != nil || s.Found() {
			t.Errorf("SearchScoped(%q) = %+v, %v; want not found", kw, s.Entry(), err)
		}
	}
}

func TestSearchScopedWholeKeywordMatchesPattern(t *testing.T) {
	d := mustParse(t, `
a
{
    b nested;
}
".*" catchAll;
`)
	// The whole dotted keyword is searched first, patterns included.
	s, err := d.SearchScoped("a.b", MatchDefault)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Entry().Value(); got != "catchAll" {
		t.Errorf("a.b = %s, want catchAll", got)
	}

	s, err = d.SearchScoped("a.b", MatchLiteral)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Entry().Value(); got != "nested" {
		t.Errorf("a.b literal = %s, want nested", got)
	}

	// Slash paths only apply patterns to the last segment.
	if got := d.FindEntry("a/b", MatchDefault).Value(); got != "nested" {
		t.Errorf("a/b = %s, want nested", got)
	}
}

func TestSearchScopedRecursiveFirstComponent(t *testing.T) {
	_, _, b := scopeTree(t)

	// "A.x" from B: A is only visible by ascending.
	if b.Found("A.x", MatchDefault) {
		t.Error("A.x found without MatchRecursive")
	}
	s, err := b.SearchScoped("A.x", MatchDefault|MatchRecursive)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Found() || s.Entry().Value() != "A" {
		t.Errorf("A.x from B with recursion = %+v", s.Entry())
	}
}

func TestScopeHelpers(t *testing.T) {
	r, a, b := scopeTree(t)
	if b.TopDict() != r {
		t.Error("TopDict of B is not R")
	}
	if !r.IsTop() || b.IsTop() {
		t.Error("IsTop wrong")
	}
	if b.Parent() != a {
		t.Error("Parent of B is not A")
	}
	if b.Depth() != 2 {
		t.Errorf("Depth of B = %d, want 2", b.Depth())
	}
	if b.Name() != "test.A.B" {
		t.Errorf("Name of B = %q", b.Name())
	}
	if b.DictName() != "B" {
		t.Errorf("DictName of B = %q", b.DictName())
	}
}
