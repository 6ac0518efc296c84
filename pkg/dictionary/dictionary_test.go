package dictionary

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddRefusesOverwrite(t *testing.T) {
	d := New("test")
	if e, err := d.AddString("k", "1", false); err != nil || e == nil {
		t.Fatalf("first add: %v %v", e, err)
	}
	e, err := d.AddString("k", "2", false)
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Error("second add without merge should return nil")
	}
	if got, _ := Get[int](d, "k", MatchDefault); got != 1 {
		t.Errorf("k = %d after refused add, want 1", got)
	}

	d.AddString("after", "x", false)
	if _, err := d.SetString("k", "2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := Get[int](d, "k", MatchDefault); got != 2 {
		t.Errorf("k = %d after set, want 2", got)
	}
	if diff := cmp.Diff([]string{"k", "after"}, d.Keys()); diff != "" {
		t.Errorf("set moved the entry (-want +got):\n%s", diff)
	}
}

func TestAddMerge(t *testing.T) {
	d := mustParse(t, "k 1;\ns { a 1; }\nm 1;\n")

	d.AddString("k", "2 3", true)
	if got, _ := Get[[]int64](d, "k", MatchDefault); !cmp.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("merged primitive = %v, want [1 2 3]", got)
	}

	other := mustParse(t, "s { a 2; b 2; }")
	d.Add(other.FindEntry("s", MatchDefault), true)
	s := d.FindDict("s", MatchDefault)
	if diff := cmp.Diff([]string{"a", "b"}, s.Keys()); diff != "" {
		t.Errorf("merged dict keys (-want +got):\n%s", diff)
	}
	if got, _ := Get[[]int64](s, "a", MatchDefault); !cmp.Equal(got, []int64{1, 2}) {
		t.Errorf("s.a = %v, want [1 2]", got)
	}

	// Mixed kinds are replaced in place.
	d.Add(NewDictEntry(Literal("m"), New("")), true)
	if e := d.FindEntry("m", MatchDefault); !e.IsDict() {
		t.Error("m should now be a dictionary")
	}
	if diff := cmp.Diff([]string{"k", "s", "m"}, d.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestAddRejectsCycle(t *testing.T) {
	r := New("R")
	child := NewChild("c", r)
	r.Add(NewDictEntry(Literal("c"), child), false)

	if r.Add(NewDictEntry(Literal("self"), r), false) != nil {
		t.Error("adding a dictionary to itself should fail")
	}
	if child.Add(NewDictEntry(Literal("up"), r), false) != nil {
		t.Error("adding an ancestor should fail")
	}
	if child.Set(NewDictEntry(Literal("up"), r)) != nil {
		t.Error("setting an ancestor should fail")
	}
}

func TestRemove(t *testing.T) {
	d := New("test")
	d.AddString("a", "1", false)
	d.Add(NewStreamEntry(Pattern("f.*"), TokenStream{Label(2)}), false)
	d.AddString("b", "3", false)

	if !d.Found("foo", MatchPattern) {
		t.Fatal("pattern should match foo")
	}
	if !d.Remove("f.*") {
		t.Fatal("Remove(f.*) returned false")
	}
	if d.Found("foo", MatchPattern) {
		t.Error("pattern still matches after removal")
	}
	if len(d.Patterns()) != 0 {
		t.Errorf("Patterns() = %v after removal", d.Patterns())
	}
	if d.Remove("f.*") {
		t.Error("second Remove should return false")
	}
	if diff := cmp.Diff([]string{"a", "b"}, d.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}

	d.Clear()
	if d.Len() != 0 || d.Found("a", MatchDefault) {
		t.Error("Clear left entries behind")
	}
}

func TestSetReplacesPattern(t *testing.T) {
	d := New("test")
	d.Add(NewStreamEntry(Pattern("p.*"), TokenStream{Label(1)}), false)
	d.Set(NewStreamEntry(Pattern("p.*"), TokenStream{Label(2)}))

	if n := len(d.Patterns()); n != 1 {
		t.Fatalf("got %d patterns, want 1", n)
	}
	if got := d.Search("pq", MatchPattern).Entry().Value(); got != "2" {
		t.Errorf("pq = %s, want 2", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := mustParse(t, "a 1;\ns { b 2; \"p.*\" 3; }\n")
	c := d.Clone(nil)
	if !c.Equal(d) {
		t.Fatal("clone differs")
	}

	c.FindDict("s", MatchDefault).SetString("b", "9")
	if got, _ := Get[int](d, "s.b", MatchDefault); got != 2 {
		t.Errorf("original s.b = %d after changing clone", got)
	}
	cs := c.FindDict("s", MatchDefault)
	if cs.Parent() != c {
		t.Error("cloned sub-dictionary is scoped to the original")
	}
	if !cs.Found("pq", MatchPattern) {
		t.Error("cloned pattern does not match")
	}
}

func TestEntryAccessors(t *testing.T) {
	d := mustParse(t, "a 1 2;\ns { b x; }\n")

	a := d.FindEntry("a", MatchDefault)
	if !a.IsStream() || a.IsDict() {
		t.Error("a should be a stream entry")
	}
	if _, err := a.Dict(); err == nil {
		t.Error("Dict() on stream entry should fail")
	}
	if a.Owner() != d {
		t.Error("owner of a is not d")
	}

	s := d.FindEntry("s", MatchDefault)
	if _, err := s.Stream(); err == nil {
		t.Error("Stream() on dict entry should fail")
	}
	if got := s.Value(); got != "{ b x; }" {
		t.Errorf("Value() = %q", got)
	}
	if got := a.String(); got != "a               1 2;\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestWalk(t *testing.T) {
	d := mustParse(t, "a 1; s { b 2; t { c 3; } } d 4;")
	var paths []string
	d.Walk(func(path []string, e *Entry) bool {
		paths = append(paths, strings.Join(path, "/"))
		return e.Keyword().Name != "t"
	})
	want := []string{"a", "s", "s/b", "s/t", "d"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Walk (-want +got):\n%s", diff)
	}
}
