package dictionary

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const expandInput = `
x 1;
name "cavity case";
vec (0 0 1);
sub
{
    y $x;
    z $..x;
    w ${x:-5};
    u ${missing:-7};
    n $name;
    q $unknown;
}
base
{
    a 1;
    b 2;
}
copy $base;
derived
{
    $base;
    b 3;
}
`

func TestReadTimeExpansion(t *testing.T) {
	logs := captureLogs(t)
	d, err := Parse("test", expandInput, ParseOptions{ExpandVariables: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		keyword string
		want    string
	}{
		{"sub.y", "1"},
		{"sub.z", "1"},
		{"sub.w", "1"},
		{"sub.u", "7"},
		{"sub.n", `"cavity case"`},
		{"sub.q", "$unknown"},
		{"copy.a", "1"},
		{"derived.a", "1"},
		{"derived.b", "3"},
	}
	for _, tt := range tests {
		s, err := d.Lookup(tt.keyword, MatchDefault)
		if err != nil {
			t.Errorf("Lookup(%q): %v", tt.keyword, err)
			continue
		}
		if got := s.String(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.keyword, got, tt.want)
		}
	}

	derived := d.FindDict("derived", MatchDefault)
	if diff := cmp.Diff([]string{"a", "b"}, derived.Keys()); diff != "" {
		t.Errorf("derived keys (-want +got):\n%s", diff)
	}
	copied := d.FindDict("copy", MatchDefault)
	if copied.Name() != "test.copy" || copied.Parent() != d {
		t.Errorf("copy scoped as %q", copied.Name())
	}
	if !strings.Contains(logs.String(), "$unknown") {
		t.Errorf("unresolved variable not logged:\n%s", logs)
	}
}

func TestReadWithoutExpansionKeepsVariables(t *testing.T) {
	d := mustParse(t, expandInput)
	if got, _ := d.Lookup("sub.y", MatchDefault); got.String() != "$x" {
		t.Errorf("sub.y = %s, want $x", got)
	}
	derived := d.FindDict("derived", MatchDefault)
	if diff := cmp.Diff([]string{"$base", "b"}, derived.Keys()); diff != "" {
		t.Errorf("derived keys (-want +got):\n%s", diff)
	}
}

func TestSubstituteKeyword(t *testing.T) {
	d := mustParse(t, expandInput)
	derived := d.FindDict("derived", MatchDefault)

	ok, err := derived.SubstituteKeyword("$base", false)
	if err != nil || !ok {
		t.Fatalf("SubstituteKeyword: %v %v", ok, err)
	}
	// The placeholder is replaced in position; b defined after it wins.
	if diff := cmp.Diff([]string{"a", "b"}, derived.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if got, _ := Get[int](derived, "b", MatchDefault); got != 3 {
		t.Errorf("b = %d, want 3", got)
	}
	if derived.Found("$base", MatchLiteral) {
		t.Error("placeholder still present")
	}
	// The source is untouched.
	if got, _ := Get[int](d, "base.b", MatchDefault); got != 2 {
		t.Errorf("base.b = %d, want 2", got)
	}
}

func TestSubstituteKeywordAppends(t *testing.T) {
	d := mustParse(t, "base { a 1; } target { c 3; }")
	target := d.FindDict("target", MatchDefault)
	if _, err := target.SubstituteKeyword("${..base}", false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "a"}, target.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestSubstituteKeywordErrors(t *testing.T) {
	d := mustParse(t, "x 1; s { }")
	s := d.FindDict("s", MatchDefault)

	if ok, err := s.SubstituteKeyword("plain", false); ok || err != nil {
		t.Errorf("non-variable keyword: %v %v", ok, err)
	}
	if _, err := s.SubstituteKeyword("$missing", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v, want ErrNotFound", err)
	}
	if _, err := s.SubstituteKeyword("$x", false); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("primitive: %v, want ErrTypeMismatch", err)
	}
}

func TestDictionaryExpand(t *testing.T) {
	d := mustParse(t, expandInput)
	sub := d.FindDict("sub", MatchDefault)
	t.Setenv("FOAMDICT_TEST_ROOT", "/cases")

	tests := []struct {
		in   string
		opts ExpandOptions
		want string
	}{
		{"x=$x", ExpandOptions{}, "x=1"},
		{"${..x}", ExpandOptions{}, "1"},
		{"$name/run", ExpandOptions{}, "cavity case/run"},
		{"${vec}", ExpandOptions{}, "(0 0 1)"},
		{"${base}", ExpandOptions{}, "${base}"},
		{"${base.a}", ExpandOptions{}, "1"},
		{"${missing:-none}", ExpandOptions{}, "none"},
		{"$missing", ExpandOptions{AllowEmpty: true}, ""},
		{"$FOAMDICT_TEST_ROOT/x", ExpandOptions{}, "$FOAMDICT_TEST_ROOT/x"},
		{"$FOAMDICT_TEST_ROOT/x", ExpandOptions{AllowEnv: true}, "/cases/x"},
		{"%x and $x", ExpandOptions{Sigil: '%'}, "1 and $x"},
	}
	for _, tt := range tests {
		if got := sub.Expand(tt.in, tt.opts); got != tt.want {
			t.Errorf("Expand(%q, %+v) = %q, want %q", tt.in, tt.opts, got, tt.want)
		}
	}
}

func TestVariableName(t *testing.T) {
	for in, want := range map[string]string{
		"$a":      "a",
		"${a}":    "a",
		"$..a.b":  "..a.b",
		"${:a.b}": ":a.b",
		"${a:-1}": "a:-1",
		"noSigil": "noSigil",
	} {
		if got := VariableName(in); got != want {
			t.Errorf("VariableName(%q) = %q, want %q", in, got, want)
		}
	}
}
