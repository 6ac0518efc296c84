package expand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestString(t *testing.T) {
	vars := Map{
		"present": "value",
		"empty":   "",
		"inner":   "a",
		"outera":  "nested",
		"self":    "$self",
		"path":    "/data",
	}

	tests := []struct {
		in   string
		opts Options
		want string
	}{
		{"${missing:-fallback}", Options{}, "fallback"},
		{"${present:-fallback}", Options{}, "value"},
		{"${present:+alt}", Options{}, "alt"},
		{"${missing:+alt}", Options{}, ""},
		{"${empty:-d}", Options{}, "d"},
		{"${empty:+alt}", Options{}, ""},
		{"plain text", Options{}, "plain text"},
		{"${unterminated", Options{}, "${unterminated"},
		{"$present and ${present}", Options{}, "value and value"},
		{"$present_x", Options{}, "$present_x"},
		{"$missing", Options{}, "$missing"},
		{"${missing}", Options{}, "${missing}"},
		{"$missing|${missing}", Options{AllowEmpty: true}, "|"},
		{"${empty}", Options{}, ""},
		{"${outer${inner}}", Options{}, "nested"},
		{"$self", Options{}, "$self"},
		{"$1abc", Options{}, "$1abc"},
		{"${}", Options{}, "${}"},
		{"cost 5$", Options{}, "cost 5$"},
		{"${missing:-${present}}", Options{}, "value"},
		{"${missing:-$path/x}", Options{}, "/data/x"},
		{"$path/file", Options{}, "/data/file"},
		{"@present $present", Options{Sigil: '@'}, "value $present"},
	}
	for _, tt := range tests {
		if got := String(tt.in, vars, tt.opts); got != tt.want {
			t.Errorf("String(%q, %+v) = %q, want %q", tt.in, tt.opts, got, tt.want)
		}
	}
}

func TestStringIdempotent(t *testing.T) {
	vars := Map{"a": "1"}
	once := String("x=$a y=${a}", vars, Options{})
	if twice := String(once, vars, Options{}); twice != once {
		t.Errorf("second expansion changed %q to %q", once, twice)
	}
}

func TestStringNilResolver(t *testing.T) {
	if got := String("$a ${b:-c}", nil, Options{}); got != "$a c" {
		t.Errorf("got %q", got)
	}
}

func TestEnvAndChain(t *testing.T) {
	t.Setenv("EXPAND_TEST_HOME", "/home/test")
	r := Chain(Map{"case": "cavity"}, nil, Env())

	if got := String("$EXPAND_TEST_HOME/$case", r, Options{}); got != "/home/test/cavity" {
		t.Errorf("got %q", got)
	}
	// Earlier resolvers win.
	r = Chain(Map{"EXPAND_TEST_HOME": "/override"}, Env())
	if got := String("$EXPAND_TEST_HOME", r, Options{}); got != "/override" {
		t.Errorf("got %q", got)
	}
}

func TestNames(t *testing.T) {
	got := Names("$a ${b:-x} ${c} $ ${d", Options{})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}
