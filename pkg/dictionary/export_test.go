package dictionary

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v2"
)

func TestDigestStable(t *testing.T) {
	a := mustParse(t, "a 1;\nsub { b (1 2); }\n")
	b := mustParse(t, "// comment\na   1 ;\nsub\n{\n    b   ( 1 2 ) ;\n}\n")
	c := mustParse(t, "a 2;\nsub { b (1 2); }\n")

	if a.Digest() != b.Digest() {
		t.Error("equal dictionaries have different digests")
	}
	if a.Digest() == c.Digest() {
		t.Error("different dictionaries share a digest")
	}
	if n := len(a.Digest()); n != 64 {
		t.Errorf("digest length %d, want 64 hex characters", n)
	}
	if a.Clone(nil).Digest() != a.Digest() {
		t.Error("clone has a different digest")
	}

	ea := a.FindEntry("sub", MatchDefault)
	eb := b.FindEntry("sub", MatchDefault)
	if EntryDigest(ea) != EntryDigest(eb) {
		t.Error("equal entries have different digests")
	}
}

func TestFlatten(t *testing.T) {
	d := mustParse(t, "a 1; b { c 2; d { e x; } } f (1 2);")
	want := []FlatEntry{
		{Path: "a", Value: "1"},
		{Path: "b/c", Value: "2"},
		{Path: "b/d/e", Value: "x"},
		{Path: "f", Value: "(1 2)"},
	}
	got := d.Flatten()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten (-want +got):\n%s", diff)
	}
	for _, fe := range got {
		e := d.FindEntry(fe.Path, MatchDefault)
		if e == nil || e.Value() != fe.Value {
			t.Errorf("flattened path %q does not resolve to %q", fe.Path, fe.Value)
		}
	}
}

func TestToJSON(t *testing.T) {
	d := mustParse(t, `z 1; a { c 2.5; d (1 2); e "s"; f a b; } g;`)
	got, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":1,"a":{"c":2.5,"d":[1,2],"e":"s","f":"a b"},"g":null}`
	if string(got) != want {
		t.Errorf("MarshalJSON = %s\nwant %s", got, want)
	}

	indented, err := d.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	if err := json.Unmarshal(indented, &v); err != nil {
		t.Fatalf("ToJSON output is not valid JSON: %v", err)
	}
	if strings.Index(string(indented), `"z"`) > strings.Index(string(indented), `"a"`) {
		t.Error("ToJSON lost entry order")
	}
}

func TestToYAML(t *testing.T) {
	d := mustParse(t, `z 1; a { c 2.5; e "s"; }`)
	out, err := d.ToYAML()
	if err != nil {
		t.Fatal(err)
	}
	var back yaml.MapSlice
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("ToYAML output does not parse: %v\n%s", err, out)
	}
	if len(back) != 2 || back[0].Key != "z" || back[1].Key != "a" {
		t.Errorf("ToYAML order lost:\n%s", out)
	}
	if !strings.Contains(string(out), "c: 2.5") {
		t.Errorf("ToYAML missing nested value:\n%s", out)
	}
}

func TestToTree(t *testing.T) {
	d := mustParse(t, `a 1; b { c 2; "(x|y)" z; } flag;`)
	got := d.ToTree()
	if !strings.HasPrefix(got, "test\n") {
		t.Errorf("tree does not start with the dictionary name:\n%s", got)
	}
	for _, want := range []string{"── a 1\n", "── b\n", "── c 2\n", `── "(x|y)" z` + "\n", "── flag\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("tree missing %q:\n%s", want, got)
		}
	}
}

func TestSuggest(t *testing.T) {
	d := mustParse(t, `
startTime 0; endTime 1; deltaT 0.1;
solvers { p { solver PCG; tolerance 1e-6; } "(U|k)" { solver smooth; } }
`)
	tests := []struct {
		keyword string
		want    []string
	}{
		{"endtime", []string{"endTime"}},
		{"deltaX", []string{"deltaT"}},
		{"solvers/p/solvr", []string{"solvers/p/solver"}},
		{"solvers.p.tolerence", []string{"solvers.p.tolerance"}},
		{"solvers/q", []string{"solvers/p"}},
		{"nothingLikeIt", nil},
		{"missing/solver", nil},
	}
	for _, tt := range tests {
		got := d.Suggest(tt.keyword, 3)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Suggest(%q) (-want +got):\n%s", tt.keyword, diff)
		}
	}
}
