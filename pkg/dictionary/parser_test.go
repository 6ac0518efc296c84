package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fvSolution = `/*--------------------------------*- C++ -*----------------------------------*\
  fvSolution
\*---------------------------------------------------------------------------*/
FoamFile
{
    version     2.0;
    format      ascii;
    class       dictionary;
    object      fvSolution;
}

solvers
{
    p
    {
        solver          PCG;
        preconditioner  DIC;
        tolerance       1e-06;
        relTol          0.05;
    }

    "(U|k|epsilon)"
    {
        solver          smoothSolver;
        smoother        symGaussSeidel;
        tolerance       1e-05;
        relTol          0;
    }
}

PISO
{
    nCorrectors     2;
    pRefCell        0;
    pRefValue       0;
}

relaxationFactors
{
    equations
    {
        ".*"            1;
    }
}
`

// mustParse parses text with default options and fails the test on error.
func mustParse(t *testing.T, text string) *Dictionary {
	t.Helper()
	d, err := Parse("test", text, ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestParse(t *testing.T) {
	d := mustParse(t, fvSolution)

	if diff := cmp.Diff([]string{"FoamFile", "solvers", "PISO", "relaxationFactors"}, d.Keys()); diff != "" {
		t.Errorf("top-level keys (-want +got):\n%s", diff)
	}

	solver, err := Get[string](d, "solvers.p.solver", MatchDefault)
	if err != nil {
		t.Fatalf("solvers.p.solver: %v", err)
	}
	if solver != "PCG" {
		t.Errorf("solvers.p.solver = %q, want PCG", solver)
	}

	k, err := d.SubDict("solvers/k", MatchDefault)
	if err != nil {
		t.Fatalf("solvers/k: %v", err)
	}
	if k.Name() != "test.solvers.(U|k|epsilon)" {
		t.Errorf("pattern dictionary name = %q", k.Name())
	}
	tol, err := Get[float64](k, "tolerance", MatchDefault)
	if err != nil {
		t.Fatalf("tolerance: %v", err)
	}
	if tol != 1e-05 {
		t.Errorf("tolerance = %g, want 1e-05", tol)
	}

	if got := GetOrDefault[float64](d, "relaxationFactors.equations.U", 0, MatchDefault); got != 1 {
		t.Errorf("relaxation for U = %g, want 1", got)
	}
	if got := GetOrDefault[int](d, "PISO.nCorrectors", 0, MatchDefault); got != 2 {
		t.Errorf("nCorrectors = %d, want 2", got)
	}
}

func TestParseLineNumbers(t *testing.T) {
	d := mustParse(t, "a 1;\n\nb\n{\n    c 2;\n}\n")
	if e := d.FindEntry("a", MatchDefault); e.Line() != 1 {
		t.Errorf("a on line %d, want 1", e.Line())
	}
	b := d.FindEntry("b", MatchDefault)
	if b.Line() != 3 {
		t.Errorf("b on line %d, want 3", b.Line())
	}
	sub, _ := b.Dict()
	if sub.Line() != 4 {
		t.Errorf("b dictionary on line %d, want 4", sub.Line())
	}
	if c := sub.FindEntry("c", MatchDefault); c.Line() != 5 {
		t.Errorf("c on line %d, want 5", c.Line())
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"fvSolution": fvSolution,
		"lists":      "points 3((0 0 0) (1 0 0) (1 1 0));\nfaces ( [0 1] [1 2] );\n",
		"strings":    "name \"with \\\"escapes\\\" and\\nnewline\";\n",
		"odd keys":   "\"-x\" 1;\n\"2nd\" 2;\n\"a b\" 3;\n",
		"empty":      "flag;\nsub\n{\n}\n",
		"variables":  "a 1;\nb $a;\n$a;\nc ${a:-2};\n",
		"verbatim":   "code #{\n    return 1;\n#};\n",
		"words":      "div(phi,U) Gauss limitedLinear 1;\nlaplacian((1|A(U)),p) Gauss linear corrected;\n",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			d := mustParse(t, input)
			text := d.String()
			back, err := Parse("back", text, ParseOptions{})
			if err != nil {
				t.Fatalf("re-parse: %v\n%s", err, text)
			}
			if !d.Equal(back) {
				t.Errorf("round trip changed dictionary:\nfirst:\n%s\nsecond:\n%s", text, back.String())
			}
		})
	}
}

func TestWriteFormat(t *testing.T) {
	d := mustParse(t, `a 1; b { c "x y"; "d.*" on; } verylongkeywordname 2;`)
	want := `a               1;

b
{
    c               "x y";
    "d.*"           on;
}
verylongkeywordname 2;
`
	if diff := cmp.Diff(want, d.String()); diff != "" {
		t.Errorf("String() (-want +got):\n%s", diff)
	}
}

func TestParseInputModes(t *testing.T) {
	input := "a 1;\na 2;\nd { x 1; }\nd { y 2; }\n"
	tests := []struct {
		mode  InputMode
		a     int
		dKeys []string
	}{
		{InputMerge, 2, []string{"x", "y"}},
		{InputOverwrite, 2, []string{"y"}},
		{InputProtect, 1, []string{"x"}},
		{InputWarn, 1, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			d, err := Parse("test", input, ParseOptions{InputMode: tt.mode})
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if a, _ := Get[int](d, "a", MatchDefault); a != tt.a {
				t.Errorf("a = %d, want %d", a, tt.a)
			}
			sub, err := d.SubDict("d", MatchDefault)
			if err != nil {
				t.Fatalf("d: %v", err)
			}
			if diff := cmp.Diff(tt.dKeys, sub.Keys()); diff != "" {
				t.Errorf("d keys (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"a", "d"}, d.Keys()); diff != "" {
				t.Errorf("top keys (-want +got):\n%s", diff)
			}
		})
	}

	_, err := Parse("test", input, ParseOptions{InputMode: InputError})
	if err == nil {
		t.Fatal("InputError: expected duplicate keyword error")
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("InputError: %v is not ErrParse", err)
	}
	if !strings.Contains(err.Error(), "test:2:1") {
		t.Errorf("InputError: error %q lacks position", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   string
	}{
		{"missing semicolon", "a 1", "test:1:1"},
		{"missing brace", "a\n{\n b 1;\n", "test:4:1"},
		{"extra brace", "a 1;\n}\n", "test:2:1"},
		{"directive", "#include \"other\"\na 1;\n", "test:1:1"},
		{"brace in value", "a 1 { b 2; };\n", "test:1:5"},
		{"invalid pattern", "\"(a\" 1;\n", "test:1:1"},
		{"unbalanced list", "a (1 2];\n", "test:1:7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test", tt.input, ParseOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("%v is not ErrParse", err)
			}
			if !strings.Contains(err.Error(), tt.pos) {
				t.Errorf("error %q does not contain %q", err, tt.pos)
			}
		})
	}
}

func TestParseRecoversAfterDirective(t *testing.T) {
	d, err := Parse("test", "#include \"other\"\na 1;\n#remove b\nc 2;\n", ParseOptions{})
	if err == nil {
		t.Fatal("expected directive errors")
	}
	_, errs := NewParser("test", "#include \"other\"\na 1;\n#remove b\nc 2;\n", ParseOptions{}).Parse()
	if len(errs) != 2 {
		t.Errorf("got %d errors, want 2", len(errs))
	}
	if diff := cmp.Diff([]string{"a", "c"}, d.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controlDict")
	if err := os.WriteFile(path, []byte("application icoFoam;\nendTime 0.5;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := ReadFile(path, ParseOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if d.Name() != path {
		t.Errorf("Name() = %q, want %q", d.Name(), path)
	}
	if d.DictName() != "controlDict" {
		t.Errorf("DictName() = %q", d.DictName())
	}
	if app, _ := Get[string](d, "application", MatchDefault); app != "icoFoam" {
		t.Errorf("application = %q", app)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing"), ParseOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseModeNames(t *testing.T) {
	for _, m := range []InputMode{InputMerge, InputOverwrite, InputProtect, InputWarn, InputError} {
		got, err := ParseInputMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseInputMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseInputMode("bogus"); err == nil {
		t.Error("expected error for bogus mode")
	}
}
