package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const controlDict = `
application     icoFoam;
startTime       0;
endTime         0.5;
writeInterval   $endTime;
solvers
{
    p { solver PCG; tolerance 1e-06; }
    "(U|k)" { solver smoothSolver; }
}
`

const patchDict = `
endTime 1;
deltaT 0.005;
`

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	color.NoColor = true
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "controlDict", controlDict)
	patch := writeFile(t, dir, "patch", patchDict)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"get primitive", []string{"get", base, "application"}, "icoFoam\n"},
		{"get expanded", []string{"get", base, "writeInterval"}, "0.5\n"},
		{"get unexpanded", []string{"get", "-expand=false", base, "writeInterval"}, "$endTime\n"},
		{"get dot scoped", []string{"get", base, "solvers.p.solver"}, "PCG\n"},
		{"get through pattern", []string{"get", base, "solvers.U.solver"}, "smoothSolver\n"},
		{"get dictionary", []string{"get", base, "solvers/p"}, "solver          PCG;\ntolerance       1e-06;\n"},
		{"expand", []string{"expand", base, "run", "to", "$endTime"}, "run to 0.5\n"},
		{"expand default", []string{"expand", base, "${missing:-none}"}, "none\n"},
		{"expand keeps unresolved", []string{"expand", base, "$missing"}, "$missing\n"},
		{"expand allow empty", []string{"expand", "-allow-empty", base, "[$missing]"}, "[]\n"},
		{"flatten merge warn", []string{"flatten", "-expand=false", patch, base},
			"endTime 1\ndeltaT 0.005\napplication icoFoam\nstartTime 0\nwriteInterval $endTime\n" +
				"solvers/p/solver PCG\nsolvers/p/tolerance 1e-06\nsolvers/(U|k)/solver smoothSolver\n"},
		{"merge overwrite", []string{"merge", "-policy", "overwrite", patch, writeFile(t, dir, "second", "endTime 2;\n")},
			"endTime         2;\ndeltaT          0.005;\n"},
		{"diff", []string{"diff", patch, writeFile(t, dir, "changed", "endTime 1;\ndeltaT 0.01;\n")},
			"- deltaT 0.005\n+ deltaT 0.01\n"},
		{"diff same", []string{"diff", patch, patch}, "[no changes]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, code := runCmd(t, tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("output =\n%q\nwant\n%q", out, tt.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "controlDict", controlDict)

	formatted, errOut, code := runCmd(t, "format", base)
	if code != 0 {
		t.Fatalf("format: %s", errOut)
	}
	again := writeFile(t, dir, "formatted", formatted)
	second, _, _ := runCmd(t, "format", again)
	if second != formatted {
		t.Errorf("format is not stable:\n%s\n---\n%s", formatted, second)
	}

	d1, _, _ := runCmd(t, "digest", base)
	d2, _, _ := runCmd(t, "digest", again)
	if d1 != d2 || len(strings.TrimSpace(d1)) != 64 {
		t.Errorf("digests %q and %q", d1, d2)
	}

	e1, _, _ := runCmd(t, "digest", base, "solvers")
	if e1 == d1 || len(strings.TrimSpace(e1)) != 64 {
		t.Errorf("entry digest %q", e1)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "controlDict", controlDict)

	out, errOut, code := runCmd(t, "export", base)
	if code != 0 {
		t.Fatalf("export: %s", errOut)
	}
	if !strings.Contains(out, `"application": "icoFoam"`) || !strings.Contains(out, `"endTime": 0.5`) {
		t.Errorf("json export:\n%s", out)
	}

	out, _, _ = runCmd(t, "export", "-format", "yaml", base)
	if !strings.Contains(out, "application: icoFoam") {
		t.Errorf("yaml export:\n%s", out)
	}

	path := filepath.Join(dir, "out.flat")
	if _, errOut, code := runCmd(t, "export", "-format", "flat", "-o", path, base); code != 0 {
		t.Fatalf("export -o: %s", errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "application icoFoam\n") {
		t.Errorf("flat export file:\n%s", data)
	}

	out, _, _ = runCmd(t, "export", "-format", "tree", base)
	if !strings.HasPrefix(out, base+"\n") || !strings.Contains(out, "── application icoFoam\n") {
		t.Errorf("tree export:\n%s", out)
	}

	if _, _, code := runCmd(t, "export", "-format", "xml", base); code != 1 {
		t.Errorf("xml export exit = %d, want 1", code)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "controlDict", controlDict)
	broken := writeFile(t, dir, "broken", "a 1;\nb { c 2;\n")

	tests := []struct {
		name    string
		args    []string
		code    int
		errText string
	}{
		{"no args", nil, 2, "usage:"},
		{"unknown command", []string{"frobnicate"}, 2, "unknown command"},
		{"missing args", []string{"get", base}, 2, "usage: foamdict get"},
		{"bad policy", []string{"merge", "-policy", "sometimes", base}, 2, "unknown merge policy"},
		{"bad input mode", []string{"format", "-input-mode", "loud", base}, 2, "unknown input mode"},
		{"missing keyword", []string{"get", base, "nothing"}, 1, "nothing"},
		{"suggestion", []string{"get", base, "endtme"}, 1, "did you mean endTime?"},
		{"literal only", []string{"get", "-patterns=false", base, "solvers.U.solver"}, 1, "foamdict get"},
		{"missing file", []string{"format", filepath.Join(dir, "absent")}, 1, "read dictionary"},
		{"parse error", []string{"format", broken}, 1, "foamdict format"},
		{"too many args", []string{"format", base, base}, 2, "usage: foamdict format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := runCmd(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.code, errOut)
			}
			if !strings.Contains(errOut, tt.errText) {
				t.Errorf("stderr %q missing %q", errOut, tt.errText)
			}
		})
	}
}
