package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/pcb"
)

const testBoard = `(kicad_pcb (version 20211014) (generator pcbnew)
  (net 0 "")
  (net 1 "GND")
  (footprint "R_0603" (layer "F.Cu")
    (fp_text reference "R1" (at 0 0) (layer "F.SilkS") (effects (font (size 1 1))))
    (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu") (net 1 "GND"))
  )
  (via (at 1 1) (size 0.4) (drill 0.2) (layers "F.Cu" "B.Cu") (net 1))
)
`

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"-l", "ERROR"}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHideRefsToStdout(t *testing.T) {
	in := writeFile(t, "board.kicad_pcb", testBoard)

	out, _, err := run(t, "hide-refs", "-f", in, "-o", "-")
	if err != nil {
		t.Fatalf("hide-refs unexpected error: %v", err)
	}

	b, err := pcb.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("hide-refs output does not parse: %v", err)
	}
	fp := b.Footprints()[0]
	txt, _ := fp.First("fp_text")
	if !strings.Contains(txt.String(), " hide ") {
		t.Errorf("reference not hidden: %s", txt)
	}

	// the input file is left alone
	data, _ := os.ReadFile(in)
	if string(data) != testBoard {
		t.Errorf("input file was modified")
	}
}

func TestMinViaToFile(t *testing.T) {
	in := writeFile(t, "board.kicad_pcb", testBoard)
	outPath := filepath.Join(t.TempDir(), "out.kicad_pcb")

	if _, _, err := run(t, "min-via", "-f", in, "-d", "0.6", "-o", outPath); err != nil {
		t.Fatalf("min-via unexpected error: %v", err)
	}

	b, err := pcb.ParseFile(outPath)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}
	size, _ := b.Vias()[0].Value("size")
	if size.Value != "0.6" {
		t.Errorf("via size = %s, want 0.6", size.Value)
	}
}

func TestUsageErrors(t *testing.T) {
	in := writeFile(t, "board.kicad_pcb", testBoard)

	tests := []struct {
		name string
		args []string
	}{
		{"merge without mergee", []string{"merge", "-b", in}},
		{"min-via without diameter", []string{"min-via", "-f", in, "-d", "0", "-o", "-"}},
		{"unknown flag", []string{"hide-refs", "--bogus"}},
		{"extra argument", []string{"sheets", "-f", in, "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if !kerrors.Is(err, kerrors.KindUsage) {
				t.Fatalf("error = %v, want usage error", err)
			}
			if exitCode(err) != 2 {
				t.Errorf("exitCode() = %d, want 2", exitCode(err))
			}
			if out != "" {
				t.Errorf("nothing should be written on usage errors, got %q", out)
			}
		})
	}
}

func TestParseErrorExitCode(t *testing.T) {
	in := writeFile(t, "board.kicad_pcb", "(kicad_pcb (version 20211014)")
	_, _, err := run(t, "hide-refs", "-f", in, "-o", "-")
	if err == nil {
		t.Fatal("expected error for unbalanced input")
	}
	if exitCode(err) != 1 {
		t.Errorf("exitCode() = %d, want 1", exitCode(err))
	}
}

func TestNets(t *testing.T) {
	in := writeFile(t, "board.kicad_pcb", testBoard)

	out, _, err := run(t, "nets", "-f", in)
	if err != nil {
		t.Fatalf("nets unexpected error: %v", err)
	}
	if !strings.Contains(out, "GND") || !strings.Contains(out, "2 nets") {
		t.Errorf("nets output:\n%s", out)
	}

	out, _, err = run(t, "nets", "-f", in, "GND")
	if err != nil {
		t.Fatalf("nets GND unexpected error: %v", err)
	}
	if !strings.Contains(out, "net GND (number 1)") {
		t.Errorf("nets GND output:\n%s", out)
	}

	if _, _, err := run(t, "nets", "-f", in, "VCC"); err == nil {
		t.Errorf("nets VCC: expected not found error")
	}
}

func TestSheets(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.kicad_sch": `(kicad_sch (version 20230121) (generator eeschema) (uuid "m-root")
  (symbol (lib_id "Device:R") (uuid "r2") (property "Reference" "R2" (at 0 0 0)))
  (symbol (lib_id "Device:R") (uuid "r1") (property "Reference" "R1" (at 0 0 0)))
  (sheet (at 0 0) (size 10 10) (uuid "s-a")
    (property "Sheetname" "SubA" (at 0 0 0))
    (property "Sheetfile" "sub.kicad_sch" (at 0 0 0))
  )
)`,
		"sub.kicad_sch": `(kicad_sch (version 20230121) (generator eeschema) (uuid "sub-root")
  (symbol (lib_id "Device:C") (uuid "c1") (property "Reference" "C1" (at 0 0 0)))
)`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := run(t, "sheets", "-f", filepath.Join(dir, "main.kicad_sch"))
	if err != nil {
		t.Fatalf("sheets unexpected error: %v", err)
	}
	for _, want := range []string{"main.kicad_sch: R1, R2", "sub.kicad_sch: C1"} {
		if !strings.Contains(out, want) {
			t.Errorf("sheets output missing %q:\n%s", want, out)
		}
	}
}
