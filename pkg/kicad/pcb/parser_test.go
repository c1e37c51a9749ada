package pcb

import (
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

const sampleBoard = `(kicad_pcb (version 20211014) (generator pcbnew)
  (net 0 "")
  (net 1 "GND")
  (net 2 "/SDA")
  (net_class "Default" "This is the default net class."
    (clearance 0.2)
    (trace_width 0.25)
    (add_net "GND")
    (add_net "/SDA")
  )
  (footprint "Resistor_SMD:R_0603" (layer "F.Cu")
    (path "/5f1a/r1")
    (fp_text reference "R1" (at 0 0) (layer "F.SilkS") (effects (font (size 1 1))))
    (pad "1" smd rect (at 0 0) (size 1 1) (layers "F.Cu") (net 1 "GND"))
    (pad "2" smd rect (at 1 0) (size 1 1) (layers "F.Cu") (net 2 "/SDA"))
    (pad "3" smd rect (at 2 0) (size 1 1) (layers "F.Cu"))
  )
  (gr_line (start 0 0) (end 10 0) (layer "Edge.Cuts") (width 0.1))
  (segment (start 0 0) (end 1 0) (width 0.25) (layer "F.Cu") (net 1))
  (via (at 1 1) (size 0.4) (drill 0.3) (layers "F.Cu" "B.Cu") (net 2))
  (via (at 2 2) (size 0.8) (drill 0.4) (layers "F.Cu" "B.Cu") (net 1))
  (zone (net 1) (net_name "GND") (layer "F.Cu"))
)
`

func mustParse(t *testing.T, input string) *Board {
	t.Helper()
	b, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	return b
}

// Test parseHeader function
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantGen     string
		wantErr     bool
	}{
		{
			name:        "valid KiCad 6.0 with generator",
			input:       "(kicad_pcb (version 20211014) (generator pcbnew))",
			wantVersion: 20211014,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 5 with host",
			input:       "(kicad_pcb (version 20171130) (host pcbnew \"(5.1.9)\"))",
			wantVersion: 20171130,
			wantGen:     "pcbnew",
		},
		{
			name:        "no generator (should default to unknown)",
			input:       "(kicad_pcb (version 20211014))",
			wantVersion: 20211014,
			wantGen:     "unknown",
		},
		{
			name:    "missing version",
			input:   "(kicad_pcb (generator pcbnew))",
			wantErr: true,
		},
		{
			name:    "version is not a number",
			input:   "(kicad_pcb (version latest))",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sexps, err := kicadsexp.ParseString(tt.input)
			if err != nil {
				t.Fatalf("Failed to parse s-expression: %v", err)
			}

			version, gen, err := parseHeader(sexps[0].(*kicadsexp.List))

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseHeader() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHeader() unexpected error: %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("parseHeader() version = %d, want %d", version, tt.wantVersion)
			}
			if gen != tt.wantGen {
				t.Errorf("parseHeader() generator = %q, want %q", gen, tt.wantGen)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantKind     kerrors.Kind
		wantProblems int
	}{
		{
			name:     "not a board",
			input:    "(kicad_sch (version 20211123))",
			wantKind: kerrors.KindSchema,
		},
		{
			name:     "unbalanced",
			input:    "(kicad_pcb (version 20211014)",
			wantKind: kerrors.KindSyntax,
		},
		{
			name:         "gap in net table",
			input:        `(kicad_pcb (version 20211014) (net 0 "") (net 2 "GND"))`,
			wantKind:     kerrors.KindIntegrity,
			wantProblems: 1,
		},
		{
			name:         "duplicate net names are all reported",
			input:        `(kicad_pcb (version 20211014) (net 0 "") (net 1 "GND") (net 2 "GND") (net 3 "A") (net 4 "A"))`,
			wantKind:     kerrors.KindIntegrity,
			wantProblems: 2,
		},
		{
			name:     "net number is not a number",
			input:    `(kicad_pcb (version 20211014) (net zero ""))`,
			wantKind: kerrors.KindSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !kerrors.Is(err, tt.wantKind) {
				t.Errorf("Parse() error = %v, want kind %q", err, tt.wantKind)
			}
			if tt.wantProblems > 0 {
				if got := len(kerrors.ProblemsOf(err)); got != tt.wantProblems {
					t.Errorf("Parse() problems = %d, want %d: %v", got, tt.wantProblems, err)
				}
			}
		})
	}
}

func TestParseBoard(t *testing.T) {
	b := mustParse(t, sampleBoard)

	if b.Version != 20211014 {
		t.Errorf("Version = %d, want 20211014", b.Version)
	}
	if got := b.GetAllNetNames(); strings.Join(got, ",") != ",GND,/SDA" {
		t.Errorf("GetAllNetNames() = %q", got)
	}
	if n := len(b.Footprints()); n != 1 {
		t.Errorf("Footprints() = %d, want 1", n)
	}
	if n := len(b.Pads()); n != 2 {
		t.Errorf("Pads() = %d, want 2 (pads without a net are skipped)", n)
	}
	if n := len(b.Tracks()); n != 1 {
		t.Errorf("Tracks() = %d, want 1", n)
	}
	if n := len(b.Vias()); n != 2 {
		t.Errorf("Vias() = %d, want 2", n)
	}
	if n := len(b.Zones()); n != 1 {
		t.Errorf("Zones() = %d, want 1", n)
	}
	if n := len(b.Graphics()); n != 1 {
		t.Errorf("Graphics() = %d, want 1", n)
	}
}

func TestParseKiCad5Modules(t *testing.T) {
	input := `(kicad_pcb (version 20171130) (host pcbnew "(5.1.9)")
  (net 0 "")
  (net 1 GND)
  (module R_0603 (layer F.Cu)
    (path /5C8F/5C90)
    (fp_text reference R7 (at 0 0) (layer F.SilkS))
    (pad 1 smd rect (at 0 0) (size 1 1) (layers F.Cu) (net 1 GND))
    (zone (net 1) (net_name GND) (layer F.Cu))
  )
)`
	b := mustParse(t, input)

	fp, ok := b.FindFootprint("R7")
	if !ok {
		t.Fatal("FindFootprint(R7) not found")
	}
	if p, _ := FootprintPath(fp); p != "/5C8F/5C90" {
		t.Errorf("FootprintPath() = %q", p)
	}
	if n := len(b.Zones()); n != 1 {
		t.Errorf("Zones() = %d, want footprint zone to be included", n)
	}
	if err := b.Verify(); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}
}

// Test NetMap utilities
func TestNetMap(t *testing.T) {
	b := mustParse(t, sampleBoard)
	nm := b.Nets()

	t.Run("GetByName", func(t *testing.T) {
		e, ok := nm.GetByName("GND")
		if !ok {
			t.Fatalf("GetByName(\"GND\") not found")
		}
		if e.Number != 1 {
			t.Errorf("GetByName(\"GND\") number = %d, want 1", e.Number)
		}

		// The unconnected net is indexed like any other
		if _, ok := nm.GetByName(UnconnectedNet); !ok {
			t.Errorf("GetByName(\"\") not found")
		}
		if _, ok := nm.GetByName("NonExistent"); ok {
			t.Errorf("GetByName(\"NonExistent\") should not be found")
		}
	})

	t.Run("GetByNumber", func(t *testing.T) {
		e, ok := nm.GetByNumber(2)
		if !ok {
			t.Fatalf("GetByNumber(2) not found")
		}
		if e.Name != "/SDA" {
			t.Errorf("GetByNumber(2) name = %q, want \"/SDA\"", e.Name)
		}
		if _, ok := nm.GetByNumber(999); ok {
			t.Errorf("GetByNumber(999) should not be found")
		}
	})
}

func TestExportRoundTrip(t *testing.T) {
	b := mustParse(t, sampleBoard)

	var first strings.Builder
	if err := b.Export(&first, "  "); err != nil {
		t.Fatalf("Export() unexpected error: %v", err)
	}

	again := mustParse(t, first.String())
	if !kicadsexp.Equal(b.Root, again.Root) {
		t.Errorf("exported board does not parse back to the same tree")
	}

	var second strings.Builder
	if err := again.Export(&second, "  "); err != nil {
		t.Fatalf("Export() unexpected error: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("export is not stable:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestGetNetInfo(t *testing.T) {
	b := mustParse(t, sampleBoard)
	infos := b.GetNetInfo()
	if len(infos) != 3 {
		t.Fatalf("GetNetInfo() = %d entries, want 3", len(infos))
	}

	gnd := infos[1]
	if gnd.Net.Name != "GND" || gnd.Class != "Default" {
		t.Errorf("GND info = %+v", gnd)
	}
	if gnd.Pads != 1 || gnd.Tracks != 1 || gnd.Vias != 1 || gnd.Zones != 1 {
		t.Errorf("GND counts = %+v, want 1 of each", gnd)
	}
	if sda := infos[2]; sda.Pads != 1 || sda.Vias != 1 || sda.Tracks != 0 {
		t.Errorf("/SDA counts = %+v", sda)
	}
}
