package kicadsexp

import (
	"strings"
	"testing"
)

const sampleBoard = `(kicad_pcb (version 20211014) (generator pcbnew)
  (general (thickness 1.6))
  (layers (0 "F.Cu" signal) (31 "B.Cu" signal))
  (net 0 "")
  (net 1 "GND")
  (net 2 +5V)
  (net_class Default "This is the default net class."
    (clearance 0.2)
    (add_net "GND")
    (add_net +5V)
  )
  (footprint "Resistor_SMD:R_0603" (layer "F.Cu")
    (at 100 50 90)
    (fp_text reference "R1" (at 0 -1.5) (layer "F.SilkS") hide
      (effects (font (size 1 1) (thickness 0.15)))
    )
    (pad "1" smd rect (at -0.8 0) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (net 1 "GND"))
    (pad "2" smd rect (at 0.8 0) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (net 2 "+5V"))
  )
  (segment (start 1 2) (end 3 4) (width 0.25) (layer "F.Cu") (net 1) (tstamp 5e1b9d2a-0000-4000-8000-000000000001))
  (via (at 3 4) (size 0.6) (drill 0.3) (layers "F.Cu" "B.Cu") (net 1))
  (zone (net 1) (net_name "GND") (layer "F.Cu") (hatch edge 0.508)
    (polygon (pts (xy 0 0) (xy 10 0) (xy 10 10)))
  )
  (gr_text "Title \"quoted\"\nline" (at 0 0) (layer "F.SilkS"))
  ()
)
`

func TestRoundTrip(t *testing.T) {
	first, err := ParseString(sampleBoard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	printed := Print(first[0])
	second, err := ParseString(printed)
	if err != nil {
		t.Fatalf("re-parse of printed output failed: %v\n%s", err, printed)
	}

	if !Equal(first[0], second[0]) {
		t.Errorf("round trip changed the tree\nprinted:\n%s", printed)
	}

	// Printing is deterministic
	if again := Print(second[0]); again != printed {
		t.Errorf("second print differs from first")
	}
}

func TestPrintLayout(t *testing.T) {
	l := parseList(t, `(kicad_pcb (version 20211014) (net 0 "") (segment (start 1 2) (net 0)))`)

	want := `(kicad_pcb
  (version 20211014)
  (net 0 "")
  (segment
    (start 1 2)
    (net 0)
  )
)
`
	if got := Print(l); got != want {
		t.Errorf("Print() =\n%s\nwant\n%s", got, want)
	}
}

func TestPrintInlineAtomsBeforeLists(t *testing.T) {
	l := parseList(t, `(pad "1" smd rect (at 0 0) hide)`)

	got := (&Printer{Indent: "\t"}).sprint(t, l)
	want := "(pad \"1\" smd rect\n\t(at 0 0)\n\thide\n)\n"
	if got != want {
		t.Errorf("Print() = %q, want %q", got, want)
	}
}

func (p *Printer) sprint(t *testing.T, n Sexp) string {
	t.Helper()
	var b strings.Builder
	if err := p.Fprint(&b, n); err != nil {
		t.Fatalf("Fprint() unexpected error: %v", err)
	}
	return b.String()
}

func TestPrintQuoting(t *testing.T) {
	tests := []struct {
		name string
		atom Atom
		want string
	}{
		{"bare symbol", Sym("F.Cu"), "F.Cu"},
		{"symbol with space", Sym("two words"), `"two words"`},
		{"empty symbol", Sym(""), `""`},
		{"string always quoted", Str("GND"), `"GND"`},
		{"string escapes", Str("a\"b\\c\nd"), `"a\"b\\c\nd"`},
		{"number verbatim", Atom{Kind: KindNumber, Value: "1.000"}, "1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.atom.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRoundTripConstructedSymbolNeedingQuotes(t *testing.T) {
	l := NewList("net", Int(1), Sym("has space"))
	sexps, err := ParseString(Print(l))
	if err != nil {
		t.Fatal(err)
	}
	back := sexps[0].(*List)
	if a, _ := back.AtomAt(1); a.Value != "has space" {
		t.Errorf("value = %q, want %q", a.Value, "has space")
	}
}
