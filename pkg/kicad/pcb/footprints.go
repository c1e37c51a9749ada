package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// FootprintReference returns the reference designator of a footprint.
// KiCad 5-7 store it as (fp_text reference "R1" ...), KiCad 8 and later as
// (property "Reference" "R1" ...).
func FootprintReference(fp *kicadsexp.List) (string, bool) {
	if txt, ok := referenceText(fp); ok {
		if ref, err := sexp.GetString(txt, 1); err == nil {
			return ref, true
		}
	}
	if _, ref, ok := sexp.FindProperty(fp, "Reference"); ok {
		return ref, true
	}
	return "", false
}

// referenceText returns the (fp_text reference ...) child of a footprint.
func referenceText(fp *kicadsexp.List) (*kicadsexp.List, bool) {
	for _, txt := range fp.All("fp_text") {
		if kind, err := sexp.GetString(txt, 0); err == nil && kind == "reference" {
			return txt, true
		}
	}
	return nil, false
}

// FootprintName returns the library identifier, e.g. "Resistor_SMD:R_0603".
func FootprintName(fp *kicadsexp.List) string {
	name, _ := sexp.GetString(fp, 0)
	return name
}

// FootprintPath returns the first (path ...) of a footprint, the link back
// to its schematic symbol.
func FootprintPath(fp *kicadsexp.List) (string, bool) {
	node, ok := fp.First("path")
	if !ok {
		return "", false
	}
	p, err := sexp.GetString(node, 0)
	if err != nil {
		return "", false
	}
	return p, true
}

// FindFootprint returns the first footprint whose reference matches ref.
func (b *Board) FindFootprint(ref string) (*kicadsexp.List, bool) {
	for _, fp := range b.Footprints() {
		if r, ok := FootprintReference(fp); ok && r == ref {
			return fp, true
		}
	}
	return nil, false
}

// netNumber reads N from the (net N ...) child of a net-bearing node.
func netNumber(n *kicadsexp.List) (int, error) {
	node, err := n.Require("net")
	if err != nil {
		return 0, err
	}
	return sexp.GetInt(node, 0)
}

// setNetNumber rewrites the (net N ...) child of n through m.
func setNetNumber(n *kicadsexp.List, m map[int]int) error {
	node, err := n.Require("net")
	if err != nil {
		return err
	}
	old, err := sexp.GetInt(node, 0)
	if err != nil {
		return err
	}
	num, ok := m[old]
	if !ok {
		return fmt.Errorf("net %d has no mapping", old)
	}
	return node.SetAt(0, kicadsexp.Int(num))
}

// renameAtom replaces the atom at position i of l, keeping its quoting.
func renameAtom(l *kicadsexp.List, i int, value string) error {
	a, ok := l.AtomAt(i)
	if !ok {
		return fmt.Errorf("(%s) has no value at position %d", l.Key, i)
	}
	a.Value = value
	return l.SetAt(i, a)
}
