package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// HideReferences hides the reference designator of every footprint and
// returns how many were changed. Already hidden references are left alone.
func (b *Board) HideReferences() (int, error) {
	changed := 0
	for _, fp := range b.Footprints() {
		if txt, ok := referenceText(fp); ok {
			if !sexp.HasSymbol(txt, "hide") {
				if err := insertBefore(txt, kicadsexp.Sym("hide"), "effects"); err != nil {
					return changed, kerrors.New(kerrors.KindSchema, FootprintName(fp), err)
				}
				changed++
			}
			continue
		}

		// KiCad 8: (property "Reference" "R1" ... (hide yes) ...)
		prop, _, ok := sexp.FindProperty(fp, "Reference")
		if !ok {
			continue
		}
		if v, ok := prop.Value("hide"); ok && v.Value == "yes" {
			continue
		}
		hide := kicadsexp.NewList("hide", kicadsexp.Sym("yes"))
		if _, ok := prop.First("hide"); ok {
			prop.Upsert(hide)
		} else if err := insertBefore(prop, hide, "uuid", "effects"); err != nil {
			return changed, kerrors.New(kerrors.KindSchema, FootprintName(fp), err)
		}
		changed++
	}
	return changed, nil
}

// insertBefore inserts n before the first child keyed by one of keys, or
// at the end.
func insertBefore(l *kicadsexp.List, n kicadsexp.Sexp, keys ...string) error {
	for i, it := range l.Children() {
		c, ok := it.(*kicadsexp.List)
		if !ok {
			continue
		}
		for _, k := range keys {
			if c.Key == k {
				return l.InsertAt(i, n)
			}
		}
	}
	l.Push(n)
	return nil
}

// SetMinViaSize raises the diameter of every via smaller than minSize to minSize
// and returns how many vias were changed.
func (b *Board) SetMinViaSize(minSize float64) (int, error) {
	if minSize <= 0 {
		return 0, kerrors.Newf(kerrors.KindUsage, "min-via", "minimum via size must be positive, got %g", minSize)
	}

	changed := 0
	for i, via := range b.Vias() {
		size, err := via.Require("size")
		if err != nil {
			return changed, kerrors.New(kerrors.KindSchema, fmt.Sprintf("via[%d]", i), err)
		}
		v, err := sexp.GetFloat(size, 0)
		if err != nil {
			return changed, kerrors.New(kerrors.KindSchema, fmt.Sprintf("via[%d]", i), err)
		}
		if v < minSize {
			if err := size.SetAt(0, kicadsexp.Float(minSize)); err != nil {
				return changed, kerrors.New(kerrors.KindSchema, fmt.Sprintf("via[%d]", i), err)
			}
			changed++
		}
	}
	return changed, nil
}
