package schematic

import (
	"io"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Re-export common types from sexp package
type UUID = sexp.UUID
type Property = sexp.Property

// Schematic represents a complete KiCad schematic file. Root is the
// source of truth; edits go straight to the tree.
type Schematic struct {
	Root         *kicadsexp.List // (kicad_sch ...) root node
	Filename     string          // Source file
	Version      int             // File format version
	Generator    string          // Generator info (e.g., "eeschema")
	GeneratorVer string          // Generator version
	UUID         UUID            // Schematic UUID
}

// Sheet represents a hierarchical sheet reference
type Sheet struct {
	Node     *kicadsexp.List
	UUID     UUID   // Sheet UUID
	Name     string // Sheetname property
	FileName string // Sheetfile property
}

// Symbols returns the placed symbols. Library definitions live under
// (lib_symbols ...) and are not included.
func (s *Schematic) Symbols() []*kicadsexp.List {
	return s.Root.All("symbol")
}

// Sheets returns the sub-sheets placed on this schematic
func (s *Schematic) Sheets() []Sheet {
	nodes := s.Root.All("sheet")
	sheets := make([]Sheet, 0, len(nodes))
	for _, sn := range nodes {
		sheet := Sheet{Node: sn}
		sheet.UUID, _ = sexp.GetUUID(sn)
		for _, pn := range sn.All("property") {
			prop, err := sexp.GetProperty(pn)
			if err != nil {
				continue
			}
			switch prop.Key {
			case "Sheetname", "Sheet name":
				sheet.Name = prop.Value
			case "Sheetfile", "Sheet file":
				sheet.FileName = prop.Value
			}
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// SymbolReference returns the Reference property of a placed symbol
func SymbolReference(sym *kicadsexp.List) string {
	_, ref, _ := sexp.FindProperty(sym, "Reference")
	return ref
}

// GetAllReferences returns all reference designators
func (s *Schematic) GetAllReferences() []string {
	var refs []string
	for _, sym := range s.Symbols() {
		if ref := SymbolReference(sym); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// PurgeInstances removes the (instances ...) block of every symbol and
// sheet, returning the schematic to a state where it is not used as a
// sub-sheet anywhere. It returns the number of blocks removed.
func (s *Schematic) PurgeInstances() int {
	removed := 0
	for _, key := range []string{"symbol", "sheet"} {
		for _, n := range s.Root.All(key) {
			for _, inst := range n.All("instances") {
				n.Remove(inst)
				removed++
			}
		}
	}
	return removed
}

// Export writes the schematic with the given indentation unit.
func (s *Schematic) Export(w io.Writer, indent string) error {
	p := kicadsexp.Printer{Indent: indent}
	return p.Fprint(w, s.Root)
}
