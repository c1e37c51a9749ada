package pcb

import (
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// GraphicKeys lists the board-level drawing primitives. They carry no net
// and are copied verbatim when boards are combined.
var GraphicKeys = []string{
	"gr_line",
	"gr_arc",
	"gr_circle",
	"gr_rect",
	"gr_poly",
	"gr_curve",
	"gr_text",
	"gr_text_box",
	"dimension",
	"target",
}

// Graphics returns the board-level drawing primitives in file order.
func (b *Board) Graphics() []*kicadsexp.List {
	keys := make(map[string]bool, len(GraphicKeys))
	for _, k := range GraphicKeys {
		keys[k] = true
	}

	var out []*kicadsexp.List
	for _, c := range b.Root.Children() {
		if l, ok := c.(*kicadsexp.List); ok && keys[l.Key] {
			out = append(out, l)
		}
	}
	return out
}

// Elements returns the top-level children keyed by key.
func (b *Board) Elements(key string) []*kicadsexp.List {
	return b.Root.All(key)
}
