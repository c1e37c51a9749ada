package pcb

import (
	"fmt"
	"io"
	"sort"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Board represents a complete KiCad PCB. The tree under Root is the source
// of truth; everything else is derived from it and refreshed by Reindex.
type Board struct {
	Root      *kicadsexp.List // (kicad_pcb ...) root node
	Filename  string          // Source file, empty when read from a stream
	Version   int             // File format version
	Generator string          // Generator info (e.g., "pcbnew")

	nets *NetMap
}

func (b *Board) displayName() string {
	if b.Filename == "" {
		return "<stdin>"
	}
	return b.Filename
}

// Reindex rebuilds the net index from the net table. It must be called
// after any change to the table.
func (b *Board) Reindex() error {
	var (
		entries  []*NetEntry
		problems []string
	)
	for _, node := range b.Root.All("net") {
		e, err := parseNetEntry(node)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", node, err))
			continue
		}
		entries = append(entries, e)
	}
	if err := kerrors.FromProblems(kerrors.KindSchema, b.Filename, problems); err != nil {
		return err
	}

	b.nets = NewNetMap(entries)
	return nil
}

// Validate checks that the net table is dense (entry i has number i) and
// that no two entries share a name.
func (b *Board) Validate() error {
	var problems []string
	for i, e := range b.nets.Entries() {
		if e.Number != i {
			problems = append(problems, fmt.Sprintf("net table is not contiguous: entry %d has number %d", i, e.Number))
		}
	}
	for _, n := range b.nets.dupNumbers {
		problems = append(problems, fmt.Sprintf("net number %d appears more than once", n))
	}
	for _, name := range b.nets.dupNames {
		problems = append(problems, fmt.Sprintf("net name %q appears more than once", name))
	}
	return kerrors.FromProblems(kerrors.KindIntegrity, b.Filename, problems)
}

// Nets returns the net index
func (b *Board) Nets() *NetMap {
	return b.nets
}

// GetNet returns a net by name, or nil if not found
func (b *Board) GetNet(name string) *Net {
	if e, ok := b.nets.GetByName(name); ok {
		return &e.Net
	}
	return nil
}

// GetAllNetNames returns a list of all net names in the board
func (b *Board) GetAllNetNames() []string {
	names := make([]string, 0, b.nets.Len())
	for _, e := range b.nets.Entries() {
		names = append(names, e.Name)
	}
	return names
}

// AddNet appends a new net table entry after the existing ones.
func (b *Board) AddNet(number int, name string) *kicadsexp.List {
	node := kicadsexp.NewList("net", kicadsexp.Int(number), kicadsexp.Str(name))
	b.Root.Append(node)
	return node
}

// Footprints returns the footprints in file order. KiCad 5 boards call
// them (module ...), later versions (footprint ...).
func (b *Board) Footprints() []*kicadsexp.List {
	var out []*kicadsexp.List
	for _, c := range b.Root.Children() {
		if l, ok := c.(*kicadsexp.List); ok && isFootprint(l) {
			out = append(out, l)
		}
	}
	return out
}

func isFootprint(l *kicadsexp.List) bool {
	return l.Key == "module" || l.Key == "footprint"
}

// Pads returns every pad that carries a net reference.
func (b *Board) Pads() []*kicadsexp.List {
	var out []*kicadsexp.List
	for _, fp := range b.Footprints() {
		for _, pad := range fp.All("pad") {
			if _, ok := pad.First("net"); ok {
				out = append(out, pad)
			}
		}
	}
	return out
}

// Zones returns the board zones followed by the zones embedded in
// footprints.
func (b *Board) Zones() []*kicadsexp.List {
	out := b.Root.All("zone")
	for _, fp := range b.Footprints() {
		out = append(out, fp.All("zone")...)
	}
	return out
}

// Tracks returns the straight and arc track segments.
func (b *Board) Tracks() []*kicadsexp.List {
	var out []*kicadsexp.List
	for _, c := range b.Root.Children() {
		if l, ok := c.(*kicadsexp.List); ok && (l.Key == "segment" || l.Key == "arc") {
			out = append(out, l)
		}
	}
	return out
}

// Vias returns all vias
func (b *Board) Vias() []*kicadsexp.List {
	return b.Root.All("via")
}

// Export writes the board with the given indentation unit.
func (b *Board) Export(w io.Writer, indent string) error {
	p := kicadsexp.Printer{Indent: indent}
	return p.Fprint(w, b.Root)
}

// NetInfo contains information about a net and its connections
type NetInfo struct {
	Net    Net
	Class  string
	Pads   int
	Tracks int
	Vias   int
	Zones  int
}

// GetNetInfo returns connection counts for every net, ordered by number.
func (b *Board) GetNetInfo() []NetInfo {
	infos := make(map[int]*NetInfo, b.nets.Len())
	order := make([]int, 0, b.nets.Len())
	for _, e := range b.nets.Entries() {
		if _, dup := infos[e.Number]; dup {
			continue
		}
		info := &NetInfo{Net: e.Net}
		if c, ok := b.ClassOf(e.Name); ok {
			info.Class = c.Name
		}
		infos[e.Number] = info
		order = append(order, e.Number)
	}

	count := func(nodes []*kicadsexp.List, field func(*NetInfo) *int) {
		for _, n := range nodes {
			num, err := netNumber(n)
			if err != nil {
				continue
			}
			if info, ok := infos[num]; ok {
				*field(info)++
			}
		}
	}
	count(b.Pads(), func(i *NetInfo) *int { return &i.Pads })
	count(b.Tracks(), func(i *NetInfo) *int { return &i.Tracks })
	count(b.Vias(), func(i *NetInfo) *int { return &i.Vias })
	count(b.Zones(), func(i *NetInfo) *int { return &i.Zones })

	sort.Ints(order)
	out := make([]NetInfo, 0, len(order))
	for _, num := range order {
		out = append(out, *infos[num])
	}
	return out
}
