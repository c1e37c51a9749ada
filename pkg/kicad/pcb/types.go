package pcb

import (
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// UnconnectedNet is the name of net 0, the distinguished "no connection"
// net. It is exempt from duplicate and net class checks during merges.
const UnconnectedNet = ""

// Net represents an electrical net
type Net struct {
	Number int    // Net number (ordinal)
	Name   string // Net name
}

// NetEntry is a net table record together with the (net N "name") node it
// was read from.
type NetEntry struct {
	Net
	Node *kicadsexp.List
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	entries  []*NetEntry
	byNumber map[int]*NetEntry
	byName   map[string]*NetEntry

	// duplicates found while building, reported by Validate
	dupNumbers []int
	dupNames   []string
}

// NewNetMap indexes the given net table entries. The first entry wins when
// a number or name repeats; repeats are remembered for validation.
func NewNetMap(entries []*NetEntry) *NetMap {
	nm := &NetMap{
		entries:  entries,
		byNumber: make(map[int]*NetEntry, len(entries)),
		byName:   make(map[string]*NetEntry, len(entries)),
	}

	for _, e := range entries {
		if _, dup := nm.byNumber[e.Number]; dup {
			nm.dupNumbers = append(nm.dupNumbers, e.Number)
		} else {
			nm.byNumber[e.Number] = e
		}
		if _, dup := nm.byName[e.Name]; dup {
			nm.dupNames = append(nm.dupNames, e.Name)
		} else {
			nm.byName[e.Name] = e
		}
	}

	return nm
}

// GetByName retrieves a net by its name (e.g., "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*NetEntry, bool) {
	e, ok := nm.byName[name]
	return e, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*NetEntry, bool) {
	e, ok := nm.byNumber[num]
	return e, ok
}

// Entries returns the net table in file order
func (nm *NetMap) Entries() []*NetEntry {
	return nm.entries
}

// Len returns the number of net table entries
func (nm *NetMap) Len() int {
	return len(nm.entries)
}
