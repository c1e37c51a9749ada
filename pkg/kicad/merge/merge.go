// Package merge combines two KiCad boards into one. Nets of the merged-in
// board are renumbered after the nets of the base board, except for nets
// designated to be joined by name, which take over the base board's
// number. Nothing is written to the base board until every check passed.
package merge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Config selects how the mergee is folded into the base board.
type Config struct {
	// MergeNets names nets that exist on both boards and are joined by
	// name. The unconnected net is always joined.
	MergeNets []string
	// Anchor moves the mergee's footprint paths into the base hierarchy.
	// The zero value leaves paths alone.
	Anchor pcb.PathAnchor
	// LocalPrefix namespaces the mergee's local label nets.
	LocalPrefix string
}

// Result describes a completed merge.
type Result struct {
	NetMap         map[int]int    // mergee net number -> merged number
	NetsAdded      []pcb.Net      // nets new to the base board
	Merged         map[string]int // element key -> elements appended
	LocalRenamed   int
	PathsRewritten int
	UnmatchedPaths []string
}

// ErrSharedNets is attached to a conflict caused by undesignated nets that
// exist on both boards.
var ErrSharedNets = errors.New("designate shared nets for merging or rename them")

// Classes lists the net-bearing element keys copied from the mergee, in
// copy order. Board graphics follow them in file order.
var Classes = []string{"net", "zone", "segment", "arc", "via", "module", "footprint"}

// Run merges mergee into base. The mergee is consumed: its nets are
// renumbered and renamed in place. On error base is unchanged, except when
// the final verification of the merged board fails.
func Run(base, mergee *pcb.Board, cfg Config) (*Result, error) {
	// 1. both boards must be consistent on their own
	for _, b := range []*pcb.Board{base, mergee} {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if err := b.Verify(); err != nil {
			return nil, err
		}
	}
	logging.Infof("merging %s into %s", mergee, base)

	res := &Result{Merged: make(map[string]int)}

	// 2. local labels
	n, err := mergee.PrefixLocalLabels(cfg.LocalPrefix)
	if err != nil {
		return nil, err
	}
	res.LocalRenamed = n
	if n > 0 {
		logging.Infof("prefixed %d local nets with %q", n, cfg.LocalPrefix)
	}

	// 3. duplicates
	designated, problems := designatedNets(base, mergee, cfg.MergeNets)
	if err := checkDuplicates(base, mergee, designated, problems); err != nil {
		return nil, err
	}

	// 4. net classes
	if err := checkNetClasses(base, mergee, designated); err != nil {
		return nil, err
	}

	// 5. renumbering
	res.NetMap, res.NetsAdded = renumber(base, mergee, designated)

	// 6. remap and re-verify against the new numbers
	if err := mergee.RemapNets(res.NetMap); err != nil {
		return nil, err
	}
	if err := mergee.Verify(); err != nil {
		return nil, err
	}

	// 7. paths
	if !cfg.Anchor.IsZero() {
		res.PathsRewritten, res.UnmatchedPaths, err = mergee.RewritePaths(cfg.Anchor)
		if err != nil {
			return nil, err
		}
		logging.Infof("rewrote %d footprint paths with anchor %s", res.PathsRewritten, cfg.Anchor)
	}

	// 8. structural merge, the first step that touches base
	mergeNetClasses(base, mergee, designated)
	for _, key := range Classes {
		for _, node := range mergee.Elements(key) {
			if key == "net" && isJoined(node, base, designated) {
				continue
			}
			base.Root.Append(node.Clone())
			res.Merged[key]++
		}
	}
	for _, g := range mergee.Graphics() {
		base.Root.Append(g.Clone())
		res.Merged[g.Key]++
	}

	// 9. the merged board must be as consistent as its inputs
	if err := base.Reindex(); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if err := base.Verify(); err != nil {
		return nil, err
	}

	logging.Infof("merged board has %d nets (%d added)", base.Nets().Len(), len(res.NetsAdded))
	return res, nil
}

// designatedNets returns the set of nets joined by name. A designated net
// missing from the mergee is ignored; one missing from the base board
// cannot take over a base number and is returned as a problem.
func designatedNets(base, mergee *pcb.Board, names []string) (map[string]bool, []string) {
	set := map[string]bool{pcb.UnconnectedNet: true}
	var problems []string
	for _, name := range names {
		if _, ok := mergee.Nets().GetByName(name); !ok {
			logging.Warnf("net %q is not on the merged board, ignoring", name)
			continue
		}
		if _, ok := base.Nets().GetByName(name); !ok {
			problems = append(problems, fmt.Sprintf("net %q is designated for merging but missing from the base board", name))
			continue
		}
		set[name] = true
	}
	return set, problems
}

// checkDuplicates adds every undesignated net found on both boards to
// problems and reports them all as one conflict.
func checkDuplicates(base, mergee *pcb.Board, designated map[string]bool, problems []string) error {
	shared := 0
	for _, e := range mergee.Nets().Entries() {
		if designated[e.Name] {
			continue
		}
		if _, ok := base.Nets().GetByName(e.Name); ok {
			problems = append(problems, fmt.Sprintf("net %q exists on both boards", e.Name))
			shared++
		}
	}
	if len(problems) == 0 {
		return nil
	}
	err := &kerrors.Error{Kind: kerrors.KindConflict, Op: "merge", Problems: problems}
	if shared > 0 {
		err.Err = ErrSharedNets
	}
	return err
}

// checkNetClasses requires equally named classes to agree on every rule and
// joined nets to be classed compatibly on both boards.
func checkNetClasses(base, mergee *pcb.Board, designated map[string]bool) error {
	var problems []string
	for _, mc := range mergee.NetClasses() {
		bc, ok := base.NetClass(mc.Name)
		if !ok {
			continue
		}
		for _, m := range bc.Mismatches(mc) {
			problems = append(problems, fmt.Sprintf("net class %q: %s differs", mc.Name, m))
		}
	}

	names := make([]string, 0, len(designated))
	for name := range designated {
		if name != pcb.UnconnectedNet {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		bc, inBase := base.ClassOf(name)
		mc, inMergee := mergee.ClassOf(name)
		switch {
		case inBase != inMergee:
			problems = append(problems, fmt.Sprintf("net %q is classed on one board only (%q vs %q)", name, bc.Name, mc.Name))
		case inBase && bc.Name != mc.Name:
			for _, m := range bc.Mismatches(mc) {
				problems = append(problems, fmt.Sprintf("net %q: class %q and %q: %s differs", name, bc.Name, mc.Name, m))
			}
		}
	}
	return kerrors.FromProblems(kerrors.KindConflict, "merge", problems)
}

// renumber maps every mergee net to its merged number. Joined nets take
// the base number; the rest follow the base table in mergee order.
func renumber(base, mergee *pcb.Board, designated map[string]bool) (map[int]int, []pcb.Net) {
	m := make(map[int]int, mergee.Nets().Len())
	var added []pcb.Net
	next := base.Nets().Len()
	for _, e := range mergee.Nets().Entries() {
		if designated[e.Name] {
			if be, ok := base.Nets().GetByName(e.Name); ok {
				m[e.Number] = be.Number
				logging.Debugf("net %q: %d -> %d (joined)", e.Name, e.Number, be.Number)
				continue
			}
		}
		m[e.Number] = next
		added = append(added, pcb.Net{Number: next, Name: e.Name})
		logging.Debugf("net %q: %d -> %d", e.Name, e.Number, next)
		next++
	}
	return m, added
}

// mergeNetClasses moves the mergee's classes over. Joined nets are
// already classed on the base board and are dropped from the mergee's
// classes first.
func mergeNetClasses(base, mergee *pcb.Board, designated map[string]bool) {
	for _, mc := range mergee.NetClasses() {
		for _, member := range mc.Members {
			if designated[member] {
				mc.RemoveMember(member)
			}
		}
		mc = refresh(mergee, mc)

		if bc, ok := base.NetClass(mc.Name); ok {
			for _, member := range mc.Members {
				if !bc.HasMember(member) {
					bc.AddMember(member)
				}
			}
			continue
		}
		base.Root.Append(mc.Node.Clone())
	}
}

func refresh(b *pcb.Board, c pcb.NetClass) pcb.NetClass {
	if fresh, ok := b.NetClass(c.Name); ok {
		return fresh
	}
	return c
}

func isJoined(node *kicadsexp.List, base *pcb.Board, designated map[string]bool) bool {
	name := pcb.UnconnectedNet
	if a, ok := node.AtomAt(1); ok {
		name = a.Value
	}
	if !designated[name] {
		return false
	}
	_, ok := base.Nets().GetByName(name)
	return ok
}
