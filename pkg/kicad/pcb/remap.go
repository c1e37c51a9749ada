package pcb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// RemapNets rewrites every net number on the board through m: the net
// table, zones, tracks, vias and pads. Every number in use must have a
// mapping. The same full walk as Verify makes sure no net reference is
// left behind. The net index is rebuilt afterwards.
func (b *Board) RemapNets(m map[int]int) error {
	r := newRecorder()
	r.record(b.Root)

	for _, e := range b.nets.Entries() {
		num, ok := m[e.Number]
		if !ok {
			r.fail(e.Node, "net %d (%q) has no mapping", e.Number, e.Name)
			continue
		}
		if err := e.Node.SetAt(0, kicadsexp.Int(num)); err != nil {
			r.fail(e.Node, "%v", err)
			continue
		}
		r.record(e.Node)
	}

	remap := func(n *kicadsexp.List) {
		if _, ok := n.First("net"); !ok {
			r.record(n)
			return
		}
		if err := setNetNumber(n, m); err != nil {
			r.fail(n, "%s: %v", n.Key, err)
			return
		}
		r.record(n)
	}
	for _, n := range b.Zones() {
		remap(n)
	}
	for _, n := range b.Tracks() {
		remap(n)
	}
	for _, n := range b.Vias() {
		remap(n)
	}
	for _, n := range b.Pads() {
		remap(n)
	}

	// Table entries are not net-bearing, so report their problems here.
	problems := r.check(b.Root)
	for _, e := range b.nets.Entries() {
		if msg, bad := r.pending[e.Node]; bad {
			problems = append(problems, msg)
		}
	}
	if err := kerrors.FromProblems(kerrors.KindIntegrity, b.Filename, problems); err != nil {
		return err
	}
	return b.Reindex()
}

// LocalNets returns the names of nets that carry the hierarchical label
// marker, i.e. start with "/".
func (b *Board) LocalNets() []string {
	var names []string
	for _, e := range b.nets.Entries() {
		if isLocalNet(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

func isLocalNet(name string) bool {
	return strings.HasPrefix(name, "/")
}

// PrefixLocalLabels renames every local net "/X" to "/prefix/X" so that
// labels of two root sheets cannot collide once the boards are merged. It
// returns the number of renamed nets. Boards with local nets need a
// prefix.
func (b *Board) PrefixLocalLabels(prefix string) (int, error) {
	local := b.LocalNets()
	if len(local) == 0 {
		return 0, nil
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		sort.Strings(local)
		return 0, kerrors.Newf(kerrors.KindUsage, b.Filename,
			"board has local nets %s; a local label prefix is required", strings.Join(local, ", "))
	}

	rename := func(name string) (string, bool) {
		if !isLocalNet(name) {
			return "", false
		}
		return "/" + prefix + name, true
	}
	renameAt := func(l *kicadsexp.List, i int) error {
		name, err := sexp.GetString(l, i)
		if err != nil {
			return nil
		}
		if to, ok := rename(name); ok {
			return renameAtom(l, i, to)
		}
		return nil
	}

	var problems []string
	note := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	for _, e := range b.nets.Entries() {
		note(renameAt(e.Node, 1))
	}
	for _, zone := range b.Zones() {
		if node, ok := zone.First("net_name"); ok {
			note(renameAt(node, 0))
		}
	}
	for _, pad := range b.Pads() {
		node, _ := pad.First("net")
		note(renameAt(node, 1))
	}
	for _, class := range b.Root.All("net_class") {
		for _, member := range class.All("add_net") {
			note(renameAt(member, 0))
		}
	}

	if err := kerrors.FromProblems(kerrors.KindSchema, b.Filename, problems); err != nil {
		return 0, err
	}
	if err := b.Reindex(); err != nil {
		return 0, err
	}
	return len(local), nil
}

// String summarizes the board for log messages.
func (b *Board) String() string {
	return fmt.Sprintf("%s (%d nets)", b.displayName(), b.nets.Len())
}
