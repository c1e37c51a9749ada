package pcb

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// recorder remembers which nodes a pass over the board has handled, so a
// later full walk can find net references no pass knows about.
type recorder struct {
	seen     map[*kicadsexp.List]struct{}
	pending  map[*kicadsexp.List]string // node -> problem, reported with its path
	problems []string
}

func newRecorder() *recorder {
	return &recorder{
		seen:    make(map[*kicadsexp.List]struct{}),
		pending: make(map[*kicadsexp.List]string),
	}
}

func (r *recorder) record(n *kicadsexp.List) {
	if _, dup := r.seen[n]; dup {
		r.problems = append(r.problems, fmt.Sprintf("%s visited twice", n))
		return
	}
	r.seen[n] = struct{}{}
}

// fail records n together with a problem to report at n's path.
func (r *recorder) fail(n *kicadsexp.List, format string, args ...any) {
	r.record(n)
	r.pending[n] = fmt.Sprintf(format, args...)
}

// isNetBearing reports whether n directly references a net.
func isNetBearing(n *kicadsexp.List) bool {
	_, hasNet := n.First("net")
	_, hasName := n.First("net_name")
	return hasNet || hasName
}

// check walks the whole tree and reports every net-bearing node that was
// never recorded plus every pending problem, in document order.
func (r *recorder) check(root *kicadsexp.List) []string {
	problems := r.problems
	sexp.Walk(root, func(n kicadsexp.Sexp, path sexp.Path) error {
		l, ok := n.(*kicadsexp.List)
		if !ok || l == root {
			return nil
		}
		if !isNetBearing(l) {
			return nil
		}
		if _, seen := r.seen[l]; !seen {
			problems = append(problems, fmt.Sprintf("%s: (%s) references a net but is not handled", path, l.Key))
			return nil
		}
		if msg, bad := r.pending[l]; bad {
			problems = append(problems, fmt.Sprintf("%s: %s", path, msg))
		}
		return nil
	})
	return problems
}

// Verify checks that every net reference on the board resolves against the
// net table: zones by number and name, tracks and vias by number, pads by
// number and name. A node that references a net but is not one of those
// kinds is an error as well. All problems are returned in one error.
func (b *Board) Verify() error {
	r := newRecorder()
	r.record(b.Root)

	for _, e := range b.nets.Entries() {
		r.record(e.Node)
	}

	for _, zone := range b.Zones() {
		b.verifyZone(r, zone)
	}
	for _, n := range b.Tracks() {
		b.verifyNumber(r, n)
	}
	for _, n := range b.Vias() {
		b.verifyNumber(r, n)
	}
	for _, pad := range b.Pads() {
		b.verifyPad(r, pad)
	}

	return kerrors.FromProblems(kerrors.KindIntegrity, b.Filename, r.check(b.Root))
}

// verifyZone checks (zone (net N) (net_name "X") ...). Either part may be
// absent in some KiCad versions but what is present must agree.
func (b *Board) verifyZone(r *recorder, zone *kicadsexp.List) {
	var msgs []string

	var numbered *NetEntry
	if node, ok := zone.First("net"); ok {
		num, err := sexp.GetInt(node, 0)
		if err != nil {
			r.fail(zone, "invalid net number: %v", err)
			return
		}
		e, ok := b.nets.GetByNumber(num)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("net %d is not in the net table", num))
		}
		numbered = e
	}

	if node, ok := zone.First("net_name"); ok {
		name, _ := sexp.GetString(node, 0)
		e, ok := b.nets.GetByName(name)
		switch {
		case !ok:
			msgs = append(msgs, fmt.Sprintf("net name %q is not in the net table", name))
		case numbered != nil && numbered != e:
			msgs = append(msgs, fmt.Sprintf("net %d is %q, not %q", numbered.Number, numbered.Name, name))
		}
	}

	if len(msgs) > 0 {
		r.fail(zone, "zone %s", strings.Join(msgs, "; "))
		return
	}
	r.record(zone)
}

func (b *Board) verifyNumber(r *recorder, n *kicadsexp.List) {
	if _, ok := n.First("net"); !ok {
		r.record(n)
		return
	}
	num, err := netNumber(n)
	if err != nil {
		r.fail(n, "%s: invalid net number: %v", n.Key, err)
		return
	}
	if _, ok := b.nets.GetByNumber(num); !ok {
		r.fail(n, "%s net %d is not in the net table", n.Key, num)
		return
	}
	r.record(n)
}

// verifyPad checks (pad ... (net N "name")).
func (b *Board) verifyPad(r *recorder, pad *kicadsexp.List) {
	node, _ := pad.First("net")
	num, err := sexp.GetInt(node, 0)
	if err != nil {
		r.fail(pad, "pad: invalid net number: %v", err)
		return
	}
	e, ok := b.nets.GetByNumber(num)
	if !ok {
		r.fail(pad, "pad net %d is not in the net table", num)
		return
	}
	if name, err := sexp.GetString(node, 1); err == nil && name != e.Name {
		r.fail(pad, "pad net %d is %q, not %q", num, e.Name, name)
		return
	}
	r.record(pad)
}
