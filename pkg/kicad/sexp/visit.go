package sexp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Path locates a node from the root as a sequence of segments. A keyed
// list contributes "key[n]" where n counts earlier siblings with the same
// key; atoms and anonymous lists contribute "[i]" with their position.
//
// Paths are values: Walk hands every callback its own copy, so a callback
// may keep the path it was given.
type Path []string

// With returns a new path extended by seg. p itself is never modified.
func (p Path) With(seg string) Path {
	q := make(Path, len(p), len(p)+1)
	copy(q, p)
	return append(q, seg)
}

func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	return strings.Join(p, ".")
}

// SkipChildren can be returned by a VisitFunc to keep Walk from
// descending into the current node. It is not returned by Walk.
var SkipChildren = errors.New("skip children")

// VisitFunc is called for every node in pre-order. Any error other than
// SkipChildren stops the walk and is returned by Walk.
type VisitFunc func(n kicadsexp.Sexp, path Path) error

// Walk visits root and all of its descendants depth-first in container
// order. The order is deterministic and matches the printed order.
func Walk(root kicadsexp.Sexp, fn VisitFunc) error {
	return walk(root, Path{}, fn)
}

func walk(n kicadsexp.Sexp, path Path, fn VisitFunc) error {
	err := fn(n, path)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}

	switch v := n.(type) {
	case kicadsexp.Atom:
		return nil
	case *kicadsexp.List:
		seen := make(map[string]int)
		for i, child := range v.Children() {
			if err := walk(child, path.With(segment(child, i, seen)), fn); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("sexp: unexpected node type %T", n))
	}
}

func segment(child kicadsexp.Sexp, pos int, seen map[string]int) string {
	if l, ok := child.(*kicadsexp.List); ok && l.Key != "" {
		occ := seen[l.Key]
		seen[l.Key] = occ + 1
		return l.Key + "[" + strconv.Itoa(occ) + "]"
	}
	return "[" + strconv.Itoa(pos) + "]"
}
