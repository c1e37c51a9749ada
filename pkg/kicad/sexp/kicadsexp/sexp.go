// Package kicadsexp provides the s-expression tree model used for KiCad
// board and schematic files: a participle based parser, an ordered keyed
// multi-container for list nodes, and a deterministic printer.
//
// A list whose first element is an unquoted atom is keyed by that atom:
// (net 1 "GND") has Key "net" and children [1 "GND"]. The same key may occur
// any number of times among a list's children and nothing is ever merged
// or dropped, which is why a plain map cannot model this grammar.
package kicadsexp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
)

// Sexp is a node of the tree: either an Atom or a *List.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// String returns the single-line textual form
	String() string

	sexp()
}

// AtomKind distinguishes the three atom shapes of the grammar.
type AtomKind int

const (
	KindSymbol AtomKind = iota // bare symbol: F.Cu, +5V, smd
	KindString                 // quoted string: "GND"
	KindNumber                 // numeric literal: 1, -0.5, 1e-3
)

func (k AtomKind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	}
	return fmt.Sprintf("AtomKind(%d)", int(k))
}

// Atom is a leaf. Numbers keep their literal text so untouched values print
// exactly as they were read.
type Atom struct {
	Kind  AtomKind
	Value string
}

func (Atom) IsLeaf() bool { return true }
func (Atom) sexp()        {}

// String returns the atom as it would be printed.
func (a Atom) String() string {
	switch a.Kind {
	case KindString:
		return quote(a.Value)
	case KindSymbol:
		if needsQuoting(a.Value) {
			return quote(a.Value)
		}
	}
	return a.Value
}

// Int parses the atom as an integer.
func (a Atom) Int() (int, error) {
	v, err := strconv.Atoi(a.Value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", a.Value, err)
	}
	return v, nil
}

// Float parses the atom as a float64.
func (a Atom) Float() (float64, error) {
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", a.Value, err)
	}
	return v, nil
}

// Sym returns a bare symbol atom.
func Sym(v string) Atom { return Atom{Kind: KindSymbol, Value: v} }

// Str returns a quoted string atom.
func Str(v string) Atom { return Atom{Kind: KindString, Value: v} }

// Int returns a number atom holding i.
func Int(i int) Atom { return Atom{Kind: KindNumber, Value: strconv.Itoa(i)} }

// Float returns a number atom holding f in its shortest exact form.
func Float(f float64) Atom {
	return Atom{Kind: KindNumber, Value: strconv.FormatFloat(f, 'f', -1, 64)}
}

// List is a parenthesized node and the keyed multi-container over its
// children. Children keep their order; lookups by key return every match.
//
// Mutations are visible immediately to anyone holding a slice obtained from
// Children or All. Callers that mutate a list while iterating it must
// restart the iteration.
type List struct {
	Key   string
	items []Sexp
}

// NewList creates a list with the given key and children. An empty key
// makes an anonymous list.
func NewList(key string, items ...Sexp) *List {
	l := &List{Key: key}
	l.items = append(l.items, items...)
	return l
}

func (l *List) IsLeaf() bool { return false }
func (l *List) sexp()        {}

// Len returns the number of children (the key is not a child).
func (l *List) Len() int {
	return len(l.items)
}

// Children returns the children in order. The slice aliases the list.
func (l *List) Children() []Sexp {
	return l.items
}

// At returns the child at position i, or nil when out of range.
func (l *List) At(i int) Sexp {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// AtomAt returns the child at position i if it is an atom.
func (l *List) AtomAt(i int) (Atom, bool) {
	a, ok := l.At(i).(Atom)
	return a, ok
}

// Atoms returns the atom children in order, skipping nested lists.
func (l *List) Atoms() []Atom {
	var atoms []Atom
	for _, it := range l.items {
		if a, ok := it.(Atom); ok {
			atoms = append(atoms, a)
		}
	}
	return atoms
}

// HasAtom reports whether a bare atom with value v is a direct child,
// e.g. the "hide" flag in (fp_text reference "R1" hide).
func (l *List) HasAtom(v string) bool {
	for _, it := range l.items {
		if a, ok := it.(Atom); ok && a.Kind != KindString && a.Value == v {
			return true
		}
	}
	return false
}

// LookupKind tags the shape of a Lookup result.
type LookupKind int

const (
	Absent LookupKind = iota
	Single
	Many
)

// Lookup is the result of a keyed lookup. Callers switch on Kind instead
// of guessing whether they got one node or several.
type Lookup struct {
	Kind  LookupKind
	nodes []*List
}

// One returns the match when exactly one child carries the key.
func (r Lookup) One() (*List, bool) {
	if r.Kind != Single {
		return nil, false
	}
	return r.nodes[0], true
}

// All returns every match in order (empty when Absent).
func (r Lookup) All() []*List {
	return r.nodes
}

// Len returns the number of matches.
func (r Lookup) Len() int {
	return len(r.nodes)
}

// Lookup returns the child lists keyed by key.
func (l *List) Lookup(key string) Lookup {
	nodes := l.All(key)
	switch len(nodes) {
	case 0:
		return Lookup{Kind: Absent}
	case 1:
		return Lookup{Kind: Single, nodes: nodes}
	}
	return Lookup{Kind: Many, nodes: nodes}
}

// All returns every child list keyed by key, in order.
func (l *List) All(key string) []*List {
	var out []*List
	for _, it := range l.items {
		if c, ok := it.(*List); ok && c.Key == key {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first child list keyed by key.
func (l *List) First(key string) (*List, bool) {
	for _, it := range l.items {
		if c, ok := it.(*List); ok && c.Key == key {
			return c, true
		}
	}
	return nil, false
}

// Require is First for keys that must be present.
func (l *List) Require(key string) (*List, error) {
	if c, ok := l.First(key); ok {
		return c, nil
	}
	return nil, kerrors.Newf(kerrors.KindSchema, "", "(%s) has no (%s)", l.Key, key)
}

// Value returns the first atom of the first child keyed by key:
// for (via (size 0.6)) Value("size") yields 0.6.
func (l *List) Value(key string) (Atom, bool) {
	c, ok := l.First(key)
	if !ok {
		return Atom{}, false
	}
	return c.AtomAt(0)
}

// Append adds a new occurrence of n. A keyed list goes directly after the
// last child carrying the same key so repeated keys stay grouped; anything
// else goes to the end.
func (l *List) Append(n Sexp) {
	if c, ok := n.(*List); ok && c.Key != "" {
		for i := len(l.items) - 1; i >= 0; i-- {
			if sib, ok := l.items[i].(*List); ok && sib.Key == c.Key {
				l.insert(i+1, n)
				return
			}
		}
	}
	l.items = append(l.items, n)
}

// Push adds n at the very end.
func (l *List) Push(n Sexp) {
	l.items = append(l.items, n)
}

// InsertAt inserts n before position i (i == Len appends).
func (l *List) InsertAt(i int, n Sexp) error {
	if i < 0 || i > len(l.items) {
		return kerrors.Newf(kerrors.KindSchema, "", "(%s): insert position %d out of range (length %d)", l.Key, i, len(l.items))
	}
	l.insert(i, n)
	return nil
}

func (l *List) insert(i int, n Sexp) {
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = n
}

// Replace overwrites the slot-th occurrence of key with n.
func (l *List) Replace(key string, slot int, n Sexp) error {
	i := l.indexOf(key, slot)
	if i < 0 {
		return kerrors.Newf(kerrors.KindSchema, "", "(%s) has no occurrence %d of (%s)", l.Key, slot, key)
	}
	l.items[i] = n
	return nil
}

// Upsert replaces the first occurrence of n's key, or appends n when the
// key is absent.
func (l *List) Upsert(n *List) {
	if i := l.indexOf(n.Key, 0); i >= 0 {
		l.items[i] = n
		return
	}
	l.Append(n)
}

// SetAt overwrites the child at position i.
func (l *List) SetAt(i int, n Sexp) error {
	if i < 0 || i >= len(l.items) {
		return kerrors.Newf(kerrors.KindSchema, "", "(%s): index %d out of range (length %d)", l.Key, i, len(l.items))
	}
	l.items[i] = n
	return nil
}

// DeleteAt removes the child at position i, shifting later children.
func (l *List) DeleteAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return kerrors.Newf(kerrors.KindSchema, "", "(%s): index %d out of range (length %d)", l.Key, i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Delete removes the slot-th occurrence of key.
func (l *List) Delete(key string, slot int) error {
	i := l.indexOf(key, slot)
	if i < 0 {
		return kerrors.Newf(kerrors.KindSchema, "", "(%s) has no occurrence %d of (%s)", l.Key, slot, key)
	}
	return l.DeleteAt(i)
}

// Remove deletes the child identical to n (pointer identity for lists,
// first equal atom for atoms) and reports whether one was found.
func (l *List) Remove(n Sexp) bool {
	for i, it := range l.items {
		if same(it, n) {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// IndexOf returns the position of the child identical to n, or -1.
func (l *List) IndexOf(n Sexp) int {
	for i, it := range l.items {
		if same(it, n) {
			return i
		}
	}
	return -1
}

func same(a, b Sexp) bool {
	switch x := a.(type) {
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	}
	return false
}

func (l *List) indexOf(key string, slot int) int {
	if slot < 0 {
		return -1
	}
	for i, it := range l.items {
		if c, ok := it.(*List); ok && c.Key == key {
			if slot == 0 {
				return i
			}
			slot--
		}
	}
	return -1
}

// Clone returns a deep copy.
func (l *List) Clone() *List {
	c := &List{Key: l.Key, items: make([]Sexp, len(l.items))}
	for i, it := range l.items {
		if sub, ok := it.(*List); ok {
			c.items[i] = sub.Clone()
		} else {
			c.items[i] = it
		}
	}
	return c
}

// String renders the list on a single line.
func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if l.Key != "" {
		b.WriteString(keyText(l.Key))
	}
	for i, it := range l.items {
		if i > 0 || l.Key != "" {
			b.WriteByte(' ')
		}
		b.WriteString(it.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether two trees have the same keys, order and atoms.
func Equal(a, b Sexp) bool {
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || x.Key != y.Key || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	panic(fmt.Sprintf("kicadsexp: unexpected node type %T", a))
}
