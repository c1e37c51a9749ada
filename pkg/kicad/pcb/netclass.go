package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// NetClass is a (net_class NAME "description" (clearance ..) ... (add_net ..))
// block: a set of design rules and the nets they apply to.
type NetClass struct {
	Node        *kicadsexp.List
	Name        string
	Description string
	Members     []string
}

func newNetClass(node *kicadsexp.List) NetClass {
	c := NetClass{Node: node}
	c.Name, _ = sexp.GetString(node, 0)
	c.Description, _ = sexp.GetString(node, 1)
	for _, m := range node.All("add_net") {
		if name, err := sexp.GetString(m, 0); err == nil {
			c.Members = append(c.Members, name)
		}
	}
	return c
}

// NetClasses returns the net classes in file order
func (b *Board) NetClasses() []NetClass {
	nodes := b.Root.All("net_class")
	out := make([]NetClass, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, newNetClass(n))
	}
	return out
}

// NetClass returns the class with the given name.
func (b *Board) NetClass(name string) (NetClass, bool) {
	for _, c := range b.NetClasses() {
		if c.Name == name {
			return c, true
		}
	}
	return NetClass{}, false
}

// ClassOf returns the class that lists net as a member.
func (b *Board) ClassOf(net string) (NetClass, bool) {
	for _, c := range b.NetClasses() {
		if c.HasMember(net) {
			return c, true
		}
	}
	return NetClass{}, false
}

// HasMember reports whether net belongs to the class
func (c NetClass) HasMember(net string) bool {
	for _, m := range c.Members {
		if m == net {
			return true
		}
	}
	return false
}

// RemoveMember drops the (add_net net) entries of the class.
func (c NetClass) RemoveMember(net string) int {
	removed := 0
	for _, m := range c.Node.All("add_net") {
		if name, err := sexp.GetString(m, 0); err == nil && name == net {
			c.Node.Remove(m)
			removed++
		}
	}
	return removed
}

// AddMember appends an (add_net net) entry after the existing ones.
func (c NetClass) AddMember(net string) {
	c.Node.Append(kicadsexp.NewList("add_net", kicadsexp.Str(net)))
}

// rules returns the rule fields of the class keyed by name, i.e. every
// child list except the membership entries. Repeated keys keep their order.
func (c NetClass) rules() (keys []string, byKey map[string][]*kicadsexp.List) {
	byKey = make(map[string][]*kicadsexp.List)
	for _, it := range c.Node.Children() {
		l, ok := it.(*kicadsexp.List)
		if !ok || l.Key == "add_net" {
			continue
		}
		if _, seen := byKey[l.Key]; !seen {
			keys = append(keys, l.Key)
		}
		byKey[l.Key] = append(byKey[l.Key], l)
	}
	return keys, byKey
}

// Mismatches compares the non-membership fields of two classes and
// describes each field that differs. The description is compared as the
// field "description".
func (c NetClass) Mismatches(o NetClass) []string {
	var out []string
	if c.Description != o.Description {
		out = append(out, fmt.Sprintf("description (%q vs %q)", c.Description, o.Description))
	}

	keys, mine := c.rules()
	otherKeys, theirs := o.rules()
	for _, k := range otherKeys {
		if _, ok := mine[k]; !ok {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		a, b := mine[k], theirs[k]
		if fieldsEqual(a, b) {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s vs %s)", k, fieldText(a), fieldText(b)))
	}
	return out
}

func fieldsEqual(a, b []*kicadsexp.List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !kicadsexp.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func fieldText(nodes []*kicadsexp.List) string {
	switch len(nodes) {
	case 0:
		return "absent"
	case 1:
		return nodes[0].String()
	}
	return fmt.Sprintf("%d entries", len(nodes))
}
