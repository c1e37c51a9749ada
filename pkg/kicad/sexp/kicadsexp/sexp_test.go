package kicadsexp

import (
	"testing"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
)

func TestLookup(t *testing.T) {
	l := parseList(t, `(footprint "R_0603" (layer "F.Cu") (pad "1" smd rect) (pad "2" smd rect))`)

	tests := []struct {
		key      string
		wantKind LookupKind
		wantLen  int
	}{
		{"layer", Single, 1},
		{"pad", Many, 2},
		{"zone", Absent, 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			r := l.Lookup(tt.key)
			if r.Kind != tt.wantKind {
				t.Errorf("Lookup(%q).Kind = %v, want %v", tt.key, r.Kind, tt.wantKind)
			}
			if r.Len() != tt.wantLen {
				t.Errorf("Lookup(%q).Len() = %d, want %d", tt.key, r.Len(), tt.wantLen)
			}
			_, single := r.One()
			if single != (tt.wantKind == Single) {
				t.Errorf("Lookup(%q).One() ok = %v", tt.key, single)
			}
		})
	}
}

func TestPositionalAccess(t *testing.T) {
	l := parseList(t, `(pad "1" smd rect (at 0 0) (net 1 "GND") hide)`)

	if a, ok := l.AtomAt(0); !ok || a.Value != "1" || a.Kind != KindString {
		t.Errorf("AtomAt(0) = %+v, want string 1", a)
	}
	if a, ok := l.AtomAt(2); !ok || a.Value != "rect" {
		t.Errorf("AtomAt(2) = %+v, want rect", a)
	}
	if _, ok := l.At(3).(*List); !ok {
		t.Errorf("At(3) = %T, want *List", l.At(3))
	}
	if l.At(99) != nil {
		t.Errorf("At(99) = %v, want nil", l.At(99))
	}
	if got := len(l.Atoms()); got != 4 {
		t.Errorf("len(Atoms()) = %d, want 4", got)
	}
	if !l.HasAtom("hide") {
		t.Error("HasAtom(hide) = false, want true")
	}
	if l.HasAtom("1") {
		t.Error("HasAtom(1) matched a quoted string")
	}
}

func TestAppendGroupsKeys(t *testing.T) {
	l := parseList(t, `(kicad_pcb (net 0 "") (net 1 "GND") (footprint "A"))`)

	l.Append(NewList("net", Int(2), Str("VCC")))
	l.Append(NewList("zone"))

	want := parseList(t, `(kicad_pcb (net 0 "") (net 1 "GND") (net 2 "VCC") (footprint "A") (zone))`)
	if !Equal(l, want) {
		t.Errorf("after Append:\n got %s\nwant %s", l, want)
	}

	l.Push(Sym("hide"))
	if a, ok := l.AtomAt(l.Len() - 1); !ok || a.Value != "hide" {
		t.Errorf("Push did not append at the end: %s", l)
	}
}

func TestReplaceAndDelete(t *testing.T) {
	l := parseList(t, `(via (at 1 2) (size 0.4) (size 0.5) (net 3))`)

	if err := l.Replace("size", 1, NewList("size", Float(0.6))); err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}
	sizes := l.All("size")
	if got := sizes[1].String(); got != "(size 0.6)" {
		t.Errorf("second size = %s, want (size 0.6)", got)
	}
	if got := sizes[0].String(); got != "(size 0.4)" {
		t.Errorf("first size changed to %s", got)
	}

	if err := l.Replace("drill", 0, NewList("drill", Float(0.3))); !kerrors.Is(err, kerrors.KindSchema) {
		t.Errorf("Replace(missing) error = %v, want schema violation", err)
	}

	if err := l.Delete("size", 0); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if n := len(l.All("size")); n != 1 {
		t.Errorf("len(All(size)) after Delete = %d, want 1", n)
	}
	if err := l.Delete("size", 5); err == nil {
		t.Error("Delete(out of range) expected error, got nil")
	}
	if err := l.DeleteAt(-1); err == nil {
		t.Error("DeleteAt(-1) expected error, got nil")
	}
}

func TestUpsert(t *testing.T) {
	l := parseList(t, `(property "Reference" "R1" (at 0 0))`)

	l.Upsert(NewList("hide", Sym("yes")))
	l.Upsert(NewList("hide", Sym("no")))

	if n := len(l.All("hide")); n != 1 {
		t.Fatalf("len(All(hide)) = %d, want 1", n)
	}
	if v, _ := l.Value("hide"); v.Value != "no" {
		t.Errorf("hide = %q, want no", v.Value)
	}
}

func TestRemoveAndIndexOf(t *testing.T) {
	l := parseList(t, `(net_class Default "" (clearance 0.2) (add_net "A") (add_net "B"))`)
	members := l.All("add_net")

	if i := l.IndexOf(members[1]); i != 4 {
		t.Errorf("IndexOf(add_net B) = %d, want 4", i)
	}
	if !l.Remove(members[0]) {
		t.Fatal("Remove(add_net A) = false")
	}
	if l.Remove(members[0]) {
		t.Error("Remove() found a node that was already removed")
	}
	if n := len(l.All("add_net")); n != 1 {
		t.Errorf("len(All(add_net)) = %d, want 1", n)
	}
}

func TestRequire(t *testing.T) {
	l := parseList(t, `(via (at 1 2) (net 3))`)
	if _, err := l.Require("net"); err != nil {
		t.Errorf("Require(net) unexpected error: %v", err)
	}
	if _, err := l.Require("size"); !kerrors.Is(err, kerrors.KindSchema) {
		t.Errorf("Require(size) error = %v, want schema violation", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	l := parseList(t, `(zone (net 1) (net_name "GND"))`)
	c := l.Clone()

	n, _ := c.First("net")
	if err := n.SetAt(0, Int(7)); err != nil {
		t.Fatal(err)
	}
	if v, _ := l.Value("net"); v.Value != "1" {
		t.Errorf("original changed through clone: net = %s", v.Value)
	}
}

func TestAtomConversions(t *testing.T) {
	if v, err := Int(42).Int(); err != nil || v != 42 {
		t.Errorf("Int(42).Int() = %d, %v", v, err)
	}
	if v, err := Float(0.6).Float(); err != nil || v != 0.6 {
		t.Errorf("Float(0.6).Float() = %v, %v", v, err)
	}
	if _, err := Sym("GND").Int(); err == nil {
		t.Error("Sym(GND).Int() expected error")
	}
	if got := Float(0.8).String(); got != "0.8" {
		t.Errorf("Float(0.8).String() = %q, want 0.8", got)
	}
}
