package sexp

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// S-expression navigation helpers

// FindNode searches for a child node with the given key
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (*kicadsexp.List, bool) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return nil, false
	}
	return l.First(key)
}

// Typed value extraction helpers

// GetString extracts the atom value at the given child index.
// Index 0 is the first value after the key: for (layer "F.Cu") it is "F.Cu".
func GetString(l *kicadsexp.List, index int) (string, error) {
	a, ok := l.AtomAt(index)
	if !ok {
		if index < 0 || index >= l.Len() {
			return "", kerrors.Newf(kerrors.KindSchema, "", "(%s): index %d out of bounds (length %d)", l.Key, index, l.Len())
		}
		return "", kerrors.Newf(kerrors.KindSchema, "", "(%s): expected atom at index %d, got list", l.Key, index)
	}
	return a.Value, nil
}

// GetInt extracts an int value at the given index
func GetInt(l *kicadsexp.List, index int) (int, error) {
	a, ok := l.AtomAt(index)
	if !ok {
		return 0, kerrors.Newf(kerrors.KindSchema, "", "(%s): expected number at index %d", l.Key, index)
	}
	v, err := a.Int()
	if err != nil {
		return 0, kerrors.New(kerrors.KindSchema, l.Key, err)
	}
	return v, nil
}

// GetFloat extracts a float64 value at the given index
func GetFloat(l *kicadsexp.List, index int) (float64, error) {
	a, ok := l.AtomAt(index)
	if !ok {
		return 0, kerrors.Newf(kerrors.KindSchema, "", "(%s): expected number at index %d", l.Key, index)
	}
	v, err := a.Float()
	if err != nil {
		return 0, kerrors.New(kerrors.KindSchema, l.Key, err)
	}
	return v, nil
}

// GetUUID extracts the UUID of a node from its (uuid ...) child
func GetUUID(l *kicadsexp.List) (UUID, error) {
	node, err := l.Require("uuid")
	if err != nil {
		return "", err
	}
	v, err := GetString(node, 0)
	if err != nil {
		return "", err
	}
	return UUID(v), nil
}

// HasSymbol checks if a list contains a specific bare symbol
func HasSymbol(l *kicadsexp.List, symbol string) bool {
	return l.HasAtom(symbol)
}

// GetProperty extracts a property from a (property ...) node
func GetProperty(l *kicadsexp.List) (Property, error) {
	if l.Key != "property" {
		return Property{}, fmt.Errorf("expected (property ...) list, got (%s ...)", l.Key)
	}

	// Format: (property "key" "value" (at X Y angle) (effects ...))
	key, err := GetString(l, 0)
	if err != nil {
		return Property{}, fmt.Errorf("failed to parse property key: %w", err)
	}

	value, err := GetString(l, 1)
	if err != nil {
		value = "" // Value can be empty
	}

	return Property{Key: key, Value: value}, nil
}

// FindProperty returns the (property "key" ...) child of l and its value
func FindProperty(l *kicadsexp.List, key string) (*kicadsexp.List, string, bool) {
	for _, p := range l.All("property") {
		prop, err := GetProperty(p)
		if err == nil && prop.Key == key {
			return p, prop.Value, true
		}
	}
	return nil, "", false
}
