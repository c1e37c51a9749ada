// Package sexp provides the generic visitor and typed navigation helpers
// shared by the board and schematic packages. The tree model itself lives
// in the kicadsexp subpackage.
package sexp

// UUID represents a unique identifier (used in KiCad v6+ files)
type UUID string

// Property represents a (property "Key" "Value" ...) node of a symbol,
// sheet or footprint
type Property struct {
	Key   string
	Value string
}
