// Package kerrors defines the error taxonomy shared by the KiCad editing
// packages. Every fatal condition surfaced by the parser, the board model,
// the merge engine or the CLI is an *Error tagged with a Kind.
package kerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the high level class of an error.
type Kind string

const (
	// KindSyntax indicates malformed s-expression text.
	KindSyntax Kind = "syntax error"
	// KindSchema indicates well-formed text missing an expected key or field.
	KindSchema Kind = "schema violation"
	// KindIntegrity indicates a broken net table or dangling net reference.
	KindIntegrity Kind = "integrity error"
	// KindConflict indicates merge inputs that cannot be combined.
	KindConflict Kind = "conflict"
	// KindUsage indicates invalid or missing command line arguments.
	KindUsage Kind = "usage error"
)

// Error carries a Kind plus enough context to point at the problem.
// Problems holds every individual violation when a pass accumulates them.
type Error struct {
	Kind     Kind
	Op       string
	Path     string
	Line     int
	Column   int
	Problems []string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	switch len(e.Problems) {
	case 0:
	case 1:
		b.WriteString(": ")
		b.WriteString(e.Problems[0])
	default:
		fmt.Fprintf(&b, " (%d problems)", len(e.Problems))
		for _, p := range e.Problems {
			b.WriteString("\n  - ")
			b.WriteString(p)
		}
	}
	return b.String()
}

// Unwrap lets errors.Is/As reach the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// FromProblems returns nil when problems is empty, otherwise a single
// error listing all of them.
func FromProblems(kind Kind, op string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &Error{Kind: kind, Op: op, Problems: problems}
}

// Syntax creates a KindSyntax error at a source position.
func Syntax(line, column int, format string, args ...any) *Error {
	return &Error{
		Kind:   KindSyntax,
		Line:   line,
		Column: column,
		Err:    fmt.Errorf(format, args...),
	}
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ProblemsOf returns the accumulated problems of the outermost *Error.
func ProblemsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Problems
	}
	return nil
}
