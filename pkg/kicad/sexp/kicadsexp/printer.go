package kicadsexp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultIndent is the indentation unit used by Print and Fprint.
const DefaultIndent = "  "

// Printer serializes trees back to KiCad text.
//
// A list without child lists prints on one line. Otherwise the atoms that
// precede its first child list stay on the opening line, every following
// child goes on its own line one indent unit deeper, and the closing paren
// gets a line of its own.
type Printer struct {
	Indent string
}

// Fprint writes n followed by a newline.
func (p *Printer) Fprint(w io.Writer, n Sexp) error {
	bw := bufio.NewWriter(w)
	indent := p.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	pw := &printWriter{w: bw, indent: indent}
	pw.node(n, 0)
	pw.s("\n")
	if pw.err != nil {
		return fmt.Errorf("failed to write s-expression: %w", pw.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write s-expression: %w", err)
	}
	return nil
}

// Fprint writes n with the default indentation.
func Fprint(w io.Writer, n Sexp) error {
	return (&Printer{}).Fprint(w, n)
}

// Print returns the printed form of n.
func Print(n Sexp) string {
	var b strings.Builder
	_ = Fprint(&b, n)
	return b.String()
}

type printWriter struct {
	w      *bufio.Writer
	indent string
	err    error
}

func (pw *printWriter) s(v string) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.w.WriteString(v)
}

func (pw *printWriter) newline(depth int) {
	pw.s("\n")
	for i := 0; i < depth; i++ {
		pw.s(pw.indent)
	}
}

func (pw *printWriter) node(n Sexp, depth int) {
	switch v := n.(type) {
	case Atom:
		pw.s(v.String())
	case *List:
		pw.list(v, depth)
	default:
		panic(fmt.Sprintf("kicadsexp: unexpected node type %T", n))
	}
}

func (pw *printWriter) list(l *List, depth int) {
	pw.s("(")
	first := true
	if l.Key != "" {
		pw.s(keyText(l.Key))
		first = false
	}

	// Atoms before the first child list stay on the opening line.
	i := 0
	for ; i < len(l.items); i++ {
		a, ok := l.items[i].(Atom)
		if !ok {
			break
		}
		if !first {
			pw.s(" ")
		}
		pw.s(a.String())
		first = false
	}

	if i == len(l.items) {
		pw.s(")")
		return
	}

	for ; i < len(l.items); i++ {
		pw.newline(depth + 1)
		pw.node(l.items[i], depth+1)
	}
	pw.newline(depth)
	pw.s(")")
}
