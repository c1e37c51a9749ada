package kicadsexp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
)

// fileNode is the participle grammar root: any number of expressions.
type fileNode struct {
	Exprs []*exprNode `parser:"@@*"`
}

// exprNode is one expression: a list or an atom.
type exprNode struct {
	Pos    lexer.Position
	List   *listNode `parser:"  @@"`
	String *string   `parser:"| @String"`
	Symbol *string   `parser:"| @Symbol"`
}

// listNode is ( expr* ). Open captures the paren so an empty list still
// yields a non-nil node.
type listNode struct {
	Open  string      `parser:"@\"(\""`
	Items []*exprNode `parser:"@@* \")\""`
}

// Parser parses KiCad s-expressions.
type Parser struct {
	parser *participle.Parser[fileNode]
}

// NewParser creates a new s-expression parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[fileNode](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

var defaultParser = func() *Parser {
	p, err := NewParser()
	if err != nil {
		panic(err)
	}
	return p
}()

// ParseAll parses every top-level expression read from r.
func (p *Parser) ParseAll(filename string, r io.Reader) ([]Sexp, error) {
	ast, err := p.parser.Parse(filename, r)
	if err != nil {
		return nil, syntaxError(err)
	}

	result := make([]Sexp, 0, len(ast.Exprs))
	for _, e := range ast.Exprs {
		result = append(result, e.build())
	}
	return result, nil
}

func syntaxError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		e := kerrors.Syntax(pos.Line, pos.Column, "%s", perr.Message())
		e.Op = pos.Filename
		return e
	}
	return kerrors.New(kerrors.KindSyntax, "", err)
}

func (e *exprNode) build() Sexp {
	switch {
	case e.List != nil:
		return e.List.build()
	case e.String != nil:
		return Atom{Kind: KindString, Value: unquote(*e.String)}
	case e.Symbol != nil:
		return classify(*e.Symbol)
	}
	panic("kicadsexp: empty expression node")
}

// build converts a parsed list into a *List. A leading bare atom becomes
// the key; otherwise the list is anonymous.
func (n *listNode) build() *List {
	l := &List{}
	items := n.Items
	if len(items) > 0 && items[0].Symbol != nil {
		l.Key = *items[0].Symbol
		items = items[1:]
	}
	l.items = make([]Sexp, 0, len(items))
	for _, it := range items {
		l.items = append(l.items, it.build())
	}
	return l
}

// Parse parses S-expressions from an io.Reader.
func Parse(r io.Reader) ([]Sexp, error) {
	return defaultParser.ParseAll("", r)
}

// ParseString parses S-expressions from a string (convenience function)
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}

// ParseRoot parses a document that must consist of exactly one list, as
// every KiCad file does.
func ParseRoot(filename string, r io.Reader) (*List, error) {
	exprs, err := defaultParser.ParseAll(filename, r)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		e := kerrors.Syntax(1, 1, "empty file or no valid s-expressions found")
		e.Op = filename
		return nil, e
	}
	if len(exprs) > 1 {
		return nil, kerrors.Newf(kerrors.KindSyntax, filename, "expected a single root list, found %d expressions", len(exprs))
	}
	root, ok := exprs[0].(*List)
	if !ok {
		return nil, kerrors.Newf(kerrors.KindSyntax, filename, "root is an atom (%s), expected a list", exprs[0])
	}
	return root, nil
}

// ParseFile reads and parses a single-root s-expression file
func ParseFile(filename string) (*List, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseRoot(filename, file)
}
