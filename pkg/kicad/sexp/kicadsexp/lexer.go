package kicadsexp

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the lexical structure of KiCad s-expressions.
// Symbols take every character up to a delimiter, so tokens such as F.Cu,
// +5V, /LOCAL1 or *.Cu stay whole; numbers are told apart afterwards.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},

	// Quoted strings with backslash escapes
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// Anything else up to whitespace, a paren or a quote
	{Name: "Symbol", Pattern: `[^\s()"]+`},
})

var numberPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// classify turns a bare token into a number or symbol atom.
func classify(tok string) Atom {
	if numberPattern.MatchString(tok) {
		return Atom{Kind: KindNumber, Value: tok}
	}
	return Atom{Kind: KindSymbol, Value: tok}
}

// unquote strips the surrounding quotes of a String token and resolves
// escapes. Unknown escapes are kept verbatim.
func unquote(tok string) string {
	body := tok[1 : len(tok)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 == len(body) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

func quote(v string) string {
	return `"` + quoteReplacer.Replace(v) + `"`
}

// needsQuoting reports whether a symbol value would not survive as a bare
// token.
func needsQuoting(v string) bool {
	if v == "" {
		return true
	}
	return strings.ContainsAny(v, " \t\r\n\f\v()\"")
}

func keyText(k string) string {
	if needsQuoting(k) {
		return quote(k)
	}
	return k
}
