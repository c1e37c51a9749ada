package pcb

import (
	"regexp"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
)

// PathAnchor moves footprint paths into another sheet hierarchy.
//
// With only To set every path is prefixed: "/a/b" becomes "/To/a/b".
// With From set the leading path segment matching From is replaced by To:
// "/From/a/b" becomes "/To/a/b". From is a regular expression that must
// match the whole first segment.
type PathAnchor struct {
	From string
	To   string

	from *regexp.Regexp
}

// ParseAnchor parses "from:to" or "to". Surrounding slashes are ignored.
func ParseAnchor(s string) (PathAnchor, error) {
	from, to, replace := strings.Cut(s, ":")
	if !replace {
		from, to = "", s
	}
	a := PathAnchor{
		From: strings.Trim(from, "/"),
		To:   strings.Trim(to, "/"),
	}

	if a.To == "" {
		return PathAnchor{}, kerrors.Newf(kerrors.KindUsage, "anchor", "invalid path anchor %q: empty target", s)
	}
	if replace {
		if a.From == "" {
			return PathAnchor{}, kerrors.Newf(kerrors.KindUsage, "anchor", "invalid path anchor %q: empty source", s)
		}
		re, err := regexp.Compile(`^(?:` + a.From + `)$`)
		if err != nil {
			return PathAnchor{}, kerrors.New(kerrors.KindUsage, "anchor", err)
		}
		a.from = re
	}
	return a, nil
}

// IsZero reports whether the anchor is unset.
func (a PathAnchor) IsZero() bool {
	return a.To == ""
}

func (a PathAnchor) String() string {
	if a.From == "" {
		return a.To
	}
	return a.From + ":" + a.To
}

// Rewrite applies the anchor to one path. It reports false when the path
// does not start with the From segment.
func (a PathAnchor) Rewrite(path string) (string, bool) {
	if a.from == nil {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "/" + a.To + path, true
	}

	if !strings.HasPrefix(path, "/") {
		return path, false
	}
	seg, rest := path[1:], ""
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg, rest = seg[:i], seg[i:]
	}
	if !a.from.MatchString(seg) {
		return path, false
	}
	return "/" + a.To + rest, true
}

// RewritePaths applies the anchor to the first (path ...) of every
// footprint. Paths the anchor does not match are left unchanged and
// returned.
func (b *Board) RewritePaths(a PathAnchor) (rewritten int, unmatched []string, err error) {
	for _, fp := range b.Footprints() {
		node, ok := fp.First("path")
		if !ok {
			continue
		}
		old, gerr := sexp.GetString(node, 0)
		if gerr != nil {
			return rewritten, unmatched, kerrors.New(kerrors.KindSchema, b.Filename, gerr)
		}

		p, ok := a.Rewrite(old)
		if !ok {
			ref, _ := FootprintReference(fp)
			logging.Warnf("path anchor %s does not match %s (%s)", a, old, ref)
			unmatched = append(unmatched, old)
			continue
		}
		if err := renameAtom(node, 0, p); err != nil {
			return rewritten, unmatched, kerrors.New(kerrors.KindSchema, b.Filename, err)
		}
		rewritten++
	}
	return rewritten, unmatched, nil
}
