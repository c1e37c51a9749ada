package schematic

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Map locates a project's copy of a sheet hierarchy: the project name
// used in (instances (project NAME ...)), the instance path of the
// hierarchy's top sheet in that project and the top sheet's file.
//
// A symbol placed in a sub-project is listed under every project that uses
// it. Its path in the sub-project starts with "/<sub root uuid>"; the path
// of the same placement in the main project starts with
// "/<main root uuid>/<sheet uuid>" and continues identically.
type Map struct {
	Name string
	Path string
	File string
}

// Rebase moves path from m's hierarchy into to's. It reports false when
// path is not under m.
func (m Map) Rebase(path string, to Map) (string, bool) {
	if !strings.HasPrefix(path, m.Path) {
		return path, false
	}
	return to.Path + path[len(m.Path):], true
}

// SchFileName returns the top schematic file of a project
func SchFileName(project string) string {
	return project + ".kicad_sch"
}

// projectName derives a project name from its schematic file name.
func projectName(file string) string {
	base := filepath.Base(file)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// CopyRefs copies the annotation of every symbol from its src instance to
// the matching dst instance: for each src path under src.Path the dst
// path with the same tail receives the src fields (reference, unit, ...),
// replacing what it had. Stale dst paths without a src counterpart are
// left alone. It returns the number of instances updated.
func (s *Schematic) CopyRefs(src, dst Map) (int, error) {
	copied := 0
	for _, sym := range s.Symbols() {
		n, err := copySymbolRefs(sym, src, dst)
		if err != nil {
			ref := SymbolReference(sym)
			return copied, kerrors.New(kerrors.KindSchema, s.Filename, fmt.Errorf("symbol %s: %w", ref, err))
		}
		copied += n
	}
	return copied, nil
}

func copySymbolRefs(sym *kicadsexp.List, src, dst Map) (int, error) {
	inst, err := sym.Require("instances")
	if err != nil {
		return 0, err
	}

	projects := inst.Lookup("project")
	if projects.Kind != kicadsexp.Many {
		return 0, fmt.Errorf("symbol is used by a single project; forgot to annotate parent project?")
	}

	var srcPrj, dstPrj *kicadsexp.List
	for _, prj := range projects.All() {
		name, _ := sexp.GetString(prj, 0)
		switch name {
		case src.Name:
			srcPrj = prj
		case dst.Name:
			dstPrj = prj
		}
	}
	if srcPrj == nil {
		return 0, fmt.Errorf("project %q not found", src.Name)
	}
	if dstPrj == nil {
		return 0, fmt.Errorf("project %q not found", dst.Name)
	}

	copied := 0
	for _, sp := range srcPrj.All("path") {
		p, err := sexp.GetString(sp, 0)
		if err != nil {
			return copied, err
		}
		target, ok := src.Rebase(p, dst)
		if !ok {
			continue
		}
		for _, dp := range dstPrj.All("path") {
			if q, err := sexp.GetString(dp, 0); err != nil || q != target {
				continue
			}
			for _, field := range sp.Children() {
				if l, ok := field.(*kicadsexp.List); ok {
					dp.Upsert(l.Clone())
				}
			}
			logging.Debugf("%s -> %s: %s", p, target, SymbolReference(sym))
			copied++
			break
		}
	}
	return copied, nil
}
