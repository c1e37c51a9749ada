package schematic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/fileio"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Project gives access to the schematic files of a KiCad project. Sheet
// file names are resolved relative to Dir. Loaded files are cached, so
// edits made through one Load are seen by the next.
type Project struct {
	Dir    string
	Indent string // indentation used when writing files

	cache map[string]*Schematic
}

// NewProject creates a project rooted at dir
func NewProject(dir string) *Project {
	return &Project{
		Dir:    dir,
		Indent: kicadsexp.DefaultIndent,
		cache:  make(map[string]*Schematic),
	}
}

func (p *Project) path(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(p.Dir, file)
}

// Load parses a schematic file of the project
func (p *Project) Load(file string) (*Schematic, error) {
	if sch, ok := p.cache[file]; ok {
		return sch, nil
	}
	sch, err := ParseFile(p.path(file))
	if err != nil {
		return nil, err
	}
	p.cache[file] = sch
	return sch, nil
}

// Sheets returns file followed by every sheet file it uses, directly or
// through other sheets. A sheet used several times is listed once.
func (p *Project) Sheets(file string) ([]string, error) {
	seen := map[string]bool{file: true}
	list := []string{file}
	if err := p.collectSheets(file, seen, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Project) collectSheets(file string, seen map[string]bool, list *[]string) error {
	sch, err := p.Load(file)
	if err != nil {
		return err
	}
	for _, sheet := range sch.Sheets() {
		if sheet.FileName == "" {
			return kerrors.Newf(kerrors.KindSchema, file, "sheet %q has no Sheetfile property", sheet.Name)
		}
		if seen[sheet.FileName] {
			continue
		}
		seen[sheet.FileName] = true
		*list = append(*list, sheet.FileName)
		if err := p.collectSheets(sheet.FileName, seen, list); err != nil {
			return err
		}
	}
	return nil
}

// PurgeInstances removes the instance data from file and all its sheets
// and writes the results below outDir, keeping the relative file names.
// The project's own files are not modified. It returns the written paths.
func (p *Project) PurgeInstances(file, outDir string) ([]string, error) {
	files, err := p.Sheets(file)
	if err != nil {
		return nil, err
	}

	purged := make([]*Schematic, 0, len(files))
	for _, f := range files {
		sch, err := p.Load(f)
		if err != nil {
			return nil, err
		}
		c := *sch
		c.Root = sch.Root.Clone()
		n := c.PurgeInstances()
		logging.Infof("%s: removed %d instance blocks", f, n)
		purged = append(purged, &c)
	}

	written := make([]string, 0, len(files))
	for i, f := range files {
		out := filepath.Join(outDir, f)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
		}
		if err := p.write(out, purged[i]); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

func (p *Project) write(path string, sch *Schematic) error {
	return fileio.WriteAtomic(path, nil, func(w io.Writer) error {
		return sch.Export(w, p.Indent)
	})
}

// MakeMaps locates the sub-project placed on the main project's top sheet
// as the sheet named subSheet. src describes the sub-project on its own,
// dst the same hierarchy inside the main project.
func (p *Project) MakeMaps(mainName, subSheet string) (src, dst Map, err error) {
	mainFile := SchFileName(mainName)
	main, err := p.Load(mainFile)
	if err != nil {
		return Map{}, Map{}, err
	}

	for _, sheet := range main.Sheets() {
		if sheet.Name != subSheet {
			continue
		}
		if sheet.FileName == "" {
			return Map{}, Map{}, kerrors.Newf(kerrors.KindSchema, mainFile, "sheet %q has no Sheetfile property", subSheet)
		}

		path, ok := sheetInstancePath(sheet.Node, mainName)
		if !ok {
			return Map{}, Map{}, kerrors.Newf(kerrors.KindSchema, mainFile, "sheet %q has no instance for project %q", subSheet, mainName)
		}

		sub, err := p.Load(sheet.FileName)
		if err != nil {
			return Map{}, Map{}, err
		}
		if sub.UUID == "" {
			return Map{}, Map{}, kerrors.Newf(kerrors.KindSchema, sheet.FileName, "schematic has no uuid")
		}

		dst = Map{
			Name: mainName,
			Path: strings.TrimSuffix(path, "/") + "/" + string(sheet.UUID),
			File: mainFile,
		}
		src = Map{
			Name: projectName(sheet.FileName),
			Path: "/" + string(sub.UUID),
			File: sheet.FileName,
		}
		return src, dst, nil
	}

	return Map{}, Map{}, kerrors.Newf(kerrors.KindUsage, mainFile, "sheet %q not found", subSheet)
}

// sheetInstancePath returns the first instance path of a sheet within the
// named project.
func sheetInstancePath(sheet *kicadsexp.List, project string) (string, bool) {
	inst, ok := sheet.First("instances")
	if !ok {
		return "", false
	}
	for _, prj := range inst.All("project") {
		if name, _ := sexp.GetString(prj, 0); name != project {
			continue
		}
		if pn, ok := prj.First("path"); ok {
			if path, err := sexp.GetString(pn, 0); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// MergePcbPrefix returns the UUID of the sub-project's sheet in the main
// project. Passed as the path anchor of a board merge it places the
// sub-project's footprints under that sheet.
func (p *Project) MergePcbPrefix(mainName, subSheet string) (string, error) {
	_, dst, err := p.MakeMaps(mainName, subSheet)
	if err != nil {
		return "", err
	}
	return dst.Path[strings.LastIndexByte(dst.Path, '/')+1:], nil
}

// Reannotate copies the annotation of the sub-project used as subSheet to
// its instance in the main project, across all of the sub-project's sheet
// files. Every file is updated in memory first; files are only written
// once all of them succeeded. It returns the rewritten files.
func (p *Project) Reannotate(mainName, subSheet string) ([]string, error) {
	src, dst, err := p.MakeMaps(mainName, subSheet)
	if err != nil {
		return nil, err
	}
	logging.Infof("copying references of %s (%s) to %s (%s)", src.Name, src.Path, dst.Name, dst.Path)

	files, err := p.Sheets(src.File)
	if err != nil {
		return nil, err
	}

	sheets := make([]*Schematic, 0, len(files))
	for _, f := range files {
		sch, err := p.Load(f)
		if err != nil {
			return nil, err
		}
		n, err := sch.CopyRefs(src, dst)
		if err != nil {
			return nil, fmt.Errorf("copying references failed for %s: %w", f, err)
		}
		logging.Infof("%s: updated %d instances", f, n)
		sheets = append(sheets, sch)
	}

	for i, f := range files {
		if err := p.write(p.path(f), sheets[i]); err != nil {
			if i > 0 {
				logging.Errorf("%s failed after rewriting %s", f, strings.Join(files[:i], ", "))
			}
			return files[:i], err
		}
	}
	return files, nil
}
