package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/config"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/report"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/schematic"
)

var (
	reannotateOpts struct {
		top, sheet, dir string
		rewrite, print  bool
	}
	schFile  string
	purgeDir string
)

var reannotateCmd = &cobra.Command{
	Use:   "reannotate",
	Short: "Reannotate a sub-project inside its top project",
	Long: `Copy the references a stand-alone sub-project uses to its instance in
a top project, so that both annotate the same symbols identically.

-b names the top project (the basename of <name>.kicad_sch), -m the sheet
that places the sub-project on the top project's root sheet.

The sub-project's sheet UUID is always printed; pass it to
'otk merge -p' when merging the sub-project's board. With -r all
schematic files of the sub-project are rewritten.`,
	Args: noArgs,
	RunE: runReannotate,
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the sheet files a schematic uses and their references",
	Args:  noArgs,
	RunE:  runSheets,
}

var purgeInstancesCmd = &cobra.Command{
	Use:   "purge-instances",
	Short: "Write copies of a schematic hierarchy without instance data",
	Args:  noArgs,
	RunE:  runPurgeInstances,
}

func init() {
	rootCmd.AddCommand(reannotateCmd, sheetsCmd, purgeInstancesCmd)

	f := reannotateCmd.Flags()
	f.StringVarP(&reannotateOpts.top, "base", "b", "", "top project name (required)")
	f.StringVarP(&reannotateOpts.sheet, "sheet", "m", "", "sheet name of the sub-project (required)")
	f.BoolVarP(&reannotateOpts.rewrite, "rewrite", "r", false, "rewrite the sub-project's schematic files")
	f.BoolVarP(&reannotateOpts.print, "print", "p", true, "print the sub-project's sheet UUID (always on)")
	f.StringVarP(&reannotateOpts.dir, "dir", "C", ".", "project directory")

	sheetsCmd.Flags().StringVarP(&schFile, "file", "f", "", "schematic file (required)")
	purgeInstancesCmd.Flags().StringVarP(&schFile, "file", "f", "", "top schematic file (required)")
	purgeInstancesCmd.Flags().StringVarP(&purgeDir, "output", "o", "new", "output directory")
}

func newProject(dir string) *schematic.Project {
	p := schematic.NewProject(dir)
	p.Indent = config.Indent()
	return p
}

func runReannotate(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "base", "sheet"); err != nil {
		return err
	}
	p := newProject(reannotateOpts.dir)

	prefix, err := p.MergePcbPrefix(reannotateOpts.top, reannotateOpts.sheet)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prefix)
	if !reannotateOpts.rewrite {
		return nil
	}

	files, err := p.Reannotate(reannotateOpts.top, reannotateOpts.sheet)
	if err != nil {
		return err
	}
	report.List(cmd.ErrOrStderr(), "reannotated", files)
	return nil
}

func runSheets(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "file"); err != nil {
		return err
	}
	p := newProject(filepath.Dir(schFile))
	files, err := p.Sheets(filepath.Base(schFile))
	if err != nil {
		return err
	}

	items := make([]string, 0, len(files))
	for _, f := range files {
		sch, err := p.Load(f)
		if err != nil {
			return err
		}
		refs := sch.GetAllReferences()
		sort.Strings(refs)
		items = append(items, fmt.Sprintf("%s: %s", f, strings.Join(refs, ", ")))
	}
	report.List(cmd.OutOrStdout(), schFile, items)
	return nil
}

func runPurgeInstances(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "file", "output"); err != nil {
		return err
	}
	p := newProject(filepath.Dir(schFile))
	written, err := p.PurgeInstances(filepath.Base(schFile), purgeDir)
	if err != nil {
		return err
	}
	report.List(cmd.ErrOrStderr(), "written", written)
	return nil
}
