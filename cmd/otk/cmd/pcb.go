package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/config"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/fileio"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/report"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/merge"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/pcb"
)

var (
	mergeOpts struct {
		base, mergee, output string
		nets                 []string
		anchor, localPrefix  string
	}
	pcbFile    string
	pcbOutput  string
	minViaSize float64
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge one PCB into another",
	Long: `Copy nets, zones, tracks, vias, footprints and graphics of the mergee
board into the base board.

The mergee's nets are renumbered after the base board's nets. Nets named
with -n exist on both boards and are joined into one. Any other net that
exists on both boards is an error.

With -p the mergee's footprint paths are moved into the base schematic
hierarchy: "from:to" replaces a leading path element matching the regular
expression "from" with "to"; a bare "to" is prepended to every path.
Use 'otk reannotate -p' to find "to" for a sub-project.`,
	Args: noArgs,
	RunE: runMerge,
}

var hideRefsCmd = &cobra.Command{
	Use:   "hide-refs",
	Short: "Hide all reference designators of a PCB",
	Args:  noArgs,
	RunE:  runHideRefs,
}

var minViaCmd = &cobra.Command{
	Use:   "min-via",
	Short: "Enlarge vias below a minimum diameter",
	Args:  noArgs,
	RunE:  runMinVia,
}

var netsCmd = &cobra.Command{
	Use:   "nets [net_name]",
	Short: "Show PCB net information",
	Long: `Display information about nets in a PCB file.

Without net_name: lists all nets with pad/track/via/zone counts
With net_name: shows only that net`,
	Args: maxArgs(1),
	RunE: runNets,
}

func init() {
	rootCmd.AddCommand(mergeCmd, hideRefsCmd, minViaCmd, netsCmd)

	f := mergeCmd.Flags()
	f.StringVarP(&mergeOpts.base, "base", "b", "", "base PCB file (required)")
	f.StringVarP(&mergeOpts.mergee, "mergee", "m", "", "PCB file to merge into the base (required)")
	f.StringVarP(&mergeOpts.output, "output", "o", fileio.Stdout, "output file, - for stdout")
	f.StringArrayVarP(&mergeOpts.nets, "net", "n", nil, "net present on both boards to join (repeatable)")
	f.StringVarP(&mergeOpts.anchor, "path", "p", "", "footprint path anchor, from:to or to")
	f.StringVarP(&mergeOpts.localPrefix, "local-prefix", "s", "", "prefix for the mergee's local nets")

	for _, c := range []*cobra.Command{hideRefsCmd, minViaCmd} {
		c.Flags().StringVarP(&pcbFile, "file", "f", "", "PCB file (required)")
		c.Flags().StringVarP(&pcbOutput, "output", "o", fileio.Stdout, "output file, - for stdout")
	}
	minViaCmd.Flags().Float64VarP(&minViaSize, "diameter", "d", 0, "minimum via diameter in mm (required)")

	netsCmd.Flags().StringVarP(&pcbFile, "file", "f", "", "PCB file (required)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "base", "mergee"); err != nil {
		return err
	}

	cfg := merge.Config{
		MergeNets:   mergeOpts.nets,
		LocalPrefix: mergeOpts.localPrefix,
	}
	if mergeOpts.anchor != "" {
		a, err := pcb.ParseAnchor(mergeOpts.anchor)
		if err != nil {
			return err
		}
		cfg.Anchor = a
	}

	base, err := pcb.ParseFile(mergeOpts.base)
	if err != nil {
		return fmt.Errorf("error parsing base board: %w", err)
	}
	mergee, err := pcb.ParseFile(mergeOpts.mergee)
	if err != nil {
		return fmt.Errorf("error parsing mergee board: %w", err)
	}

	res, err := merge.Run(base, mergee, cfg)
	if err != nil {
		return err
	}
	if err := writeBoard(cmd, base, mergeOpts.output); err != nil {
		return err
	}
	return report.MergeSummary(cmd.ErrOrStderr(), res)
}

func runHideRefs(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "file"); err != nil {
		return err
	}
	board, err := pcb.ParseFile(pcbFile)
	if err != nil {
		return err
	}

	n, err := board.HideReferences()
	if err != nil {
		return err
	}
	if err := writeBoard(cmd, board, pcbOutput); err != nil {
		return err
	}
	report.Count(cmd.ErrOrStderr(), n, "references hidden")
	return nil
}

func runMinVia(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "file"); err != nil {
		return err
	}
	if minViaSize <= 0 {
		return kerrors.Newf(kerrors.KindUsage, cmd.Name(), "--diameter must be greater than 0")
	}
	board, err := pcb.ParseFile(pcbFile)
	if err != nil {
		return err
	}

	n, err := board.SetMinViaSize(minViaSize)
	if err != nil {
		return err
	}
	if err := writeBoard(cmd, board, pcbOutput); err != nil {
		return err
	}
	report.Count(cmd.ErrOrStderr(), n, "vias enlarged")
	return nil
}

func runNets(cmd *cobra.Command, args []string) error {
	if err := requireFlags(cmd, "file"); err != nil {
		return err
	}
	board, err := pcb.ParseFile(pcbFile)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	infos := board.GetNetInfo()
	title := fmt.Sprintf("%s: %d nets", pcbFile, len(infos))
	if len(args) == 1 {
		net := board.GetNet(args[0])
		if net == nil {
			return fmt.Errorf("net '%s' not found", args[0])
		}
		var found []pcb.NetInfo
		for _, info := range infos {
			if info.Net.Number == net.Number {
				found = append(found, info)
			}
		}
		infos = found
		title = fmt.Sprintf("%s: net %s (number %d)", pcbFile, net.Name, net.Number)
	}
	return report.NetTable(cmd.OutOrStdout(), title, infos)
}

// writeBoard exports b to path, or to the command's stdout for "-".
func writeBoard(cmd *cobra.Command, b *pcb.Board, path string) error {
	return fileio.WriteAtomic(path, cmd.OutOrStdout(), func(w io.Writer) error {
		return b.Export(w, config.Indent())
	})
}

func noArgs(cmd *cobra.Command, args []string) error {
	return maxArgs(0)(cmd, args)
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return kerrors.New(kerrors.KindUsage, cmd.Name(), err)
		}
		return nil
	}
}
