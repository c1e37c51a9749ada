package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/config"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/internal/report"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
)

var (
	// Global flags
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "otk",
	Short: "OpenTraceKiCad - batch edits for KiCad boards and schematics",
	Long: `OpenTraceKiCad (otk) edits KiCad files in place of the GUI:
  - merge one board into another, renumbering nets
  - hide reference designators and enlarge small vias
  - copy a sub-project's annotation into its parent project

Examples:
  otk merge -b main.kicad_pcb -m sub.kicad_pcb -n GND -n +3V3 -o out.kicad_pcb
  otk reannotate -b main -m PowerSupply -r
  otk nets -f board.kicad_pcb`,
	Version:       "0.1.0",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return kerrors.New(kerrors.KindUsage, "", err)
		}
		logging.SetLevel(level)
		logging.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report.Failure(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps usage errors to 2 and everything else to 1.
func exitCode(err error) int {
	if kerrors.Is(err, kerrors.KindUsage) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log", "l", config.LogLevel(), "log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return kerrors.New(kerrors.KindUsage, cmd.Name(), err)
	})
}

// requireFlags fails with a usage error when one of the named string flags
// is empty.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if v, err := cmd.Flags().GetString(name); err != nil || v == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return kerrors.FromProblems(kerrors.KindUsage, cmd.Name(), prefixAll("missing required flag ", missing))
	}
	return nil
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = prefix + it
	}
	return out
}
