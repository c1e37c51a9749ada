package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceKiCad/internal/logging"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return parse(filename, file)
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	return parse("", r)
}

func parse(filename string, r io.Reader) (*Board, error) {
	root, err := kicadsexp.ParseRoot(filename, r)
	if err != nil {
		return nil, err
	}

	board, err := NewBoard(filename, root)
	if err != nil {
		return nil, err
	}

	logging.Debugf("loaded %s: version %d, %d nets, %d footprints",
		board.displayName(), board.Version, board.nets.Len(), len(board.Footprints()))
	return board, nil
}

// NewBoard wraps an already parsed tree, builds the net index and checks
// that the net table is dense and free of duplicate names.
func NewBoard(filename string, root *kicadsexp.List) (*Board, error) {
	// Verify this is a kicad_pcb file
	if root.Key != "kicad_pcb" {
		return nil, kerrors.Newf(kerrors.KindSchema, filename, "not a KiCad PCB file: expected 'kicad_pcb', got '%s'", root.Key)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, kerrors.New(kerrors.KindSchema, filename, fmt.Errorf("failed to parse header: %w", err))
	}

	board := &Board{
		Root:      root,
		Filename:  filename,
		Version:   version,
		Generator: generator,
	}

	if err := board.Reindex(); err != nil {
		return nil, err
	}
	if err := board.Validate(); err != nil {
		return nil, err
	}
	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root *kicadsexp.List) (version int, generator string, err error) {
	versionNode, err := root.Require("version")
	if err != nil {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 0)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	// Find generator/host node (optional in some files)
	gen := "unknown"
	if hostNode, found := root.First("host"); found {
		// Format: (host tool build)
		// Example: (host pcbnew "(6.0.0)")
		if toolName, err := sexp.GetString(hostNode, 0); err == nil {
			gen = toolName
		}
	} else if genNode, found := root.First("generator"); found {
		// Newer format: (generator "pcbnew")
		if generatorName, err := sexp.GetString(genNode, 0); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseNetEntry reads a (net <number> "<name>") table record. The name is
// optional and defaults to the unconnected net.
func parseNetEntry(node *kicadsexp.List) (*NetEntry, error) {
	number, err := sexp.GetInt(node, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse net number: %w", err)
	}

	name := UnconnectedNet
	if a, ok := node.AtomAt(1); ok {
		name = a.Value
	}

	return &NetEntry{Net: Net{Number: number, Name: name}, Node: node}, nil
}
