package schematic

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return parse(filename, file)
}

// Parse reads and parses a KiCad schematic from an io.Reader
func Parse(r io.Reader) (*Schematic, error) {
	return parse("", r)
}

func parse(filename string, r io.Reader) (*Schematic, error) {
	root, err := kicadsexp.ParseRoot(filename, r)
	if err != nil {
		return nil, err
	}

	// Verify this is a kicad_sch file
	if root.Key != "kicad_sch" {
		return nil, kerrors.Newf(kerrors.KindSchema, filename, "not a KiCad schematic file: expected 'kicad_sch', got '%s'", root.Key)
	}

	sch := &Schematic{Root: root, Filename: filename}

	// Parse header (version and generator)
	if err := parseHeader(root, sch); err != nil {
		return nil, kerrors.New(kerrors.KindSchema, filename, fmt.Errorf("failed to parse header: %w", err))
	}

	// Parse UUID
	if uuid, err := sexp.GetUUID(root); err == nil {
		sch.UUID = uuid
	}

	return sch, nil
}

// parseHeader extracts version and generator information
func parseHeader(root *kicadsexp.List, sch *Schematic) error {
	// Find version node
	versionNode, err := root.Require("version")
	if err != nil {
		return fmt.Errorf("missing required 'version' field")
	}

	// Extract version number
	ver, err := sexp.GetInt(versionNode, 0)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}

	// Validate version
	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	sch.Version = ver

	// Find generator
	if genNode, found := root.First("generator"); found {
		if gen, err := sexp.GetString(genNode, 0); err == nil {
			sch.Generator = gen
		}
	}

	// Find generator version
	if genVerNode, found := root.First("generator_version"); found {
		if genVer, err := sexp.GetString(genVerNode, 0); err == nil {
			sch.GeneratorVer = genVer
		}
	}

	return nil
}
