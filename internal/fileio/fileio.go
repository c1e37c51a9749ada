// Package fileio writes command output so that a failed run never leaves a
// truncated file behind.
package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stdout is the output name that selects standard output.
const Stdout = "-"

// WriteAtomic calls write with a temporary file next to path and renames it
// over path only when write succeeds. An empty path or "-" writes to
// stdout instead.
func WriteAtomic(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == Stdout {
		return write(stdout)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// Keep the permissions of an existing file.
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
