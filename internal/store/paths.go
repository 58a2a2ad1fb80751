// Package store persists datasets and fitted runs in a per-workspace
// SQLite database and exports posterior draws to CSV and Arrow files.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// WorkDir returns the path to the workspace directory for the given root.
func WorkDir(root string) string {
	return filepath.Join(root, ".bayeslab")
}

// DataDir returns the directory holding simulated dataset CSV files.
func DataDir(root string) string {
	return filepath.Join(WorkDir(root), "data")
}

// ExportsDir returns the directory draw exports are written to.
func ExportsDir(root string) string {
	return filepath.Join(WorkDir(root), "exports")
}

// DBPath returns the path to the workspace database.
func DBPath(root string) string {
	return filepath.Join(WorkDir(root), "bayeslab.db")
}

// TracePath returns the path of the sampler trace log.
func TracePath(root string) string {
	return filepath.Join(WorkDir(root), "trace.jsonl")
}

// ConfigPath returns the path of the workspace config file.
func ConfigPath(root string) string {
	return filepath.Join(WorkDir(root), "config.yaml")
}

// EnsureWorkDir creates the workspace directory tree if it doesn't exist.
func EnsureWorkDir(root string) error {
	for _, dir := range []string{WorkDir(root), DataDir(root), ExportsDir(root)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
	}
	return nil
}
