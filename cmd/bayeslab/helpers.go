package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/session"
	"github.com/statlab/bayeslab/internal/store"
)

// openSession opens the workspace named by the global --root flag.
func openSession(cmd *cobra.Command) (*session.Session, error) {
	root, _ := cmd.Flags().GetString("root")
	return session.Open(root, os.Stderr)
}

// resolveRun picks the run addressed by --run (an explicit id) or --model
// (that model's most recent run).
func resolveRun(cmd *cobra.Command, s *session.Session) (*store.Run, error) {
	runID, _ := cmd.Flags().GetInt64("run")
	model, _ := cmd.Flags().GetString("model")

	switch {
	case runID > 0:
		return s.Store.GetRun(cmd.Context(), runID)
	case model != "":
		return s.Store.LatestRun(cmd.Context(), model)
	default:
		return nil, fmt.Errorf("specify --run or --model")
	}
}

// addRunFlags registers the run-selection flags shared by the
// post-fit commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("run", 0, "Run id (from 'bayeslab fit')")
	cmd.Flags().String("model", "", "Model name (uses its latest run)")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
