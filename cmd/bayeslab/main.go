package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "bayeslab",
		Short: "Bayesian workflow lab - simulate, fit, diagnose, compare",
		Long: `bayeslab runs a simulation-based Bayesian modeling workflow.

It generates datasets with known ground truth, fits declarative models
with MCMC, checks convergence and posterior predictions, and compares
models by estimated out-of-sample predictive accuracy.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Workspace root directory")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newSimulateCmd(),
		newFitCmd(),
		newSummaryCmd(),
		newDiagnoseCmd(),
		newPPCCmd(),
		newCompareCmd(),
		newClassicalCmd(),
		newExportCmd(),
		newListCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "bayeslab version %s\n", version)
			}
		},
	}
}
