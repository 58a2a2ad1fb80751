package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/constants"
	"github.com/statlab/bayeslab/internal/diagnostics"
	"github.com/statlab/bayeslab/internal/report"
)

func newDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Convergence diagnostics for a stored run",
		Long: fmt.Sprintf(`Check a run's chains for convergence.

Flags parameters with split R-hat above %.2f or effective sample size
below %d per chain.`, constants.RHatWarnThreshold, constants.ESSWarnPerChain),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := resolveRun(cmd, s)
			if err != nil {
				return err
			}
			draws, err := s.Store.LoadDraws(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			essMin := float64(constants.ESSWarnPerChain * run.Chains)
			checks, err := diagnostics.CheckAll(draws.Params, draws.Chains,
				constants.RHatWarnThreshold, essMin)
			if err != nil {
				return fmt.Errorf("diagnosing run %d: %w", run.ID, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id": run.ID,
					"model":  run.Model,
					"checks": checks,
					"accept": run.Accept,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d: model %q on dataset %q\n\n", run.ID, run.Model, run.Dataset)
			report.RenderDiagnostics(cmd.OutOrStdout(), checks, run.Accept)
			return nil
		},
	}

	addRunFlags(cmd)
	return cmd
}
