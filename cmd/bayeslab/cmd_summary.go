package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/posterior"
	"github.com/statlab/bayeslab/internal/report"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Posterior summaries for a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			mass, _ := cmd.Flags().GetFloat64("mass")

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

			if mass == 0 {
				mass = s.Config.Summary.IntervalMass
			}
			sums, err := posterior.Summarize(draws, mass)
			if err != nil {
				return fmt.Errorf("summarizing run %d: %w", run.ID, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id":    run.ID,
					"model":     run.Model,
					"dataset":   run.Dataset,
					"summaries": sums,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d: model %q on dataset %q\n\n", run.ID, run.Model, run.Dataset)
			report.RenderSummaries(cmd.OutOrStdout(), sums, mass)
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().Float64("mass", 0, "Credible interval mass in (0,1) (0 uses the workspace config)")

	return cmd
}
