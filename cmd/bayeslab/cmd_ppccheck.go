package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/ppc"
	"github.com/statlab/bayeslab/internal/report"
)

func newPPCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ppc",
		Short: "Posterior predictive check for a stored run",
		Long: `Draw replicated datasets from the fitted model at a subsample of
posterior draws and compare test statistics (mean, sd, min, max) of the
observed outcome against their replicated distributions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			numDraws, _ := cmd.Flags().GetInt("draws")
			seed, _ := cmd.Flags().GetUint64("seed")

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
			target, _, err := s.CompileRun(cmd.Context(), run)
			if err != nil {
				return err
			}

			if numDraws == 0 {
				numDraws = s.Config.Summary.PPCDraws
			}
			if seed == 0 {
				seed = run.Seed
			}
			res, err := ppc.Run(target, draws, numDraws, seed)
			if err != nil {
				return fmt.Errorf("run %d: %w", run.ID, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id": run.ID,
					"model":  run.Model,
					"ppc":    res,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d: model %q on dataset %q\n\n", run.ID, run.Model, run.Dataset)
			report.RenderPPC(cmd.OutOrStdout(), res)
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().Int("draws", 0, "Number of replicated draws (0 uses the workspace config)")
	cmd.Flags().Uint64("seed", 0, "Replication RNG seed (0 uses the run's seed)")

	return cmd
}
