package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/compare"
	"github.com/statlab/bayeslab/internal/constants"
	"github.com/statlab/bayeslab/internal/report"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank stored runs by PSIS-LOO predictive accuracy",
		Long: `Compare two or more runs fit to the same dataset.

Each run's pointwise log-likelihood is turned into a PSIS-LOO estimate
of out-of-sample predictive accuracy (elpd_loo); models are ranked best
first with the elpd difference and its standard error against the best.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runIDs, _ := cmd.Flags().GetInt64Slice("runs")

			if len(runIDs) < 2 {
				return fmt.Errorf("specify at least 2 run ids with --runs")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var (
				loos    []*compare.LOO
				dataset string
			)
			for _, id := range runIDs {
				run, err := s.Store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				if dataset == "" {
					dataset = run.Dataset
				} else if run.Dataset != dataset {
					return fmt.Errorf("run %d fits dataset %q, others fit %q", id, run.Dataset, dataset)
				}

				ll, err := s.Store.LoadLogLik(cmd.Context(), id)
				if err != nil {
					return err
				}
				loo, err := compare.PSISLOO(run.Model, ll, constants.ParetoKWarnThreshold)
				if err != nil {
					return fmt.Errorf("run %d: %w", id, err)
				}
				loos = append(loos, loo)
			}

			ranked, err := compare.Rank(loos)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"dataset": dataset,
					"ranked":  ranked,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dataset %q, %d models\n\n", dataset, len(ranked))
			report.RenderComparison(cmd.OutOrStdout(), ranked)
			return nil
		},
	}

	cmd.Flags().Int64Slice("runs", nil, "Run ids to compare (comma-separated)")

	return cmd
}
