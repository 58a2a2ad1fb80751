package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/session"
	"github.com/statlab/bayeslab/internal/simulate"
)

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model spec to a stored dataset with MCMC",
		Long: `Fit a YAML model spec to a stored dataset.

The spec comes from --spec (a file path) or, for the built-in scenarios,
--auto which fits the model matching the dataset's scenario. Sampler
settings default to the workspace config; flags override per run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			specPath, _ := cmd.Flags().GetString("spec")
			auto, _ := cmd.Flags().GetBool("auto")
			datasetName, _ := cmd.Flags().GetString("dataset")
			chains, _ := cmd.Flags().GetInt("chains")
			warmup, _ := cmd.Flags().GetInt("warmup")
			iterations, _ := cmd.Flags().GetInt("iterations")
			seed, _ := cmd.Flags().GetUint64("seed")

			if datasetName == "" {
				return fmt.Errorf("specify --dataset")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var specYAML string
			switch {
			case specPath != "":
				data, err := os.ReadFile(specPath)
				if err != nil {
					return fmt.Errorf("reading spec: %w", err)
				}
				specYAML = string(data)
			case auto:
				ds, err := s.Store.GetDataset(cmd.Context(), datasetName)
				if err != nil {
					return err
				}
				if ds.Scenario == "" {
					return fmt.Errorf("dataset %q has no scenario, use --spec", datasetName)
				}
				specYAML, err = simulate.DefaultSpecYAML(simulate.Scenario(ds.Scenario))
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("specify --spec or --auto")
			}

			res, err := s.Fit(cmd.Context(), session.FitParams{
				SpecYAML:   specYAML,
				Dataset:    datasetName,
				Chains:     chains,
				Warmup:     warmup,
				Iterations: iterations,
				Seed:       seed,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res.Run)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d: model %q on dataset %q\n",
				res.Run.ID, res.Run.Model, res.Run.Dataset)
			fmt.Fprintf(cmd.OutOrStdout(), "%d chains x %d iterations (warmup %d), seed %d\n",
				res.Run.Chains, res.Run.Iterations, res.Run.Warmup, res.Run.Seed)
			fmt.Fprintf(cmd.OutOrStdout(), "Acceptance:")
			for c, a := range res.Run.Accept {
				fmt.Fprintf(cmd.OutOrStdout(), " chain %d: %.2f", c, a)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "Next: bayeslab diagnose --run %d\n", res.Run.ID)
			return nil
		},
	}

	cmd.Flags().String("spec", "", "Path to a YAML model spec")
	cmd.Flags().Bool("auto", false, "Fit the built-in model matching the dataset's scenario")
	cmd.Flags().String("dataset", "", "Stored dataset name")
	cmd.Flags().Int("chains", 0, "Number of chains (0 uses the workspace config)")
	cmd.Flags().Int("warmup", 0, "Warmup iterations per chain (0 uses the workspace config)")
	cmd.Flags().Int("iterations", 0, "Kept iterations per chain (0 uses the workspace config)")
	cmd.Flags().Uint64("seed", 0, "Base RNG seed (0 uses the workspace config)")

	return cmd
}
