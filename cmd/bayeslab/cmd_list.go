package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets and runs",
	}

	cmd.AddCommand(
		newListDatasetsCmd(),
		newListRunsCmd(),
	)

	return cmd
}

func newListDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List stored datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			datasets, err := s.Store.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(datasets)
			}

			if len(datasets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No datasets yet. Run 'bayeslab simulate' first.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-12s %8s %12s  %s\n",
				"Name", "Scenario", "Rows", "Seed", "Created")
			for _, ds := range datasets {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-12s %8d %12d  %s\n",
					ds.Name, ds.Scenario, ds.Rows, ds.Seed,
					ds.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newListRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.Store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs yet. Run 'bayeslab fit' first.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-20s %-16s %7s %7s %7s  %s\n",
				"ID", "Model", "Dataset", "Chains", "Iters", "Warmup", "Created")
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-20s %-16s %7d %7d %7d  %s\n",
					r.ID, r.Model, r.Dataset, r.Chains, r.Iterations, r.Warmup,
					r.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
