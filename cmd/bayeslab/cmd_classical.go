package main

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/classical"
	"github.com/statlab/bayeslab/internal/compare"
	"github.com/statlab/bayeslab/internal/dataset"
	"github.com/statlab/bayeslab/internal/model"
	"github.com/statlab/bayeslab/internal/posterior"
	"github.com/statlab/bayeslab/internal/report"
)

func newClassicalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classical",
		Short: "Compare a run's posterior against a classical point-estimate fit",
		Long: `Fit the run's regression classically and show it side by side with
the posterior: OLS for Gaussian-family models (on log(y) for lognormal),
logistic regression via IRLS for Bernoulli models. When the dataset was
simulated, the ground truth and credible-interval coverage are included.`,
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
			target, tbl, err := s.CompileRun(cmd.Context(), run)
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

			fit, err := classicalFit(target.Spec(), tbl)
			if err != nil {
				return fmt.Errorf("classical fit for run %d: %w", run.ID, err)
			}

			ds, err := s.Store.GetDataset(cmd.Context(), run.Dataset)
			if err != nil {
				return err
			}

			rows := compare.CoefTable(sums, fit, ds.Truth)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id":       run.ID,
					"model":        run.Model,
					"coefficients": rows,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d: model %q on dataset %q\n\n", run.ID, run.Model, run.Dataset)
			report.RenderCoefTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().Float64("mass", 0, "Credible interval mass in (0,1) (0 uses the workspace config)")

	return cmd
}

// classicalFit runs the point-estimate counterpart of the spec's mu
// regression.
func classicalFit(spec *model.Spec, tbl *dataset.Table) (*classical.Fit, error) {
	switch spec.Family {
	case model.FamilyBernoulli:
		return classical.Logistic(tbl, spec.Outcome, spec.Predictors.Mu)
	case model.FamilyLogNormal:
		logged, err := logOutcome(tbl, spec.Outcome)
		if err != nil {
			return nil, err
		}
		return classical.OLS(logged, spec.Outcome, spec.Predictors.Mu)
	default:
		return classical.OLS(tbl, spec.Outcome, spec.Predictors.Mu)
	}
}

// logOutcome copies the table with the outcome column log-transformed.
func logOutcome(tbl *dataset.Table, outcome string) (*dataset.Table, error) {
	cols := tbl.Columns()
	out, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}

	data := make([][]float64, len(cols))
	for j, c := range cols {
		col, err := tbl.Column(c)
		if err != nil {
			return nil, err
		}
		data[j] = col
	}

	row := make([]float64, len(cols))
	for i := 0; i < tbl.Len(); i++ {
		for j, c := range cols {
			v := data[j][i]
			if c == outcome {
				if v <= 0 {
					return nil, fmt.Errorf("outcome %q row %d is %v, cannot log-transform", outcome, i, v)
				}
				v = math.Log(v)
			}
			row[j] = v
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
