package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/statlab/bayeslab/internal/compare"
	"github.com/statlab/bayeslab/internal/constants"
	"github.com/statlab/bayeslab/internal/posterior"
	"github.com/statlab/bayeslab/internal/session"
)

// registerTools registers all bayeslab MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bayeslab_simulate",
		Description: "Generate a dataset from a built-in scenario with known ground truth",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bayeslab_fit",
		Description: "Fit a YAML model spec to a stored dataset with MCMC and store the run",
	}, s.handleFit)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bayeslab_summary",
		Description: "Posterior summaries and convergence diagnostics for a stored run",
	}, s.handleSummary)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bayeslab_compare",
		Description: "Rank stored runs by PSIS-LOO expected log predictive density",
	}, s.handleCompare)
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (*sdk.CallToolResult, SimulateOutput, error) {
	ds, tbl, err := s.session.Simulate(ctx, session.SimulateParams{
		Scenario: args.Scenario,
		N:        args.N,
		Seed:     args.Seed,
		Name:     args.Name,
	})
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	return nil, SimulateOutput{
		Dataset: ds.Name,
		Path:    ds.Path,
		Rows:    ds.Rows,
		Columns: tbl.Columns(),
		Truth:   ds.Truth,
	}, nil
}

func (s *Server) handleFit(ctx context.Context, req *sdk.CallToolRequest, args FitInput) (*sdk.CallToolResult, FitOutput, error) {
	res, err := s.session.Fit(ctx, session.FitParams{
		SpecYAML:   args.Spec,
		Dataset:    args.Dataset,
		Chains:     args.Chains,
		Warmup:     args.Warmup,
		Iterations: args.Iterations,
		Seed:       args.Seed,
	})
	if err != nil {
		return nil, FitOutput{}, err
	}

	return nil, FitOutput{
		RunID:  res.Run.ID,
		Model:  res.Run.Model,
		Params: res.Draws.Params,
		Accept: res.Run.Accept,
	}, nil
}

func (s *Server) handleSummary(ctx context.Context, req *sdk.CallToolRequest, args SummaryInput) (*sdk.CallToolResult, SummaryOutput, error) {
	run, err := s.session.Store.GetRun(ctx, args.RunID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	draws, err := s.session.Store.LoadDraws(ctx, args.RunID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	mass := args.Mass
	if mass == 0 {
		mass = s.session.Config.Summary.IntervalMass
	}
	sums, err := posterior.Summarize(draws, mass)
	if err != nil {
		return nil, SummaryOutput{}, fmt.Errorf("summarizing run %d: %w", args.RunID, err)
	}

	return nil, SummaryOutput{
		RunID:     run.ID,
		Model:     run.Model,
		Dataset:   run.Dataset,
		Summaries: sums,
	}, nil
}

func (s *Server) handleCompare(ctx context.Context, req *sdk.CallToolRequest, args CompareInput) (*sdk.CallToolResult, CompareOutput, error) {
	if len(args.RunIDs) < 2 {
		return nil, CompareOutput{}, fmt.Errorf("need at least 2 runs to compare, got %d", len(args.RunIDs))
	}

	loos := make([]*compare.LOO, 0, len(args.RunIDs))
	var dataset string
	for _, id := range args.RunIDs {
		run, err := s.session.Store.GetRun(ctx, id)
		if err != nil {
			return nil, CompareOutput{}, err
		}
		if dataset == "" {
			dataset = run.Dataset
		} else if run.Dataset != dataset {
			return nil, CompareOutput{}, fmt.Errorf("run %d fits dataset %q, others fit %q", id, run.Dataset, dataset)
		}
		ll, err := s.session.Store.LoadLogLik(ctx, id)
		if err != nil {
			return nil, CompareOutput{}, err
		}
		loo, err := compare.PSISLOO(run.Model, ll, constants.ParetoKWarnThreshold)
		if err != nil {
			return nil, CompareOutput{}, fmt.Errorf("run %d: %w", id, err)
		}
		loos = append(loos, loo)
	}

	ranked, err := compare.Rank(loos)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	return nil, CompareOutput{Ranked: ranked}, nil
}
