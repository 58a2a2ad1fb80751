// Package session ties one workspace's resources together: its config,
// run store, and loggers. The CLI and the MCP server both drive the
// pipeline through a Session so the two surfaces behave identically.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/statlab/bayeslab/internal/config"
	"github.com/statlab/bayeslab/internal/dataset"
	"github.com/statlab/bayeslab/internal/logging"
	"github.com/statlab/bayeslab/internal/model"
	"github.com/statlab/bayeslab/internal/posterior"
	"github.com/statlab/bayeslab/internal/sampler"
	"github.com/statlab/bayeslab/internal/simulate"
	"github.com/statlab/bayeslab/internal/store"
	"gonum.org/v1/gonum/mat"
)

// Session is an open workspace.
type Session struct {
	Root   string
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger
	Tracer *logging.TraceLogger
}

// Open loads the workspace config and opens the run store under root.
// Log output goes to logw (typically stderr).
func Open(root string, logw io.Writer) (*Session, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	st, err := store.Open(root)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &Session{
		Root:   root,
		Config: cfg,
		Store:  st,
		Logger: logging.NewLogger(cfg.Logging.Level, logw),
		Tracer: logging.NewTraceLogger(store.WorkDir(root), cfg.Logging.Level),
	}, nil
}

// Close releases the store and trace log.
func (s *Session) Close() error {
	s.Tracer.Close()
	return s.Store.Close()
}

// SimulateParams selects a scenario to generate and the dataset name to
// store it under.
type SimulateParams struct {
	Scenario string
	N        int
	Seed     uint64
	Name     string // defaults to the scenario name
}

// Simulate generates a dataset, writes its CSV cache file, and records it
// in the store with its ground truth.
func (s *Session) Simulate(ctx context.Context, p SimulateParams) (*store.Dataset, *dataset.Table, error) {
	if p.Name == "" {
		p.Name = p.Scenario
	}
	if p.Seed == 0 {
		p.Seed = s.Config.Sampler.Seed
	}

	res, err := simulate.Run(simulate.Config{
		Scenario: simulate.Scenario(p.Scenario),
		N:        p.N,
		Seed:     p.Seed,
	})
	if err != nil {
		return nil, nil, err
	}

	path := filepath.Join(store.DataDir(s.Root), p.Name+".csv")
	if err := res.Table.WriteCSV(path); err != nil {
		return nil, nil, fmt.Errorf("caching dataset: %w", err)
	}

	ds := &store.Dataset{
		Name:     p.Name,
		Path:     path,
		Scenario: p.Scenario,
		Truth:    res.Truth,
		Seed:     p.Seed,
		Rows:     res.Table.Len(),
	}
	if err := s.Store.SaveDataset(ctx, ds); err != nil {
		return nil, nil, err
	}

	s.Logger.Info("simulated dataset",
		"name", p.Name, "scenario", p.Scenario, "rows", ds.Rows, "seed", p.Seed)
	return ds, res.Table, nil
}

// LoadTable reads a stored dataset's CSV cache.
func (s *Session) LoadTable(ctx context.Context, name string) (*store.Dataset, *dataset.Table, error) {
	ds, err := s.Store.GetDataset(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := dataset.ReadCSV(ds.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset %q: %w", name, err)
	}
	return ds, tbl, nil
}

// FitParams selects a model spec, the dataset to fit it against, and
// sampler overrides (zero values fall back to the workspace config).
type FitParams struct {
	SpecYAML string
	Dataset  string

	Chains     int
	Warmup     int
	Iterations int
	Seed       uint64
}

// FitResult is a completed, stored fit.
type FitResult struct {
	Run    *store.Run
	Draws  *posterior.Draws
	Target *model.Target
	LogLik *mat.Dense
}

// Fit parses the spec, compiles it against the dataset, samples, computes
// the pointwise log-likelihood over all kept draws, and stores the run.
func (s *Session) Fit(ctx context.Context, p FitParams) (*FitResult, error) {
	spec, err := model.Parse([]byte(p.SpecYAML))
	if err != nil {
		return nil, err
	}

	_, tbl, err := s.LoadTable(ctx, p.Dataset)
	if err != nil {
		return nil, err
	}

	target, err := spec.Compile(tbl)
	if err != nil {
		return nil, err
	}

	scfg := sampler.Config{
		Chains:       p.Chains,
		Warmup:       p.Warmup,
		Iterations:   p.Iterations,
		Seed:         p.Seed,
		TargetAccept: s.Config.Sampler.TargetAccept,
	}
	if scfg.Chains == 0 {
		scfg.Chains = s.Config.Sampler.Chains
	}
	if scfg.Warmup == 0 {
		scfg.Warmup = s.Config.Sampler.Warmup
	}
	if scfg.Iterations == 0 {
		scfg.Iterations = s.Config.Sampler.Iterations
	}
	if scfg.Seed == 0 {
		scfg.Seed = s.Config.Sampler.Seed
	}

	s.Logger.Info("sampling",
		"model", spec.Name, "dataset", p.Dataset,
		"chains", scfg.Chains, "warmup", scfg.Warmup, "iterations", scfg.Iterations,
		"seed", scfg.Seed)

	res, err := sampler.Run(ctx, target, target.InitPoint(), scfg, s.Tracer)
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", spec.Name, err)
	}

	draws := &posterior.Draws{Params: target.ParamNames(), Chains: res.Chains}
	loglik := pointwiseLogLik(target, draws)

	run := &store.Run{
		Model:        spec.Name,
		SpecYAML:     p.SpecYAML,
		Dataset:      p.Dataset,
		Chains:       res.Config.Chains,
		Warmup:       res.Config.Warmup,
		Iterations:   res.Config.Iterations,
		Seed:         res.Config.Seed,
		TargetAccept: res.Config.TargetAccept,
		Accept:       res.Accept,
	}
	id, err := s.Store.SaveRun(ctx, run, draws, loglik)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("run stored", "run_id", id, "model", spec.Name, "accept", res.Accept)
	return &FitResult{Run: run, Draws: draws, Target: target, LogLik: loglik}, nil
}

// CompileRun rebuilds the compiled target of a stored run, for operations
// that need the dataset-bound density again (PPC, classical refits).
func (s *Session) CompileRun(ctx context.Context, run *store.Run) (*model.Target, *dataset.Table, error) {
	spec, err := model.Parse([]byte(run.SpecYAML))
	if err != nil {
		return nil, nil, fmt.Errorf("run %d spec: %w", run.ID, err)
	}
	_, tbl, err := s.LoadTable(ctx, run.Dataset)
	if err != nil {
		return nil, nil, err
	}
	target, err := spec.Compile(tbl)
	if err != nil {
		return nil, nil, fmt.Errorf("run %d: %w", run.ID, err)
	}
	return target, tbl, nil
}

// pointwiseLogLik evaluates the per-observation log-likelihood at every
// kept draw, in chain-major draw order.
func pointwiseLogLik(target *model.Target, draws *posterior.Draws) *mat.Dense {
	ll := mat.NewDense(draws.TotalDraws(), target.NumObs(), nil)
	row := 0
	draws.Each(func(theta []float64) {
		target.PointwiseLogLik(theta, ll.RawRowView(row))
		row++
	})
	return ll
}
