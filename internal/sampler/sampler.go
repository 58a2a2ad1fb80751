// Package sampler draws from a log density by adaptive random-walk
// Metropolis. Chains run concurrently; warmup adapts per-coordinate
// proposal scales toward a target acceptance rate and freezes before
// sampling begins, so kept draws come from a fixed kernel.
package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/statlab/bayeslab/internal/constants"
	"github.com/statlab/bayeslab/internal/logging"
	"golang.org/x/sync/errgroup"
)

// LogDensity is the target the sampler draws from.
type LogDensity interface {
	// Dim returns the dimension of the parameter vector.
	Dim() int

	// LogProb returns the unnormalized log density at theta.
	// NaN or -Inf marks theta as outside the support.
	LogProb(theta []float64) float64
}

// Config controls a sampling run. Zero fields fall back to the package
// defaults in constants.
type Config struct {
	// Chains is the number of independent chains run concurrently.
	Chains int

	// Warmup is the number of adaptation iterations per chain (discarded).
	Warmup int

	// Iterations is the number of kept draws per chain.
	Iterations int

	// Seed is the base RNG seed; chain c uses Seed+c.
	Seed uint64

	// TargetAccept is the acceptance rate adaptation steers toward.
	TargetAccept float64
}

func (c Config) withDefaults() Config {
	if c.Chains == 0 {
		c.Chains = constants.DefaultChains
	}
	if c.Warmup == 0 {
		c.Warmup = constants.DefaultWarmup
	}
	if c.Iterations == 0 {
		c.Iterations = constants.DefaultIterations
	}
	if c.Seed == 0 {
		c.Seed = constants.DefaultSeed
	}
	if c.TargetAccept == 0 {
		c.TargetAccept = constants.DefaultTargetAccept
	}
	return c
}

func (c Config) validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("chains must be at least 1, got %d", c.Chains)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be non-negative, got %d", c.Warmup)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("target accept must be in (0, 1), got %f", c.TargetAccept)
	}
	return nil
}

// Result holds the draws of a sampling run.
type Result struct {
	// Chains is indexed [chain][iteration][coordinate].
	Chains [][][]float64

	// Accept is the post-warmup acceptance rate per chain.
	Accept []float64

	// Config is the effective configuration after defaults.
	Config Config
}

// Run samples from target starting at init. It runs cfg.Chains chains in
// parallel, each with a jittered copy of init and its own RNG stream, and
// honors ctx cancellation between iterations.
func Run(ctx context.Context, target LogDensity, init []float64, cfg Config, tracer *logging.TraceLogger) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dim := target.Dim()
	if len(init) != dim {
		return nil, fmt.Errorf("init has %d coordinates, target has %d", len(init), dim)
	}

	res := &Result{
		Chains: make([][][]float64, cfg.Chains),
		Accept: make([]float64, cfg.Chains),
		Config: cfg,
	}

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < cfg.Chains; c++ {
		g.Go(func() error {
			draws, accept, err := runChain(gctx, target, init, cfg, c, tracer)
			if err != nil {
				return err
			}
			res.Chains[c] = draws
			res.Accept[c] = accept
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// runChain runs one chain: warmup with adaptation, then sampling with the
// kernel frozen.
func runChain(ctx context.Context, target LogDensity, init []float64, cfg Config, chain int, tracer *logging.TraceLogger) ([][]float64, float64, error) {
	dim := target.Dim()
	rng := rand.New(rand.NewPCG(cfg.Seed+uint64(chain), 0xda3e39cb94b95bdb))

	theta := make([]float64, dim)
	copy(theta, init)
	// Chain-specific jitter spreads the starting points.
	for j := range theta {
		theta[j] += 0.1 * rng.NormFloat64()
	}

	lp := target.LogProb(theta)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return nil, 0, fmt.Errorf("chain %d: initial point has non-finite log density %v", chain, lp)
	}

	// Per-coordinate proposal scales, rescaled during warmup from a global
	// step size and the running posterior sd estimate.
	global := 2.38 / math.Sqrt(float64(dim))
	scales := make([]float64, dim)
	for j := range scales {
		scales[j] = global
	}

	// Welford accumulators for the per-coordinate variance during warmup.
	count := 0
	mean := make([]float64, dim)
	m2 := make([]float64, dim)

	proposal := make([]float64, dim)
	windowAccepts := 0

	step := func(adapting bool) bool {
		for j := range proposal {
			proposal[j] = theta[j] + scales[j]*rng.NormFloat64()
		}
		lpNew := target.LogProb(proposal)

		// Non-finite evaluations are rejections, never kept draws.
		accepted := false
		if !math.IsNaN(lpNew) && !math.IsInf(lpNew, 1) {
			if lpNew-lp >= 0 || math.Log(rng.Float64()) < lpNew-lp {
				copy(theta, proposal)
				lp = lpNew
				accepted = true
			}
		}

		if adapting {
			count++
			for j := range theta {
				d := theta[j] - mean[j]
				mean[j] += d / float64(count)
				m2[j] += d * (theta[j] - mean[j])
			}
		}
		return accepted
	}

	// Warmup.
	for i := 0; i < cfg.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if step(true) {
			windowAccepts++
		}

		if (i+1)%constants.AdaptWindow == 0 {
			rate := float64(windowAccepts) / float64(constants.AdaptWindow)
			global *= math.Exp(rate - cfg.TargetAccept)
			for j := range scales {
				sd := 1.0
				if count > 1 {
					sd = math.Sqrt(m2[j] / float64(count-1))
					if sd < 1e-3 {
						sd = 1e-3
					}
				}
				scales[j] = global * sd
			}
			tracer.Log(logging.Event{
				Kind:   "adapt",
				Chain:  chain,
				Iter:   i + 1,
				Accept: rate,
				Scale:  global,
			})
			windowAccepts = 0
		}
	}

	// Sampling with the kernel frozen.
	draws := make([][]float64, cfg.Iterations)
	accepts := 0
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if step(false) {
			accepts++
		}
		draw := make([]float64, dim)
		copy(draw, theta)
		draws[i] = draw
	}

	accept := float64(accepts) / float64(cfg.Iterations)
	tracer.Log(logging.Event{
		Kind:   "chain_done",
		Chain:  chain,
		Accept: accept,
	})

	return draws, accept, nil
}
