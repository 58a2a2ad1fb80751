// Package ppc runs posterior predictive checks: replicated datasets drawn
// from the fitted model at a subsample of posterior draws, compared to the
// observed outcome through test statistics.
package ppc

import (
	"fmt"
	"math/rand/v2"

	"github.com/statlab/bayeslab/internal/model"
	"github.com/statlab/bayeslab/internal/posterior"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stat compares one test statistic between the observed outcome and its
// replicated distribution.
type Stat struct {
	// Name is the statistic ("mean", "sd", "min", "max").
	Name string `json:"name"`

	// Observed is the statistic of the real outcome.
	Observed float64 `json:"observed"`

	// RepMean and RepSD summarize the statistic across replications.
	RepMean float64 `json:"rep_mean"`
	RepSD   float64 `json:"rep_sd"`

	// PValue is the posterior predictive p-value: the fraction of
	// replications whose statistic is at least the observed one. Values
	// near 0 or 1 flag misfit on this statistic.
	PValue float64 `json:"p_value"`
}

// Result is the outcome of a posterior predictive check.
type Result struct {
	// Draws is the number of posterior draws actually replicated.
	Draws int `json:"draws"`

	Stats []Stat `json:"stats"`
}

// statFns are the test statistics, in report order.
var statFns = []struct {
	name string
	fn   func([]float64) float64
}{
	{"mean", func(x []float64) float64 { return stat.Mean(x, nil) }},
	{"sd", func(x []float64) float64 { return stat.StdDev(x, nil) }},
	{"min", floats.Min},
	{"max", floats.Max},
}

// Run draws numDraws replicated datasets from the likelihood at evenly
// spaced posterior draws and compares test statistics to the observed
// outcome. Replication noise is deterministic given seed.
func Run(target *model.Target, d *posterior.Draws, numDraws int, seed uint64) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("ppc: %w", err)
	}
	if numDraws < 1 {
		return nil, fmt.Errorf("ppc: draw count %d, want >= 1", numDraws)
	}
	if len(d.Params) != target.Dim() {
		return nil, fmt.Errorf("ppc: draws have %d parameters, model has %d", len(d.Params), target.Dim())
	}

	total := d.TotalDraws()
	if numDraws > total {
		numDraws = total
	}

	y := target.Outcome()
	observed := make([]float64, len(statFns))
	for s, tf := range statFns {
		observed[s] = tf.fn(y)
	}

	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	rep := make([]float64, target.NumObs())
	repStats := make([][]float64, len(statFns))
	for s := range repStats {
		repStats[s] = make([]float64, 0, numDraws)
	}

	perChain := d.NumDraws()
	for k := 0; k < numDraws; k++ {
		// Evenly spaced over the flattened chain-major draw order.
		idx := k * total / numDraws
		theta := d.Chains[idx/perChain][idx%perChain]

		target.PredictiveRand(theta, rng, rep)
		for s, tf := range statFns {
			repStats[s] = append(repStats[s], tf.fn(rep))
		}
	}

	res := &Result{Draws: numDraws, Stats: make([]Stat, len(statFns))}
	for s, tf := range statFns {
		var atLeast int
		for _, v := range repStats[s] {
			if v >= observed[s] {
				atLeast++
			}
		}
		res.Stats[s] = Stat{
			Name:     tf.name,
			Observed: observed[s],
			RepMean:  stat.Mean(repStats[s], nil),
			RepSD:    stat.StdDev(repStats[s], nil),
			PValue:   float64(atLeast) / float64(numDraws),
		}
	}
	return res, nil
}
