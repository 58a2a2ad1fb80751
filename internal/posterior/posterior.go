// Package posterior holds draws from a fitted model and computes posterior
// summaries: means, spreads, Monte Carlo errors, and credible intervals.
package posterior

import (
	"fmt"
	"math"
	"sort"

	"github.com/statlab/bayeslab/internal/diagnostics"
	"gonum.org/v1/gonum/stat"
)

// Draws is the posterior sample of a run: one parameter vector per kept
// iteration, per chain.
type Draws struct {
	// Params names the coordinates of each draw.
	Params []string

	// Chains is indexed [chain][iteration][param].
	Chains [][][]float64
}

// NumChains returns the number of chains.
func (d *Draws) NumChains() int { return len(d.Chains) }

// NumDraws returns the number of kept draws per chain.
func (d *Draws) NumDraws() int {
	if len(d.Chains) == 0 {
		return 0
	}
	return len(d.Chains[0])
}

// TotalDraws returns draws across all chains.
func (d *Draws) TotalDraws() int { return d.NumChains() * d.NumDraws() }

// Validate checks the draws are rectangular and non-empty.
func (d *Draws) Validate() error {
	if len(d.Params) == 0 {
		return fmt.Errorf("draws have no parameters")
	}
	if len(d.Chains) == 0 {
		return fmt.Errorf("draws have no chains")
	}
	n := len(d.Chains[0])
	if n == 0 {
		return fmt.Errorf("chains have no draws")
	}
	for c, chain := range d.Chains {
		if len(chain) != n {
			return fmt.Errorf("chain %d has %d draws, chain 0 has %d", c, len(chain), n)
		}
		for i, draw := range chain {
			if len(draw) != len(d.Params) {
				return fmt.Errorf("chain %d draw %d has %d coordinates, want %d", c, i, len(draw), len(d.Params))
			}
		}
	}
	return nil
}

// ParamIndex returns the coordinate index of the named parameter.
func (d *Draws) ParamIndex(name string) (int, error) {
	for j, p := range d.Params {
		if p == name {
			return j, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// Flatten returns all draws of coordinate j across chains, chain by chain.
func (d *Draws) Flatten(j int) []float64 {
	out := make([]float64, 0, d.TotalDraws())
	for _, chain := range d.Chains {
		for _, draw := range chain {
			out = append(out, draw[j])
		}
	}
	return out
}

// ChainSeries returns coordinate j as per-chain series, the shape the
// diagnostics package consumes.
func (d *Draws) ChainSeries(j int) [][]float64 {
	series := make([][]float64, len(d.Chains))
	for c, chain := range d.Chains {
		col := make([]float64, len(chain))
		for i, draw := range chain {
			col[i] = draw[j]
		}
		series[c] = col
	}
	return series
}

// Each calls fn for every draw across chains, in chain-major order.
func (d *Draws) Each(fn func(theta []float64)) {
	for _, chain := range d.Chains {
		for _, draw := range chain {
			fn(draw)
		}
	}
}

// Summary is the posterior summary of one parameter.
type Summary struct {
	Param string  `json:"param"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
	MCSE  float64 `json:"mcse"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	ESS   float64 `json:"ess"`
	RHat  float64 `json:"rhat"`
}

// Summarize computes per-parameter posterior summaries with a central
// credible interval of the given mass. Requires at least 2 chains for the
// convergence columns.
func Summarize(d *Draws, mass float64) ([]Summary, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if mass <= 0 || mass >= 1 {
		return nil, fmt.Errorf("interval mass must be in (0, 1), got %v", mass)
	}

	out := make([]Summary, len(d.Params))
	tail := (1 - mass) / 2

	for j, name := range d.Params {
		xs := d.Flatten(j)
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)

		mean := stat.Mean(xs, nil)
		sd := stat.StdDev(xs, nil)

		// Convergence columns need multiple chains; a single chain still
		// gets location and interval summaries.
		rhat, ess := math.NaN(), math.NaN()
		if d.NumChains() >= 2 && d.NumDraws() >= 4 {
			series := d.ChainSeries(j)
			var err error
			rhat, err = diagnostics.SplitRHat(series)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			if v, err := diagnostics.ESS(series); err == nil {
				ess = v
			}
		}

		mcse := math.NaN()
		if !math.IsNaN(ess) && ess > 0 {
			mcse = sd / math.Sqrt(ess)
		}

		out[j] = Summary{
			Param: name,
			Mean:  mean,
			SD:    sd,
			MCSE:  mcse,
			Lower: stat.Quantile(tail, stat.Empirical, sorted, nil),
			Upper: stat.Quantile(1-tail, stat.Empirical, sorted, nil),
			ESS:   ess,
			RHat:  rhat,
		}
	}
	return out, nil
}
