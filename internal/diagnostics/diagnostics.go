// Package diagnostics computes MCMC convergence diagnostics: split R-hat
// and effective sample size, per parameter, from raw chain draws.
package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// SplitRHat computes the split-chain potential scale reduction factor for
// one parameter. chains is indexed [chain][iteration]. Each chain is halved,
// so m chains contribute 2m sequences. Requires at least 2 chains with at
// least 4 draws each.
func SplitRHat(chains [][]float64) (float64, error) {
	split, err := splitChains(chains)
	if err != nil {
		return 0, err
	}

	n := len(split[0])
	m := len(split)

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}

	w := stat.Mean(vars, nil)
	b := float64(n) * stat.Variance(means, nil)

	if w == 0 {
		// All sequences constant: identical constants are converged,
		// anything else is undefined.
		if b == 0 {
			return 1, nil
		}
		return math.Inf(1), nil
	}

	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w), nil
}

// ESS computes the effective sample size for one parameter using combined
// per-chain autocovariances with Geyer's initial monotone positive-pair
// truncation. chains is indexed [chain][iteration].
func ESS(chains [][]float64) (float64, error) {
	split, err := splitChains(chains)
	if err != nil {
		return 0, err
	}

	m := len(split)
	n := len(split[0])
	total := float64(m * n)

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := float64(n) * stat.Variance(means, nil)
	if w == 0 {
		return 0, fmt.Errorf("all draws constant, effective sample size undefined")
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)

	// Combined autocorrelation at each lag: 1 - (W - mean autocov)/var+.
	maxLag := n - 1
	rho := make([]float64, maxLag)
	for t := 1; t < maxLag; t++ {
		var acov float64
		for i, c := range split {
			var s float64
			for k := 0; k+t < n; k++ {
				s += (c[k] - means[i]) * (c[k+t] - means[i])
			}
			acov += s / float64(n-t)
		}
		acov /= float64(m)
		rho[t] = 1 - (w-acov)/varPlus
	}

	// Geyer pairs: sum rho while consecutive even/odd pairs stay positive,
	// enforcing monotone decrease.
	var sum float64
	prev := math.Inf(1)
	for t := 1; t+1 < maxLag; t += 2 {
		pair := rho[t] + rho[t+1]
		if pair < 0 {
			break
		}
		if pair > prev {
			pair = prev
		}
		sum += pair
		prev = pair
	}

	tau := 1 + 2*sum
	if tau < 1 {
		tau = 1
	}
	ess := total / tau
	if ess > total {
		ess = total
	}
	return ess, nil
}

// splitChains halves every chain, validating shape.
func splitChains(chains [][]float64) ([][]float64, error) {
	if len(chains) < 2 {
		return nil, fmt.Errorf("need at least 2 chains, got %d", len(chains))
	}
	n := len(chains[0])
	for i, c := range chains {
		if len(c) != n {
			return nil, fmt.Errorf("chain %d has %d draws, chain 0 has %d", i, len(c), n)
		}
	}
	if n < 4 {
		return nil, fmt.Errorf("need at least 4 draws per chain, got %d", n)
	}

	half := n / 2
	split := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		split = append(split, c[:half], c[half:half*2])
	}
	return split, nil
}

// Check is a per-parameter convergence verdict.
type Check struct {
	Param string  `json:"param"`
	RHat  float64 `json:"rhat"`
	ESS   float64 `json:"ess"`
	OK    bool    `json:"ok"`
}

// CheckAll runs SplitRHat and ESS for every parameter. chains is indexed
// [chain][iteration][param]. A parameter passes when its R-hat is at most
// rhatMax and its ESS is at least essMin.
func CheckAll(params []string, chains [][][]float64, rhatMax, essMin float64) ([]Check, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains")
	}

	checks := make([]Check, len(params))
	series := make([][]float64, len(chains))
	for j, name := range params {
		for c, chain := range chains {
			col := make([]float64, len(chain))
			for i, draw := range chain {
				col[i] = draw[j]
			}
			series[c] = col
		}

		rhat, err := SplitRHat(series)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		ess, err := ESS(series)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}

		checks[j] = Check{
			Param: name,
			RHat:  rhat,
			ESS:   ess,
			OK:    rhat <= rhatMax && ess >= essMin,
		}
	}
	return checks, nil
}
