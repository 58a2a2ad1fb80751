// Package compare ranks fitted models by estimated out-of-sample predictive
// accuracy (PSIS-LOO elpd) and contrasts Bayesian posteriors with classical
// point-estimate fits.
package compare

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minTail is the smallest tail length the generalized Pareto fit accepts.
const minTail = 5

// LOO is the PSIS-LOO estimate for one fitted model.
type LOO struct {
	// Name identifies the model.
	Name string `json:"name"`

	// Elpd is the leave-one-out expected log predictive density estimate.
	Elpd float64 `json:"elpd"`

	// SE is the standard error of Elpd.
	SE float64 `json:"se"`

	// Pointwise holds the per-observation elpd contributions.
	Pointwise []float64 `json:"pointwise"`

	// KHat holds the per-observation Pareto shape diagnostic. NaN marks
	// observations where the tail was too short to fit and truncated
	// importance sampling was used instead.
	KHat []float64 `json:"khat"`

	// BadK counts observations with k-hat above the reliability threshold.
	BadK int `json:"bad_k"`
}

// PSISLOO computes the Pareto-smoothed importance-sampling LOO estimate
// from a pointwise log-likelihood matrix with one row per posterior draw
// and one column per observation. kThreshold is the k-hat level above
// which an observation counts as unreliable (NaN k-hats never count).
func PSISLOO(name string, loglik *mat.Dense, kThreshold float64) (*LOO, error) {
	s, n := loglik.Dims()
	if s < 2*minTail {
		return nil, fmt.Errorf("psis-loo: need at least %d draws, got %d", 2*minTail, s)
	}
	if n == 0 {
		return nil, fmt.Errorf("psis-loo: log-likelihood matrix has no observations")
	}

	out := &LOO{
		Name:      name,
		Pointwise: make([]float64, n),
		KHat:      make([]float64, n),
	}

	ll := make([]float64, s)
	lw := make([]float64, s)
	sum := make([]float64, s)

	for i := 0; i < n; i++ {
		for d := 0; d < s; d++ {
			v := loglik.At(d, i)
			if math.IsNaN(v) || math.IsInf(v, 1) {
				return nil, fmt.Errorf("psis-loo: non-finite log-likelihood for draw %d observation %d", d, i)
			}
			ll[d] = v
			lw[d] = -v
		}

		// Center the raw log weights so the largest is 0.
		maxLw := floats.Max(lw)
		for d := range lw {
			lw[d] -= maxLw
		}

		khat := smoothTail(lw)
		out.KHat[i] = khat
		if math.IsNaN(khat) {
			truncateWeights(lw)
		} else if khat > kThreshold {
			out.BadK++
		}

		// elpd_i = log( sum w*lik / sum w ) in log space.
		for d := range lw {
			sum[d] = lw[d] + ll[d]
		}
		out.Pointwise[i] = floats.LogSumExp(sum) - floats.LogSumExp(lw)
	}

	for _, v := range out.Pointwise {
		out.Elpd += v
	}
	out.SE = math.Sqrt(float64(n) * stat.Variance(out.Pointwise, nil))

	return out, nil
}

// truncateWeights caps the centered log weights at sqrt(S) times their
// mean, the standard truncated importance-sampling bound.
func truncateWeights(lw []float64) {
	s := float64(len(lw))
	bound := floats.LogSumExp(lw) - 0.5*math.Log(s)
	for d := range lw {
		if lw[d] > bound {
			lw[d] = bound
		}
	}
}

// smoothTail replaces the upper tail of the centered log weights with
// expected order statistics of a fitted generalized Pareto distribution,
// then truncates at the raw maximum (0 after centering). Returns the
// fitted Pareto k-hat, or NaN when no fit was possible; the caller falls
// back to truncated importance sampling in that case.
func smoothTail(lw []float64) float64 {
	s := len(lw)
	tailLen := int(math.Min(0.2*float64(s), 3*math.Sqrt(float64(s))))
	if tailLen < minTail {
		return math.NaN()
	}

	// Order of the log weights, ascending.
	order := make([]int, s)
	for d := range order {
		order[d] = d
	}
	sort.Slice(order, func(a, b int) bool { return lw[order[a]] < lw[order[b]] })

	cutoffIdx := s - tailLen - 1
	cutoff := math.Exp(lw[order[cutoffIdx]])

	// Exceedances over the cutoff, ascending.
	exceed := make([]float64, tailLen)
	for j := 0; j < tailLen; j++ {
		exceed[j] = math.Exp(lw[order[cutoffIdx+1+j]]) - cutoff
	}
	if exceed[tailLen-1] <= 0 {
		// Degenerate tail (ties everywhere): nothing to smooth.
		return math.NaN()
	}

	khat, sigma := gpdFit(exceed)
	if math.IsNaN(khat) || math.IsInf(khat, 0) || sigma <= 0 {
		return math.NaN()
	}

	// Replace the tail with GPD quantiles at plotting positions, capped at
	// the raw maximum weight (1 after centering).
	for j := 0; j < tailLen; j++ {
		p := (float64(j) + 0.5) / float64(tailLen)
		w := cutoff + gpdQuantile(p, khat, sigma)
		if w > 1 {
			w = 1
		}
		lw[order[cutoffIdx+1+j]] = math.Log(w)
	}

	return khat
}

// gpdFit estimates the generalized Pareto shape and scale from sorted
// ascending exceedances using the Zhang–Stephens posterior-mean estimator
// with the usual weak shape prior.
func gpdFit(x []float64) (k, sigma float64) {
	n := len(x)
	const (
		priorB = 3.0
		priorK = 10.0
	)

	quartIdx := int(float64(n)/4+0.5) - 1
	if quartIdx < 0 {
		quartIdx = 0
	}
	quart := x[quartIdx]
	top := x[n-1]
	if quart <= 0 {
		// First quartile at zero: fall back to the top value for the scale
		// of the candidate grid.
		quart = top
	}

	m := 30 + int(math.Sqrt(float64(n)))
	bs := make([]float64, m)
	ls := make([]float64, m)
	ks := make([]float64, m)

	for j := 0; j < m; j++ {
		b := 1/top + (1-math.Sqrt(float64(m)/(float64(j+1)-0.5)))/(priorB*quart)
		bs[j] = b

		var mean float64
		for _, xi := range x {
			mean += math.Log1p(-b * xi)
		}
		mean /= float64(n)
		ks[j] = mean
		ls[j] = float64(n) * (math.Log(-b/mean) - mean - 1)
	}

	// Posterior weights over the candidate grid.
	lse := floats.LogSumExp(ls)
	var bPost float64
	for j := 0; j < m; j++ {
		bPost += bs[j] * math.Exp(ls[j]-lse)
	}

	var kPost float64
	for _, xi := range x {
		kPost += math.Log1p(-bPost * xi)
	}
	kPost /= float64(n)

	sigma = -kPost / bPost
	// Shrink k toward 0.5 to regularize short tails.
	k = (float64(n)*kPost + priorK*0.5) / (float64(n) + priorK)
	return k, sigma
}

// gpdQuantile is the inverse CDF of the generalized Pareto distribution
// with shape k and scale sigma.
func gpdQuantile(p, k, sigma float64) float64 {
	if math.Abs(k) < 1e-12 {
		return -sigma * math.Log1p(-p)
	}
	return sigma / k * (math.Pow(1-p, -k) - 1)
}
