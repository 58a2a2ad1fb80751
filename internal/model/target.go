package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/statlab/bayeslab/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// block is one distributional parameter's linear predictor: a design matrix
// and the coefficient offset into the flat parameter vector.
type block struct {
	name   string
	design *mat.Dense
	offset int
	width  int
}

// Target is a model spec compiled against a dataset: an unnormalized
// log-posterior density over the flat coefficient vector, plus the
// pointwise log-likelihood and posterior predictive draws the later
// pipeline stages need.
type Target struct {
	spec   *Spec
	y      []float64
	names  []string
	priors []Prior
	blocks []block
	n      int
}

// Compile binds the spec to a dataset. It validates column references and
// outcome support (0/1 for bernoulli, positive for lognormal).
func (s *Spec) Compile(ds *dataset.Table) (*Target, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := ds.CheckFinite(); err != nil {
		return nil, fmt.Errorf("model %q: %w", s.Name, err)
	}

	y, err := ds.Column(s.Outcome)
	if err != nil {
		return nil, fmt.Errorf("model %q: outcome: %w", s.Name, err)
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("model %q: dataset has no rows", s.Name)
	}

	switch s.Family {
	case FamilyBernoulli:
		for i, v := range y {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("model %q: bernoulli outcome %q row %d is %v, want 0 or 1", s.Name, s.Outcome, i, v)
			}
		}
	case FamilyLogNormal:
		for i, v := range y {
			if v <= 0 {
				return nil, fmt.Errorf("model %q: lognormal outcome %q row %d is %v, want > 0", s.Name, s.Outcome, i, v)
			}
		}
	}

	t := &Target{spec: s, y: y, n: len(y)}

	addBlock := func(name string, covariates []string) error {
		x, err := ds.Design(covariates)
		if err != nil {
			return fmt.Errorf("model %q: %s predictor: %w", s.Name, name, err)
		}
		_, width := x.Dims()
		t.blocks = append(t.blocks, block{name: name, design: x, offset: len(t.names), width: width})

		t.names = append(t.names, name+".intercept")
		for _, c := range covariates {
			t.names = append(t.names, name+"."+c)
		}
		return nil
	}

	if err := addBlock("mu", s.Predictors.Mu); err != nil {
		return nil, err
	}
	if s.Family != FamilyBernoulli {
		if err := addBlock("sigma", s.Predictors.Sigma); err != nil {
			return nil, err
		}
	}
	if s.Family == FamilySkewNormal {
		if err := addBlock("alpha", s.Predictors.Alpha); err != nil {
			return nil, err
		}
	}

	t.priors = make([]Prior, len(t.names))
	for i, name := range t.names {
		if expr, ok := s.Priors[name]; ok {
			p, err := ParsePrior(expr)
			if err != nil {
				return nil, fmt.Errorf("model %q: prior for %q: %w", s.Name, name, err)
			}
			t.priors[i] = p
		} else {
			t.priors[i] = DefaultPrior()
		}
	}

	return t, nil
}

// Spec returns the spec this target was compiled from.
func (t *Target) Spec() *Spec { return t.spec }

// Dim returns the number of free coefficients.
func (t *Target) Dim() int { return len(t.names) }

// NumObs returns the number of observations.
func (t *Target) NumObs() int { return t.n }

// ParamNames returns the flat coefficient names, block by block.
func (t *Target) ParamNames() []string {
	return append([]string(nil), t.names...)
}

// Outcome returns the observed outcome column.
func (t *Target) Outcome() []float64 { return t.y }

// InitPoint returns the sampler starting point: all coefficients zero,
// which puts scales at exp(0)=1 and skewness at 0. Chains add jitter.
func (t *Target) InitPoint() []float64 {
	return make([]float64, len(t.names))
}

// Prior returns the prior attached to coefficient i.
func (t *Target) Prior(i int) Prior { return t.priors[i] }

// LogPrior evaluates the joint log-prior at theta.
func (t *Target) LogPrior(theta []float64) float64 {
	var lp float64
	for i, p := range t.priors {
		lp += p.LogProb(theta[i])
	}
	return lp
}

// linpred fills dst with the linear predictor of block b at theta.
func (t *Target) linpred(b block, theta []float64, dst []float64) {
	coef := theta[b.offset : b.offset+b.width]
	for i := 0; i < t.n; i++ {
		var eta float64
		for j := 0; j < b.width; j++ {
			eta += b.design.At(i, j) * coef[j]
		}
		dst[i] = eta
	}
}

// params evaluates all distributional parameters at theta on their natural
// scales: location, scale (exp of the sigma predictor), skewness.
// Slices are sized n; sigma and alpha are nil for families without them.
func (t *Target) params(theta []float64) (mu, sigma, alpha []float64) {
	mu = make([]float64, t.n)
	t.linpred(t.blocks[0], theta, mu)

	for _, b := range t.blocks[1:] {
		vals := make([]float64, t.n)
		t.linpred(b, theta, vals)
		switch b.name {
		case "sigma":
			for i, v := range vals {
				vals[i] = math.Exp(v)
			}
			sigma = vals
		case "alpha":
			alpha = vals
		}
	}
	return mu, sigma, alpha
}

// PointwiseLogLik fills dst (length NumObs) with the per-observation
// log-likelihood at theta.
func (t *Target) PointwiseLogLik(theta []float64, dst []float64) {
	mu, sigma, alpha := t.params(theta)

	switch t.spec.Family {
	case FamilyNormal:
		for i := range dst {
			dst[i] = normLogPDF((t.y[i]-mu[i])/sigma[i]) - math.Log(sigma[i])
		}
	case FamilyLogNormal:
		for i := range dst {
			ly := math.Log(t.y[i])
			dst[i] = normLogPDF((ly-mu[i])/sigma[i]) - math.Log(sigma[i]) - ly
		}
	case FamilySkewNormal:
		for i := range dst {
			z := (t.y[i] - mu[i]) / sigma[i]
			dst[i] = math.Ln2 + normLogPDF(z) - math.Log(sigma[i]) + logNormCDF(alpha[i]*z)
		}
	case FamilyBernoulli:
		for i := range dst {
			// mu is the logit here; stable Bernoulli log-lik.
			dst[i] = t.y[i]*mu[i] - softplus(mu[i])
		}
	}
}

// LogLikelihood evaluates the total log-likelihood at theta.
func (t *Target) LogLikelihood(theta []float64) float64 {
	dst := make([]float64, t.n)
	t.PointwiseLogLik(theta, dst)
	var sum float64
	for _, v := range dst {
		sum += v
	}
	return sum
}

// LogProb evaluates the unnormalized log-posterior at theta. This is the
// density the sampler targets.
func (t *Target) LogProb(theta []float64) float64 {
	return t.LogPrior(theta) + t.LogLikelihood(theta)
}

// PredictiveRand fills dst (length NumObs) with one replicated dataset
// drawn from the likelihood at theta. Used for posterior predictive checks.
func (t *Target) PredictiveRand(theta []float64, rng *rand.Rand, dst []float64) {
	mu, sigma, alpha := t.params(theta)

	switch t.spec.Family {
	case FamilyNormal:
		for i := range dst {
			dst[i] = mu[i] + sigma[i]*rng.NormFloat64()
		}
	case FamilyLogNormal:
		for i := range dst {
			dst[i] = math.Exp(mu[i] + sigma[i]*rng.NormFloat64())
		}
	case FamilySkewNormal:
		for i := range dst {
			delta := alpha[i] / math.Sqrt(1+alpha[i]*alpha[i])
			u0 := rng.NormFloat64()
			u1 := rng.NormFloat64()
			z := delta*math.Abs(u0) + math.Sqrt(1-delta*delta)*u1
			dst[i] = mu[i] + sigma[i]*z
		}
	case FamilyBernoulli:
		for i := range dst {
			p := 1 / (1 + math.Exp(-mu[i]))
			if rng.Float64() < p {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}
}

// normLogPDF is the standard normal log density.
func normLogPDF(z float64) float64 {
	const logSqrt2Pi = 0.9189385332046727
	return -0.5*z*z - logSqrt2Pi
}

// logNormCDF is log Phi(x), switching to the asymptotic expansion in the
// far left tail where Phi(x) underflows.
func logNormCDF(x float64) float64 {
	if x > -8 {
		return math.Log(distuv.UnitNormal.CDF(x))
	}
	// Phi(x) ~ phi(x)/(-x) for x << 0.
	return normLogPDF(x) - math.Log(-x)
}

// softplus is log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
