// Package classical fits the frequentist reference models the Bayesian
// posteriors are compared against: ordinary least squares and logistic
// regression with maximum-likelihood standard errors.
package classical

import (
	"fmt"
	"math"

	"github.com/statlab/bayeslab/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// Fit is a classical point-estimate fit.
type Fit struct {
	// Names are the coefficient names: intercept first, then covariates.
	Names []string `json:"names"`

	// Coef are the point estimates.
	Coef []float64 `json:"coef"`

	// SE are the asymptotic standard errors.
	SE []float64 `json:"se"`

	// Sigma is the residual standard deviation (OLS only, else NaN).
	Sigma float64 `json:"sigma"`

	// Iterations is the IRLS iteration count (logistic only, else 0).
	Iterations int `json:"iterations,omitempty"`
}

// coefNames matches the Bayesian coefficient naming so comparison tables
// join on the same keys.
func coefNames(covariates []string) []string {
	names := make([]string, 0, len(covariates)+1)
	names = append(names, "mu.intercept")
	for _, c := range covariates {
		names = append(names, "mu."+c)
	}
	return names
}

// OLS fits y on the named covariates (plus intercept) by least squares.
func OLS(ds *dataset.Table, outcome string, covariates []string) (*Fit, error) {
	y, err := ds.Column(outcome)
	if err != nil {
		return nil, fmt.Errorf("ols: outcome: %w", err)
	}
	x, err := ds.Design(covariates)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}

	n, p := x.Dims()
	if n <= p {
		return nil, fmt.Errorf("ols: %d observations cannot identify %d coefficients", n, p)
	}

	var qr mat.QR
	qr.Factorize(x)

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return nil, fmt.Errorf("ols: singular design matrix: %w", err)
	}

	// Residual variance.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	var rss float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}
	sigma2 := rss / float64(n-p)

	// Coefficient covariance: sigma2 * (X'X)^-1.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("ols: gram matrix not invertible: %w", err)
	}

	coef := make([]float64, p)
	se := make([]float64, p)
	for j := 0; j < p; j++ {
		coef[j] = beta.AtVec(j)
		se[j] = math.Sqrt(sigma2 * inv.At(j, j))
	}

	return &Fit{
		Names: coefNames(covariates),
		Coef:  coef,
		SE:    se,
		Sigma: math.Sqrt(sigma2),
	}, nil
}

// Logistic fits a logistic regression of a 0/1 outcome on the named
// covariates (plus intercept) by iteratively reweighted least squares.
func Logistic(ds *dataset.Table, outcome string, covariates []string) (*Fit, error) {
	y, err := ds.Column(outcome)
	if err != nil {
		return nil, fmt.Errorf("logistic: outcome: %w", err)
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("logistic: outcome row %d is %v, want 0 or 1", i, v)
		}
	}
	x, err := ds.Design(covariates)
	if err != nil {
		return nil, fmt.Errorf("logistic: %w", err)
	}

	n, p := x.Dims()
	if n <= p {
		return nil, fmt.Errorf("logistic: %d observations cannot identify %d coefficients", n, p)
	}

	const (
		maxIter = 50
		tol     = 1e-9
	)

	beta := make([]float64, p)
	eta := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	var iter int
	for iter = 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			var e float64
			for j := 0; j < p; j++ {
				e += x.At(i, j) * beta[j]
			}
			eta[i] = e
			pi := 1 / (1 + math.Exp(-e))
			wi := pi * (1 - pi)
			if wi < 1e-10 {
				wi = 1e-10
			}
			w[i] = wi
			z[i] = e + (y[i]-pi)/wi
		}

		next, err := weightedLS(x, w, z)
		if err != nil {
			return nil, fmt.Errorf("logistic: %w", err)
		}

		var delta float64
		for j := 0; j < p; j++ {
			delta += math.Abs(next[j] - beta[j])
		}
		beta = next
		if delta < tol {
			break
		}
	}
	if iter == maxIter {
		return nil, fmt.Errorf("logistic: IRLS did not converge in %d iterations", maxIter)
	}

	// Fitted probabilities saturating to exactly 0 or 1 mean the data are
	// separated and the MLE does not exist.
	for i := 0; i < n; i++ {
		var e float64
		for j := 0; j < p; j++ {
			e += x.At(i, j) * beta[j]
		}
		pi := 1 / (1 + math.Exp(-e))
		if pi == 0 || pi == 1 {
			return nil, fmt.Errorf("logistic: perfectly separated data, no finite estimate")
		}
	}

	// SEs from the inverse Fisher information at the solution.
	info, err := weightedGramInverse(x, w)
	if err != nil {
		return nil, fmt.Errorf("logistic: %w", err)
	}
	se := make([]float64, p)
	for j := 0; j < p; j++ {
		se[j] = math.Sqrt(info.At(j, j))
	}

	return &Fit{
		Names:      coefNames(covariates),
		Coef:       beta,
		SE:         se,
		Sigma:      math.NaN(),
		Iterations: iter + 1,
	}, nil
}

// weightedLS solves (X'WX) b = X'Wz.
func weightedLS(x *mat.Dense, w, z []float64) ([]float64, error) {
	n, p := x.Dims()

	xtwx := mat.NewDense(p, p, nil)
	xtwz := make([]float64, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xij := x.At(i, j)
			xtwz[j] += xij * w[i] * z[i]
			for k := 0; k <= j; k++ {
				xtwx.Set(j, k, xtwx.At(j, k)+xij*w[i]*x.At(i, k))
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := j + 1; k < p; k++ {
			xtwx.Set(j, k, xtwx.At(k, j))
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(xtwx); err != nil {
		return nil, fmt.Errorf("weighted gram matrix not invertible: %w", err)
	}

	b := make([]float64, p)
	for j := 0; j < p; j++ {
		for k := 0; k < p; k++ {
			b[j] += inv.At(j, k) * xtwz[k]
		}
	}
	return b, nil
}

// weightedGramInverse returns (X'WX)^-1.
func weightedGramInverse(x *mat.Dense, w []float64) (*mat.Dense, error) {
	n, p := x.Dims()

	xtwx := mat.NewDense(p, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			for k := 0; k < p; k++ {
				xtwx.Set(j, k, xtwx.At(j, k)+x.At(i, j)*w[i]*x.At(i, k))
			}
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(xtwx); err != nil {
		return nil, fmt.Errorf("fisher information not invertible: %w", err)
	}
	return &inv, nil
}
