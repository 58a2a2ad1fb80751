package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/statlab/bayeslab/internal/classical"
	"github.com/statlab/bayeslab/internal/posterior"
	"gonum.org/v1/gonum/stat"
)

// Ranked is one model's standing in a multi-model comparison.
type Ranked struct {
	Name string  `json:"name"`
	Elpd float64 `json:"elpd"`
	SE   float64 `json:"se"`

	// ElpdDiff is the elpd difference to the best model (0 for the best).
	ElpdDiff float64 `json:"elpd_diff"`

	// DiffSE is the standard error of ElpdDiff, from the paired
	// per-observation differences (0 for the best).
	DiffSE float64 `json:"diff_se"`

	// BadK counts unreliable observations carried over from the LOO fit.
	BadK int `json:"bad_k"`
}

// Rank orders models by elpd_loo, best first, and computes pairwise
// differences against the best model. All models must have been fit to the
// same observations.
func Rank(loos []*LOO) ([]Ranked, error) {
	if len(loos) == 0 {
		return nil, fmt.Errorf("rank: no models to compare")
	}
	n := len(loos[0].Pointwise)
	for _, l := range loos {
		if len(l.Pointwise) != n {
			return nil, fmt.Errorf("rank: model %q has %d observations, model %q has %d",
				l.Name, len(l.Pointwise), loos[0].Name, n)
		}
	}

	sorted := append([]*LOO(nil), loos...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Elpd > sorted[b].Elpd })
	best := sorted[0]

	out := make([]Ranked, len(sorted))
	diff := make([]float64, n)
	for i, l := range sorted {
		r := Ranked{Name: l.Name, Elpd: l.Elpd, SE: l.SE, BadK: l.BadK}
		if i > 0 {
			for j := 0; j < n; j++ {
				diff[j] = l.Pointwise[j] - best.Pointwise[j]
			}
			r.ElpdDiff = l.Elpd - best.Elpd
			r.DiffSE = math.Sqrt(float64(n) * stat.Variance(diff, nil))
		}
		out[i] = r
	}
	return out, nil
}

// CoefRow is one coefficient's side-by-side comparison: posterior summary
// versus classical point estimate, with the simulation ground truth when
// known.
type CoefRow struct {
	Name     string  `json:"name"`
	PostMean float64 `json:"post_mean"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	MLE      float64 `json:"mle"`
	MLELower float64 `json:"mle_lower"`
	MLEUpper float64 `json:"mle_upper"`
	Truth    float64 `json:"truth"`
	HasTruth bool    `json:"has_truth"`

	// Covered reports whether the credible interval contains the truth.
	// Only meaningful when HasTruth is set.
	Covered bool `json:"covered"`
}

// CoefTable joins posterior summaries with a classical fit on coefficient
// name. Coefficients the classical model does not estimate (scales,
// skewness) get NaN classical columns. truth may be nil.
func CoefTable(sums []posterior.Summary, fit *classical.Fit, truth map[string]float64) []CoefRow {
	mle := map[string]int{}
	if fit != nil {
		for j, name := range fit.Names {
			mle[name] = j
		}
	}

	rows := make([]CoefRow, len(sums))
	for i, s := range sums {
		row := CoefRow{
			Name:     s.Param,
			PostMean: s.Mean,
			Lower:    s.Lower,
			Upper:    s.Upper,
			MLE:      math.NaN(),
			MLELower: math.NaN(),
			MLEUpper: math.NaN(),
			Truth:    math.NaN(),
		}

		if j, ok := mle[s.Param]; ok {
			row.MLE = fit.Coef[j]
			row.MLELower = fit.Coef[j] - 1.96*fit.SE[j]
			row.MLEUpper = fit.Coef[j] + 1.96*fit.SE[j]
		}

		if t, ok := truth[s.Param]; ok {
			row.Truth = t
			row.HasTruth = true
			row.Covered = s.Lower <= t && t <= s.Upper
		}

		rows[i] = row
	}
	return rows
}
