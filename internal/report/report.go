// Package report renders pipeline results as fixed-width text tables for
// the CLI's human-readable output. JSON output bypasses this package.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/statlab/bayeslab/internal/compare"
	"github.com/statlab/bayeslab/internal/diagnostics"
	"github.com/statlab/bayeslab/internal/posterior"
	"github.com/statlab/bayeslab/internal/ppc"
)

// num formats a value for table cells, with "-" for NaN.
func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func rule(n int) string {
	return strings.Repeat("-", n)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// RenderSummaries writes the posterior summary table: one row per
// parameter with moments, credible interval, and convergence diagnostics.
func RenderSummaries(w io.Writer, sums []posterior.Summary, mass float64) {
	fmt.Fprintf(w, "Posterior summary (%.0f%% interval):\n\n", mass*100)
	fmt.Fprintf(w, "%-20s %9s %9s %9s %9s %9s %7s %6s\n",
		"Parameter", "Mean", "SD", "MCSE", "Lower", "Upper", "ESS", "RHat")
	fmt.Fprintln(w, rule(84))

	for _, s := range sums {
		fmt.Fprintf(w, "%-20s %9s %9s %9s %9s %9s %7.0f %6s\n",
			truncate(s.Param, 20), num(s.Mean), num(s.SD), num(s.MCSE),
			num(s.Lower), num(s.Upper), s.ESS, num(s.RHat))
	}
}

// RenderDiagnostics writes the convergence check table and per-chain
// acceptance rates.
func RenderDiagnostics(w io.Writer, checks []diagnostics.Check, accept []float64) {
	fmt.Fprintf(w, "Convergence diagnostics:\n\n")
	fmt.Fprintf(w, "%-20s %8s %9s %6s\n", "Parameter", "RHat", "ESS", "OK")
	fmt.Fprintln(w, rule(46))

	allOK := true
	for _, c := range checks {
		status := "yes"
		if !c.OK {
			status = "NO"
			allOK = false
		}
		fmt.Fprintf(w, "%-20s %8s %9.0f %6s\n", truncate(c.Param, 20), num(c.RHat), c.ESS, status)
	}

	fmt.Fprintf(w, "\nAcceptance rates:")
	for c, a := range accept {
		fmt.Fprintf(w, " chain %d: %.2f", c, a)
	}
	fmt.Fprintln(w)

	if !allOK {
		fmt.Fprintln(w, "\nSome parameters failed convergence checks. Consider more iterations or longer warmup.")
	}
}

// RenderLOO writes one model's PSIS-LOO estimate with its tail
// diagnostics.
func RenderLOO(w io.Writer, loo *compare.LOO) {
	fmt.Fprintf(w, "PSIS-LOO for %s:\n\n", loo.Name)
	fmt.Fprintf(w, "  elpd_loo: %9.2f\n", loo.Elpd)
	fmt.Fprintf(w, "  se:       %9.2f\n", loo.SE)
	fmt.Fprintf(w, "  n:        %9d\n", len(loo.Pointwise))

	var smoothed int
	for _, k := range loo.KHat {
		if !math.IsNaN(k) {
			smoothed++
		}
	}
	fmt.Fprintf(w, "  pareto smoothed: %d/%d observations, %d unreliable (high k-hat)\n",
		smoothed, len(loo.KHat), loo.BadK)
}

// RenderComparison writes the model ranking table, best first.
func RenderComparison(w io.Writer, ranked []compare.Ranked) {
	fmt.Fprintf(w, "Model comparison (PSIS-LOO, best first):\n\n")
	fmt.Fprintf(w, "%-20s %10s %8s %10s %8s %6s\n",
		"Model", "elpd", "se", "elpd_diff", "diff_se", "bad_k")
	fmt.Fprintln(w, rule(66))

	for _, r := range ranked {
		fmt.Fprintf(w, "%-20s %10.2f %8.2f %10.2f %8.2f %6d\n",
			truncate(r.Name, 20), r.Elpd, r.SE, r.ElpdDiff, r.DiffSE, r.BadK)
	}
}

// RenderCoefTable writes the side-by-side coefficient table: posterior
// mean and interval, classical estimate and interval, and ground truth
// with interval coverage where known.
func RenderCoefTable(w io.Writer, rows []compare.CoefRow) {
	fmt.Fprintf(w, "Coefficients (posterior vs classical):\n\n")
	fmt.Fprintf(w, "%-20s %9s %9s %9s %9s %9s %9s %8s %8s\n",
		"Parameter", "Post", "Lower", "Upper", "MLE", "Lower", "Upper", "Truth", "Covered")
	fmt.Fprintln(w, rule(98))

	for _, r := range rows {
		truth, covered := "-", "-"
		if r.HasTruth {
			truth = num(r.Truth)
			covered = "yes"
			if !r.Covered {
				covered = "NO"
			}
		}
		fmt.Fprintf(w, "%-20s %9s %9s %9s %9s %9s %9s %8s %8s\n",
			truncate(r.Name, 20), num(r.PostMean), num(r.Lower), num(r.Upper),
			num(r.MLE), num(r.MLELower), num(r.MLEUpper), truth, covered)
	}
}

// RenderPPC writes the posterior predictive check table.
func RenderPPC(w io.Writer, res *ppc.Result) {
	fmt.Fprintf(w, "Posterior predictive check (%d replications):\n\n", res.Draws)
	fmt.Fprintf(w, "%-8s %10s %10s %10s %8s\n",
		"Stat", "Observed", "RepMean", "RepSD", "p")
	fmt.Fprintln(w, rule(50))

	for _, s := range res.Stats {
		fmt.Fprintf(w, "%-8s %10s %10s %10s %8.3f\n",
			s.Name, num(s.Observed), num(s.RepMean), num(s.RepSD), s.PValue)
	}

	for _, s := range res.Stats {
		if s.PValue < 0.05 || s.PValue > 0.95 {
			fmt.Fprintf(w, "\nStatistic %q sits in the tail of its replicated distribution (p = %.3f).\n",
				s.Name, s.PValue)
		}
	}
}
