package classical

import (
	"math"
	"testing"

	"github.com/statlab/bayeslab/internal/dataset"
	"github.com/statlab/bayeslab/internal/simulate"
)

func TestOLSExactLine(t *testing.T) {
	// y = 2 + 3x exactly: OLS must reproduce it with zero residual.
	tbl, _ := dataset.New("x", "y")
	for _, x := range []float64{-1, 0, 1, 2, 3} {
		tbl.AppendRow(x, 2+3*x)
	}

	fit, err := OLS(tbl, "y", []string{"x"})
	if err != nil {
		t.Fatalf("OLS() error = %v", err)
	}

	if math.Abs(fit.Coef[0]-2) > 1e-10 || math.Abs(fit.Coef[1]-3) > 1e-10 {
		t.Errorf("Coef = %v, want [2 3]", fit.Coef)
	}
	if fit.Sigma > 1e-8 {
		t.Errorf("Sigma = %v, want ~0 for exact fit", fit.Sigma)
	}
	if fit.Names[0] != "mu.intercept" || fit.Names[1] != "mu.x" {
		t.Errorf("Names = %v", fit.Names)
	}
}

func TestOLSRecoversSimulatedTruth(t *testing.T) {
	res, err := simulate.Run(simulate.Config{Scenario: simulate.ScenarioLinear, N: 4000, Seed: 17})
	if err != nil {
		t.Fatalf("simulate.Run() error = %v", err)
	}

	fit, err := OLS(res.Table, "y", []string{"x1", "x2"})
	if err != nil {
		t.Fatalf("OLS() error = %v", err)
	}

	truth := []float64{res.Truth["mu.intercept"], res.Truth["mu.x1"], res.Truth["mu.x2"]}
	for j, want := range truth {
		if math.Abs(fit.Coef[j]-want) > 4*fit.SE[j]+0.01 {
			t.Errorf("coef %s = %v (se %v), truth %v", fit.Names[j], fit.Coef[j], fit.SE[j], want)
		}
		if fit.SE[j] <= 0 || fit.SE[j] > 0.1 {
			t.Errorf("se %s = %v, want small positive", fit.Names[j], fit.SE[j])
		}
	}

	// True residual sd is exp of the log-scale truth.
	wantSigma := math.Exp(res.Truth["sigma.intercept"])
	if math.Abs(fit.Sigma-wantSigma) > 0.1 {
		t.Errorf("Sigma = %v, want about %v", fit.Sigma, wantSigma)
	}
}

func TestOLSUnderdetermined(t *testing.T) {
	tbl, _ := dataset.New("x", "y")
	tbl.AppendRow(1, 1)
	tbl.AppendRow(2, 2)

	if _, err := OLS(tbl, "y", []string{"x"}); err == nil {
		t.Error("OLS() with n <= p should fail")
	}
}

func TestOLSUnknownColumns(t *testing.T) {
	tbl, _ := dataset.New("x", "y")
	tbl.AppendRow(1, 1)
	tbl.AppendRow(2, 2)
	tbl.AppendRow(3, 5)

	if _, err := OLS(tbl, "z", []string{"x"}); err == nil {
		t.Error("OLS() with unknown outcome should fail")
	}
	if _, err := OLS(tbl, "y", []string{"w"}); err == nil {
		t.Error("OLS() with unknown covariate should fail")
	}
}

func TestLogisticRecoversSimulatedTruth(t *testing.T) {
	res, err := simulate.Run(simulate.Config{Scenario: simulate.ScenarioLogit, N: 5000, Seed: 23})
	if err != nil {
		t.Fatalf("simulate.Run() error = %v", err)
	}

	fit, err := Logistic(res.Table, "y", []string{"x1"})
	if err != nil {
		t.Fatalf("Logistic() error = %v", err)
	}

	truth := []float64{res.Truth["mu.intercept"], res.Truth["mu.x1"]}
	for j, want := range truth {
		if math.Abs(fit.Coef[j]-want) > 4*fit.SE[j]+0.02 {
			t.Errorf("coef %s = %v (se %v), truth %v", fit.Names[j], fit.Coef[j], fit.SE[j], want)
		}
	}
	if fit.Iterations < 2 {
		t.Errorf("Iterations = %d, want at least 2", fit.Iterations)
	}
	if !math.IsNaN(fit.Sigma) {
		t.Errorf("Sigma = %v, want NaN for logistic", fit.Sigma)
	}
}

func TestLogisticRejectsNonBinaryOutcome(t *testing.T) {
	tbl, _ := dataset.New("x", "y")
	tbl.AppendRow(1, 0.5)
	tbl.AppendRow(2, 1)
	tbl.AppendRow(3, 0)

	if _, err := Logistic(tbl, "y", []string{"x"}); err == nil {
		t.Error("Logistic() with non-binary outcome should fail")
	}
}

func TestLogisticSeparatedDataFails(t *testing.T) {
	// Perfectly separated data has no finite MLE.
	tbl, _ := dataset.New("x", "y")
	for i := 0; i < 20; i++ {
		x := float64(i - 10)
		y := 0.0
		if x > 0 {
			y = 1
		}
		tbl.AppendRow(x, y)
	}

	if _, err := Logistic(tbl, "y", []string{"x"}); err == nil {
		t.Error("Logistic() on separated data should report non-convergence")
	}
}
