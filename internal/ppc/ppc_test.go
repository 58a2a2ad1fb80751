package ppc

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/statlab/bayeslab/internal/dataset"
	"github.com/statlab/bayeslab/internal/model"
	"github.com/statlab/bayeslab/internal/posterior"
	"gonum.org/v1/gonum/stat"
)

// fittedNormal builds an intercept-only normal model on simulated data and
// fake posterior draws concentrated near the truth.
func fittedNormal(t *testing.T, n, chains, perChain int) (*model.Target, *posterior.Draws) {
	t.Helper()

	rng := rand.New(rand.NewPCG(42, 0))
	ds, err := dataset.New("y")
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	for i := 0; i < n; i++ {
		if err := ds.AppendRow(2 + 1.5*rng.NormFloat64()); err != nil {
			t.Fatalf("AppendRow() error = %v", err)
		}
	}

	spec := &model.Spec{Name: "m", Family: model.FamilyNormal, Outcome: "y"}
	target, err := spec.Compile(ds)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	// Center the fake posterior on the sample statistics so replicated
	// means and spreads bracket the observed ones.
	y, _ := ds.Column("y")
	mean := stat.Mean(y, nil)
	logSigma := math.Log(stat.StdDev(y, nil))

	d := &posterior.Draws{
		Params: []string{"mu.intercept", "sigma.intercept"},
		Chains: make([][][]float64, chains),
	}
	for c := range d.Chains {
		d.Chains[c] = make([][]float64, perChain)
		for i := range d.Chains[c] {
			d.Chains[c][i] = []float64{
				mean + 0.05*rng.NormFloat64(),
				logSigma + 0.03*rng.NormFloat64(),
			}
		}
	}
	return target, d
}

func TestRunWellCalibrated(t *testing.T) {
	target, d := fittedNormal(t, 400, 4, 100)

	res, err := Run(target, d, 200, 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Draws != 200 {
		t.Fatalf("Draws = %d, want 200", res.Draws)
	}

	names := make([]string, len(res.Stats))
	for i, s := range res.Stats {
		names[i] = s.Name
	}
	if want := []string{"mean", "sd", "min", "max"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("statistics = %v, want %v", names, want)
	}

	for _, s := range res.Stats {
		if math.IsNaN(s.RepMean) || math.IsNaN(s.RepSD) || s.RepSD <= 0 {
			t.Errorf("%s: degenerate replication summary %+v", s.Name, s)
		}
		if s.PValue < 0 || s.PValue > 1 {
			t.Errorf("%s: p-value = %v out of range", s.Name, s.PValue)
		}
		// The posterior was centered on the sample mean and spread, so
		// those statistics must sit well inside the replicated
		// distribution. Extreme order statistics are looser and only get
		// the range check above.
		if s.Name == "mean" || s.Name == "sd" {
			if s.PValue < 0.15 || s.PValue > 0.85 {
				t.Errorf("%s: p-value = %v, want interior for a well-specified model", s.Name, s.PValue)
			}
		}
	}
}

func TestRunDetectsMisfitSD(t *testing.T) {
	target, d := fittedNormal(t, 400, 4, 100)

	// Shrink the posterior scale far below the data's true spread.
	for _, chain := range d.Chains {
		for _, draw := range chain {
			draw[1] = math.Log(0.3)
		}
	}

	res, err := Run(target, d, 200, 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, s := range res.Stats {
		if s.Name == "sd" && s.PValue != 0 {
			t.Errorf("sd p-value = %v, want 0 when replications are far too narrow", s.PValue)
		}
	}
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	target, d := fittedNormal(t, 100, 2, 50)

	a, err := Run(target, d, 50, 11)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := Run(target, d, 50, 11)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Run() not deterministic under the same seed")
	}

	c, err := Run(target, d, 50, 12)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reflect.DeepEqual(a.Stats, c.Stats) {
		t.Error("Run() identical under different seeds")
	}
}

func TestRunCapsAtTotalDraws(t *testing.T) {
	target, d := fittedNormal(t, 50, 2, 10)

	res, err := Run(target, d, 500, 3)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Draws != 20 {
		t.Errorf("Draws = %d, want capped at 20", res.Draws)
	}
}

func TestRunValidation(t *testing.T) {
	target, d := fittedNormal(t, 50, 2, 10)

	if _, err := Run(target, d, 0, 3); err == nil {
		t.Error("Run() with zero draw count should fail")
	}

	bad := &posterior.Draws{
		Params: []string{"mu.intercept"},
		Chains: [][][]float64{{{0.1}}},
	}
	if _, err := Run(target, bad, 10, 3); err == nil {
		t.Error("Run() with mismatched parameter count should fail")
	}
}
