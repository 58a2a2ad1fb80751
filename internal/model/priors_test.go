package model

import (
	"math"
	"testing"
)

func TestParsePrior(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
		str     string
	}{
		{"normal(0, 10)", false, "normal(0, 10)"},
		{"normal( 1.5 , 2 )", false, "normal(1.5, 2)"},
		{"student_t(3, 0, 2)", false, "student_t(3, 0, 2)"},
		{"cauchy(0, 1)", false, "cauchy(0, 1)"},
		{"exponential(1)", false, "exponential(1)"},
		{"normal(0)", true, ""},
		{"normal(0, -1)", true, ""},
		{"student_t(0, 0, 1)", true, ""},
		{"exponential(0)", true, ""},
		{"gamma(1, 1)", true, ""},
		{"normal 0 10", true, ""},
		{"normal(a, b)", true, ""},
		{"", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePrior(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrior(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err == nil && p.String() != tt.str {
				t.Errorf("String() = %q, want %q", p.String(), tt.str)
			}
		})
	}
}

func TestNormalPriorLogProb(t *testing.T) {
	p, err := ParsePrior("normal(0, 1)")
	if err != nil {
		t.Fatalf("ParsePrior() error = %v", err)
	}

	// Standard normal density at 0 is 1/sqrt(2*pi).
	want := -0.5 * math.Log(2*math.Pi)
	if got := p.LogProb(0); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb(0) = %v, want %v", got, want)
	}

	// Symmetry.
	if math.Abs(p.LogProb(1.3)-p.LogProb(-1.3)) > 1e-12 {
		t.Error("normal prior should be symmetric")
	}
}

func TestCauchyHeavierTailThanNormal(t *testing.T) {
	n, _ := ParsePrior("normal(0, 1)")
	c, _ := ParsePrior("cauchy(0, 1)")

	if c.LogProb(6) <= n.LogProb(6) {
		t.Error("cauchy tail should dominate normal tail at 6 sigma")
	}
}

func TestExponentialPriorJacobian(t *testing.T) {
	p, err := ParsePrior("exponential(2)")
	if err != nil {
		t.Fatalf("ParsePrior() error = %v", err)
	}

	// At theta, density is rate*exp(-rate*e^theta) * e^theta (Jacobian).
	theta := 0.3
	want := math.Log(2) - 2*math.Exp(theta) + theta
	if got := p.LogProb(theta); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb(%v) = %v, want %v", theta, got, want)
	}

	// Integrates mass toward negative theta (small scales), so the density
	// at a very large theta must vanish.
	if p.LogProb(10) > -1000 {
		t.Error("exponential prior should vanish for huge scales")
	}
}

func TestDefaultPrior(t *testing.T) {
	p := DefaultPrior()
	if p.String() != "normal(0, 10)" {
		t.Errorf("DefaultPrior() = %q, want normal(0, 10)", p.String())
	}
}
