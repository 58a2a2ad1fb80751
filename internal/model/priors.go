package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is a prior density over a single unconstrained coefficient.
type Prior interface {
	// LogProb returns the log density at theta.
	LogProb(theta float64) float64

	// String returns the spec-syntax form, e.g. "normal(0, 10)".
	String() string
}

// DefaultPrior is the prior applied to coefficients the spec leaves
// unspecified: a weakly informative normal(0, 10).
func DefaultPrior() Prior {
	return normalPrior{mu: 0, sigma: 10}
}

// ParsePrior parses a prior expression like "normal(0, 5)",
// "student_t(3, 0, 2)", "cauchy(0, 1)", or "exponential(1)".
//
// The exponential prior is a density on the natural (positive) scale: for a
// log-linked coefficient u it evaluates Exp(rate) at exp(u) with the
// log-Jacobian term, which is the usual way to put an exponential prior on
// a scale parameter sampled on the log scale.
func ParsePrior(expr string) (Prior, error) {
	name, args, err := splitCall(expr)
	if err != nil {
		return nil, err
	}

	switch name {
	case "normal":
		if len(args) != 2 {
			return nil, fmt.Errorf("normal wants 2 args (mu, sigma), got %d", len(args))
		}
		if args[1] <= 0 {
			return nil, fmt.Errorf("normal sigma must be positive, got %v", args[1])
		}
		return normalPrior{mu: args[0], sigma: args[1]}, nil

	case "student_t":
		if len(args) != 3 {
			return nil, fmt.Errorf("student_t wants 3 args (nu, mu, sigma), got %d", len(args))
		}
		if args[0] <= 0 || args[2] <= 0 {
			return nil, fmt.Errorf("student_t nu and sigma must be positive, got %v, %v", args[0], args[2])
		}
		return studentTPrior{nu: args[0], mu: args[1], sigma: args[2]}, nil

	case "cauchy":
		if len(args) != 2 {
			return nil, fmt.Errorf("cauchy wants 2 args (mu, sigma), got %d", len(args))
		}
		if args[1] <= 0 {
			return nil, fmt.Errorf("cauchy sigma must be positive, got %v", args[1])
		}
		// Cauchy is Student's t with nu=1.
		return studentTPrior{nu: 1, mu: args[0], sigma: args[1], cauchy: true}, nil

	case "exponential":
		if len(args) != 1 {
			return nil, fmt.Errorf("exponential wants 1 arg (rate), got %d", len(args))
		}
		if args[0] <= 0 {
			return nil, fmt.Errorf("exponential rate must be positive, got %v", args[0])
		}
		return exponentialPrior{rate: args[0]}, nil

	default:
		return nil, fmt.Errorf("unknown prior distribution %q", name)
	}
}

// splitCall parses "name(a, b, ...)" into name and float args.
func splitCall(expr string) (string, []float64, error) {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open < 1 || !strings.HasSuffix(expr, ")") {
		return "", nil, fmt.Errorf("malformed prior expression %q", expr)
	}
	name := strings.TrimSpace(expr[:open])
	inner := expr[open+1 : len(expr)-1]

	var args []float64
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", nil, fmt.Errorf("empty argument in prior expression %q", expr)
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad argument %q in prior expression %q", part, expr)
		}
		args = append(args, v)
	}
	return name, args, nil
}

type normalPrior struct {
	mu, sigma float64
}

func (p normalPrior) LogProb(theta float64) float64 {
	return distuv.Normal{Mu: p.mu, Sigma: p.sigma}.LogProb(theta)
}

func (p normalPrior) String() string {
	return fmt.Sprintf("normal(%g, %g)", p.mu, p.sigma)
}

type studentTPrior struct {
	nu, mu, sigma float64
	cauchy        bool
}

func (p studentTPrior) LogProb(theta float64) float64 {
	return distuv.StudentsT{Mu: p.mu, Sigma: p.sigma, Nu: p.nu}.LogProb(theta)
}

func (p studentTPrior) String() string {
	if p.cauchy {
		return fmt.Sprintf("cauchy(%g, %g)", p.mu, p.sigma)
	}
	return fmt.Sprintf("student_t(%g, %g, %g)", p.nu, p.mu, p.sigma)
}

type exponentialPrior struct {
	rate float64
}

func (p exponentialPrior) LogProb(theta float64) float64 {
	// Density of Exp(rate) at exp(theta), plus the log-Jacobian d exp(u)/du.
	return math.Log(p.rate) - p.rate*math.Exp(theta) + theta
}

func (p exponentialPrior) String() string {
	return fmt.Sprintf("exponential(%g)", p.rate)
}
