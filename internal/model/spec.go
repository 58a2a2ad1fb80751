// Package model declares generative regression models: a likelihood family,
// linear predictors for the distributional parameters, and priors for every
// coefficient. Specs are written in YAML and compile against a dataset into
// a log-posterior density the sampler can draw from.
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Family identifies the likelihood family of a model.
type Family string

const (
	// FamilyNormal is a Gaussian likelihood with location mu and scale sigma.
	FamilyNormal Family = "normal"

	// FamilyLogNormal models log(y) as Gaussian; y must be strictly positive.
	FamilyLogNormal Family = "lognormal"

	// FamilySkewNormal is an Azzalini skew-normal likelihood with location,
	// scale, and skewness alpha.
	FamilySkewNormal Family = "skew_normal"

	// FamilyBernoulli is a Bernoulli likelihood with logit-linear probability.
	// For this family the "mu" predictor is the logit of p.
	FamilyBernoulli Family = "bernoulli"
)

// Predictors names the dataset columns entering each distributional
// parameter's linear predictor. An intercept is always included and is not
// listed. Scale (sigma) uses a log link; skewness (alpha) uses an identity
// link; for Bernoulli models mu uses a logit link.
type Predictors struct {
	Mu    []string `yaml:"mu"`
	Sigma []string `yaml:"sigma,omitempty"`
	Alpha []string `yaml:"alpha,omitempty"`
}

// Spec is a declarative model specification.
type Spec struct {
	// Name identifies the model in the run store and comparison tables.
	Name string `yaml:"name"`

	// Family is the likelihood family.
	Family Family `yaml:"family"`

	// Outcome is the dataset column being modeled.
	Outcome string `yaml:"outcome"`

	// Predictors lists covariate columns per distributional parameter.
	Predictors Predictors `yaml:"predictors"`

	// Priors maps coefficient names (e.g. "mu.x1", "sigma.intercept") to
	// prior expressions like "normal(0, 5)" or "exponential(1)".
	// Coefficients without an entry get the default normal(0, 10).
	Priors map[string]string `yaml:"priors,omitempty"`
}

// Parse parses a model spec from YAML bytes and validates its standalone
// structure. Column references are checked later, at Compile time.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing model spec: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a model spec from a YAML file.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model spec: %w", err)
	}
	return Parse(data)
}

// Validate checks the spec's internal consistency.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if s.Outcome == "" {
		return fmt.Errorf("model %q: outcome column is required", s.Name)
	}

	switch s.Family {
	case FamilyNormal, FamilyLogNormal, FamilySkewNormal:
	case FamilyBernoulli:
		if len(s.Predictors.Sigma) > 0 || len(s.Predictors.Alpha) > 0 {
			return fmt.Errorf("model %q: bernoulli models have no sigma or alpha predictors", s.Name)
		}
	default:
		return fmt.Errorf("model %q: unknown family %q (valid: normal, lognormal, skew_normal, bernoulli)", s.Name, s.Family)
	}

	if s.Family != FamilySkewNormal && len(s.Predictors.Alpha) > 0 {
		return fmt.Errorf("model %q: alpha predictors require family skew_normal", s.Name)
	}

	coefs := make(map[string]bool)
	for _, c := range s.coefficientNames() {
		coefs[c] = true
	}
	for coef, expr := range s.Priors {
		if !coefs[coef] {
			return fmt.Errorf("model %q: prior for unknown coefficient %q", s.Name, coef)
		}
		if _, err := ParsePrior(expr); err != nil {
			return fmt.Errorf("model %q: prior for %q: %w", s.Name, coef, err)
		}
	}

	return nil
}

// coefficientNames lists all coefficient names induced by the predictors,
// block by block, intercept first within each block.
func (s *Spec) coefficientNames() []string {
	var names []string
	appendBlock := func(prefix string, covariates []string) {
		names = append(names, prefix+".intercept")
		for _, c := range covariates {
			names = append(names, prefix+"."+c)
		}
	}

	appendBlock("mu", s.Predictors.Mu)
	if s.Family == FamilyNormal || s.Family == FamilyLogNormal || s.Family == FamilySkewNormal {
		appendBlock("sigma", s.Predictors.Sigma)
	}
	if s.Family == FamilySkewNormal {
		appendBlock("alpha", s.Predictors.Alpha)
	}
	return names
}
