// Package constants provides named constants used throughout the bayeslab codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Sampler defaults
const (
	// DefaultChains is the number of MCMC chains run in parallel.
	DefaultChains = 4

	// DefaultWarmup is the number of warmup (adaptation) iterations per chain.
	// Warmup draws are discarded.
	DefaultWarmup = 1000

	// DefaultIterations is the number of post-warmup draws kept per chain.
	DefaultIterations = 1000

	// DefaultSeed is the base RNG seed. Chain c derives its stream from seed+c.
	DefaultSeed = 20260830

	// DefaultTargetAccept is the acceptance rate the warmup adaptation steers
	// proposal scales toward. 0.234 is optimal for random-walk Metropolis in
	// high dimensions; the adaptation tolerates the low-dimensional case.
	DefaultTargetAccept = 0.234

	// AdaptWindow is the number of warmup iterations between scale updates.
	AdaptWindow = 50
)

// Diagnostics thresholds
const (
	// RHatWarnThreshold flags parameters whose split R-hat exceeds it.
	RHatWarnThreshold = 1.01

	// ESSWarnPerChain flags parameters whose effective sample size falls
	// below this many draws per chain.
	ESSWarnPerChain = 100

	// ParetoKWarnThreshold flags observations whose PSIS Pareto k-hat
	// exceeds it; the importance-sampling estimate is then unreliable.
	ParetoKWarnThreshold = 0.7
)

// Summary defaults
const (
	// DefaultIntervalMass is the posterior credible-interval mass reported
	// by summaries.
	DefaultIntervalMass = 0.90

	// DefaultPPCDraws is the number of posterior draws used for replicated
	// datasets in posterior predictive checks.
	DefaultPPCDraws = 200
)
