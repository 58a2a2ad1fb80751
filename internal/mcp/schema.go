// Package mcp provides an MCP (Model Context Protocol) server exposing the
// bayeslab workflow as tools over stdio.
package mcp

import (
	"github.com/statlab/bayeslab/internal/compare"
	"github.com/statlab/bayeslab/internal/posterior"
)

// Tool input and output structs. The jsonschema tag carries the field
// description; fields without omitempty in the json tag are required.

// SimulateInput defines the input for the bayeslab_simulate tool.
type SimulateInput struct {
	Scenario string `json:"scenario" jsonschema:"Scenario to generate: linear, loglinear, skew, or logit"`
	N        int    `json:"n" jsonschema:"Number of rows to simulate"`
	Seed     uint64 `json:"seed,omitempty" jsonschema:"RNG seed (default: workspace config seed)"`
	Name     string `json:"name,omitempty" jsonschema:"Dataset name (default: the scenario name)"`
}

// SimulateOutput defines the output for the bayeslab_simulate tool.
type SimulateOutput struct {
	Dataset string             `json:"dataset" jsonschema:"Stored dataset name"`
	Path    string             `json:"path" jsonschema:"CSV cache file path"`
	Rows    int                `json:"rows" jsonschema:"Number of rows generated"`
	Columns []string           `json:"columns" jsonschema:"Dataset column names"`
	Truth   map[string]float64 `json:"truth" jsonschema:"Ground-truth coefficient values (scales on the log scale)"`
}

// FitInput defines the input for the bayeslab_fit tool.
type FitInput struct {
	Spec       string `json:"spec" jsonschema:"Model specification in YAML"`
	Dataset    string `json:"dataset" jsonschema:"Name of a stored dataset to fit against"`
	Chains     int    `json:"chains,omitempty" jsonschema:"Number of chains (default: workspace config)"`
	Warmup     int    `json:"warmup,omitempty" jsonschema:"Warmup iterations per chain (default: workspace config)"`
	Iterations int    `json:"iterations,omitempty" jsonschema:"Kept iterations per chain (default: workspace config)"`
	Seed       uint64 `json:"seed,omitempty" jsonschema:"Base RNG seed; chain c uses seed+c (default: workspace config)"`
}

// FitOutput defines the output for the bayeslab_fit tool.
type FitOutput struct {
	RunID  int64     `json:"run_id" jsonschema:"Id of the stored run"`
	Model  string    `json:"model" jsonschema:"Model name from the spec"`
	Params []string  `json:"params" jsonschema:"Sampled parameter names"`
	Accept []float64 `json:"accept" jsonschema:"Post-warmup acceptance rate per chain"`
}

// SummaryInput defines the input for the bayeslab_summary tool.
type SummaryInput struct {
	RunID int64   `json:"run_id" jsonschema:"Run id returned by bayeslab_fit"`
	Mass  float64 `json:"mass,omitempty" jsonschema:"Credible interval mass in (0,1) (default: workspace config)"`
}

// SummaryOutput defines the output for the bayeslab_summary tool.
type SummaryOutput struct {
	RunID     int64               `json:"run_id"`
	Model     string              `json:"model"`
	Dataset   string              `json:"dataset"`
	Summaries []posterior.Summary `json:"summaries" jsonschema:"Per-parameter posterior summaries with convergence diagnostics"`
}

// CompareInput defines the input for the bayeslab_compare tool.
type CompareInput struct {
	RunIDs []int64 `json:"run_ids" jsonschema:"Run ids to compare; all must be fits of the same dataset"`
}

// CompareOutput defines the output for the bayeslab_compare tool.
type CompareOutput struct {
	Ranked []compare.Ranked `json:"ranked" jsonschema:"Models ordered by elpd_loo with differences to the best"`
}
