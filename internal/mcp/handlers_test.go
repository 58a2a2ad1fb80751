package mcp

import (
	"context"
	"io"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/statlab/bayeslab/internal/simulate"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    t.TempDir(),
		LogW:    io.Discard,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

// fitTestRun simulates a dataset and fits the matching model, returning
// the run id.
func fitTestRun(t *testing.T, server *Server, scenario string, seed uint64) int64 {
	t.Helper()
	ctx := context.Background()

	_, simOut, err := server.handleSimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{
		Scenario: scenario, N: 60, Seed: seed, Name: scenario,
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if simOut.Rows != 60 {
		t.Fatalf("simulate rows = %d, want 60", simOut.Rows)
	}

	spec, err := simulate.DefaultSpecYAML(simulate.Scenario(scenario))
	if err != nil {
		t.Fatalf("DefaultSpecYAML failed: %v", err)
	}

	_, fitOut, err := server.handleFit(ctx, &sdk.CallToolRequest{}, FitInput{
		Spec: spec, Dataset: scenario,
		Chains: 2, Warmup: 150, Iterations: 80, Seed: seed,
	})
	if err != nil {
		t.Fatalf("handleFit failed: %v", err)
	}
	if fitOut.RunID == 0 {
		t.Fatal("fit did not return a run id")
	}
	if len(fitOut.Accept) != 2 {
		t.Fatalf("acceptance rates = %v, want one per chain", fitOut.Accept)
	}
	return fitOut.RunID
}

func TestHandleSimulate(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleSimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{
		Scenario: "linear", N: 40, Seed: 3, Name: "mydata",
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if out.Dataset != "mydata" || out.Rows != 40 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Truth) == 0 {
		t.Error("ground truth missing from output")
	}
	found := false
	for _, c := range out.Columns {
		if c == "y" {
			found = true
		}
	}
	if !found {
		t.Errorf("outcome column missing: %v", out.Columns)
	}
}

func TestHandleSimulateUnknownScenario(t *testing.T) {
	server := setupTestServer(t)

	_, _, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, SimulateInput{
		Scenario: "bogus", N: 10,
	})
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	if !strings.Contains(err.Error(), "scenario") {
		t.Errorf("error should name the scenario: %v", err)
	}
}

func TestHandleFitAndSummary(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	runID := fitTestRun(t, server, "linear", 21)

	_, out, err := server.handleSummary(ctx, &sdk.CallToolRequest{}, SummaryInput{RunID: runID})
	if err != nil {
		t.Fatalf("handleSummary failed: %v", err)
	}
	if out.Model == "" || out.Dataset != "linear" {
		t.Errorf("summary metadata = %+v", out)
	}
	if len(out.Summaries) == 0 {
		t.Fatal("no summaries returned")
	}
	for _, s := range out.Summaries {
		if s.Param == "" {
			t.Errorf("summary row without parameter name: %+v", s)
		}
		if s.Upper < s.Lower {
			t.Errorf("%s: interval [%v, %v] inverted", s.Param, s.Lower, s.Upper)
		}
	}
}

func TestHandleSummaryUnknownRun(t *testing.T) {
	server := setupTestServer(t)
	if _, _, err := server.handleSummary(context.Background(), &sdk.CallToolRequest{}, SummaryInput{RunID: 999}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestHandleCompare(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	// Two fits of the same dataset under different specs: the matching
	// model and an intercept-only one.
	id1 := fitTestRun(t, server, "linear", 8)

	interceptOnly := "name: intercept_only\nfamily: normal\noutcome: y\n"
	_, fitOut, err := server.handleFit(ctx, &sdk.CallToolRequest{}, FitInput{
		Spec: interceptOnly, Dataset: "linear",
		Chains: 2, Warmup: 150, Iterations: 80, Seed: 8,
	})
	if err != nil {
		t.Fatalf("handleFit failed: %v", err)
	}

	_, out, err := server.handleCompare(ctx, &sdk.CallToolRequest{}, CompareInput{
		RunIDs: []int64{id1, fitOut.RunID},
	})
	if err != nil {
		t.Fatalf("handleCompare failed: %v", err)
	}
	if len(out.Ranked) != 2 {
		t.Fatalf("ranked %d models, want 2", len(out.Ranked))
	}
	if out.Ranked[0].ElpdDiff != 0 {
		t.Errorf("best model ElpdDiff = %v, want 0", out.Ranked[0].ElpdDiff)
	}
	if out.Ranked[1].ElpdDiff >= 0 {
		t.Errorf("second model ElpdDiff = %v, want negative", out.Ranked[1].ElpdDiff)
	}
}

func TestHandleCompareRejectsMixedDatasets(t *testing.T) {
	server := setupTestServer(t)

	id1 := fitTestRun(t, server, "linear", 5)
	id2 := fitTestRun(t, server, "logit", 5)

	_, _, err := server.handleCompare(context.Background(), &sdk.CallToolRequest{}, CompareInput{
		RunIDs: []int64{id1, id2},
	})
	if err == nil {
		t.Fatal("expected error for runs fit to different datasets")
	}
	if !strings.Contains(err.Error(), "dataset") {
		t.Errorf("error should name the dataset mismatch: %v", err)
	}
}

func TestHandleCompareNeedsTwoRuns(t *testing.T) {
	server := setupTestServer(t)
	if _, _, err := server.handleCompare(context.Background(), &sdk.CallToolRequest{}, CompareInput{RunIDs: []int64{1}}); err == nil {
		t.Fatal("expected error for single-run comparison")
	}
}
