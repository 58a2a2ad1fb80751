package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/store"
)

// newTestRootCmd creates a root command with persistent flags for testing
// subcommands.
func newTestRootCmd(subs ...*cobra.Command) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bayeslab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Workspace root directory")
	rootCmd.AddCommand(subs...)
	return rootCmd
}

// runCmd executes args against a fresh command tree and returns stdout.
func runCmd(t *testing.T, args []string, subs ...*cobra.Command) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd := newTestRootCmd(subs...)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out.String()
}

func TestNewVersionCmd(t *testing.T) {
	out := runCmd(t, []string{"version"}, newVersionCmd())
	if !strings.Contains(out, version) {
		t.Errorf("version output %q missing %q", out, version)
	}

	out = runCmd(t, []string{"version", "--json"}, newVersionCmd())
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("version --json produced invalid JSON: %v", err)
	}
	if got["version"] != version {
		t.Errorf("json version = %q, want %q", got["version"], version)
	}
}

func TestInitCmdCreatesWorkspace(t *testing.T) {
	tmpDir := t.TempDir()

	runCmd(t, []string{"init", "--root", tmpDir}, newInitCmd())

	if _, err := os.Stat(store.DBPath(tmpDir)); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if _, err := os.Stat(store.ConfigPath(tmpDir)); err != nil {
		t.Errorf("config not created: %v", err)
	}

	// Re-running init is harmless.
	runCmd(t, []string{"init", "--root", tmpDir}, newInitCmd())
}

func TestSimulateCmd(t *testing.T) {
	tmpDir := t.TempDir()

	out := runCmd(t, []string{"simulate", "--root", tmpDir, "--scenario", "linear", "--n", "50", "--seed", "7"},
		newSimulateCmd())
	if !strings.Contains(out, "50 rows") {
		t.Errorf("output missing row count:\n%s", out)
	}
	if !strings.Contains(out, "mu.x1") {
		t.Errorf("output missing ground truth:\n%s", out)
	}

	out = runCmd(t, []string{"list", "datasets", "--root", tmpDir}, newListCmd())
	if !strings.Contains(out, "linear") {
		t.Errorf("dataset not listed:\n%s", out)
	}
}

func TestSimulateCmdJSON(t *testing.T) {
	tmpDir := t.TempDir()

	out := runCmd(t, []string{"simulate", "--root", tmpDir, "--scenario", "logit", "--n", "30", "--seed", "2", "--json"},
		newSimulateCmd())

	var ds store.Dataset
	if err := json.Unmarshal([]byte(out), &ds); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if ds.Name != "logit" || ds.Rows != 30 {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestSimulateCmdUnknownScenario(t *testing.T) {
	rootCmd := newTestRootCmd(newSimulateCmd())
	rootCmd.SetArgs([]string{"simulate", "--root", t.TempDir(), "--scenario", "bogus"})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

// fitLinear simulates and fits the linear scenario, returning the run id.
func fitLinear(t *testing.T, tmpDir string) int64 {
	t.Helper()

	runCmd(t, []string{"simulate", "--root", tmpDir, "--scenario", "linear", "--n", "60", "--seed", "4"},
		newSimulateCmd())

	out := runCmd(t, []string{"fit", "--root", tmpDir, "--dataset", "linear", "--auto",
		"--chains", "2", "--warmup", "150", "--iterations", "80", "--seed", "4", "--json"},
		newFitCmd())

	var run store.Run
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("invalid fit JSON: %v\n%s", err, out)
	}
	if run.ID == 0 {
		t.Fatal("fit did not return a run id")
	}
	return run.ID
}

func TestFitAndSummaryCmds(t *testing.T) {
	tmpDir := t.TempDir()
	runID := fitLinear(t, tmpDir)

	out := runCmd(t, []string{"summary", "--root", tmpDir, "--run", strconv.FormatInt(runID, 10)},
		newSummaryCmd())
	for _, want := range []string{"mu.intercept", "mu.x1", "mu.x2", "sigma.intercept", "RHat"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Model-name selection resolves to the same run.
	out2 := runCmd(t, []string{"summary", "--root", tmpDir, "--model", "linear"},
		newSummaryCmd())
	if !strings.Contains(out2, "mu.x1") {
		t.Errorf("summary by model name failed:\n%s", out2)
	}
}

func TestDiagnoseCmd(t *testing.T) {
	tmpDir := t.TempDir()
	runID := fitLinear(t, tmpDir)

	out := runCmd(t, []string{"diagnose", "--root", tmpDir, "--run", strconv.FormatInt(runID, 10)},
		newDiagnoseCmd())
	if !strings.Contains(out, "Acceptance rates") {
		t.Errorf("diagnose output missing acceptance rates:\n%s", out)
	}
	if !strings.Contains(out, "mu.intercept") {
		t.Errorf("diagnose output missing parameters:\n%s", out)
	}
}

func TestPPCCmd(t *testing.T) {
	tmpDir := t.TempDir()
	runID := fitLinear(t, tmpDir)

	out := runCmd(t, []string{"ppc", "--root", tmpDir, "--run", strconv.FormatInt(runID, 10), "--draws", "50"},
		newPPCCmd())
	if !strings.Contains(out, "50 replications") {
		t.Errorf("ppc output missing replication count:\n%s", out)
	}
	for _, stat := range []string{"mean", "sd", "min", "max"} {
		if !strings.Contains(out, stat) {
			t.Errorf("ppc output missing %q:\n%s", stat, out)
		}
	}
}

func TestClassicalCmd(t *testing.T) {
	tmpDir := t.TempDir()
	runID := fitLinear(t, tmpDir)

	out := runCmd(t, []string{"classical", "--root", tmpDir, "--run", strconv.FormatInt(runID, 10)},
		newClassicalCmd())
	if !strings.Contains(out, "MLE") {
		t.Errorf("classical output missing MLE column:\n%s", out)
	}
	if !strings.Contains(out, "Truth") {
		t.Errorf("classical output missing truth column:\n%s", out)
	}
}

func TestExportCmd(t *testing.T) {
	tmpDir := t.TempDir()
	runID := fitLinear(t, tmpDir)
	id := strconv.FormatInt(runID, 10)

	out := runCmd(t, []string{"export", "--root", tmpDir, "--run", id, "--format", "csv"},
		newExportCmd())
	if !strings.Contains(out, "run_"+id+".csv") {
		t.Errorf("export output missing path:\n%s", out)
	}

	runCmd(t, []string{"export", "--root", tmpDir, "--run", id, "--format", "arrow"},
		newExportCmd())

	rootCmd := newTestRootCmd(newExportCmd())
	rootCmd.SetArgs([]string{"export", "--root", tmpDir, "--run", id, "--format", "parquet"})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestCompareCmd(t *testing.T) {
	tmpDir := t.TempDir()
	id1 := fitLinear(t, tmpDir)

	// Second model on the same dataset: intercept only.
	specPath := tmpDir + "/intercept.yaml"
	spec := "name: intercept_only\nfamily: normal\noutcome: y\n"
	if err := os.WriteFile(specPath, []byte(spec), 0644); err != nil {
		t.Fatalf("writing spec: %v", err)
	}
	out := runCmd(t, []string{"fit", "--root", tmpDir, "--dataset", "linear", "--spec", specPath,
		"--chains", "2", "--warmup", "150", "--iterations", "80", "--seed", "4", "--json"},
		newFitCmd())
	var run2 store.Run
	if err := json.Unmarshal([]byte(out), &run2); err != nil {
		t.Fatalf("invalid fit JSON: %v", err)
	}

	out = runCmd(t, []string{"compare", "--root", tmpDir, "--runs",
		strconv.FormatInt(id1, 10) + "," + strconv.FormatInt(run2.ID, 10)},
		newCompareCmd())
	if !strings.Contains(out, "elpd") {
		t.Errorf("compare output missing elpd:\n%s", out)
	}
	if !strings.Contains(out, "intercept_only") {
		t.Errorf("compare output missing model name:\n%s", out)
	}
}

func TestConfigCmds(t *testing.T) {
	tmpDir := t.TempDir()

	runCmd(t, []string{"config", "set", "sampler.iterations", "500", "--root", tmpDir}, newConfigCmd())

	out := runCmd(t, []string{"config", "get", "sampler.iterations", "--root", tmpDir}, newConfigCmd())
	if strings.TrimSpace(out) != "500" {
		t.Errorf("config get = %q, want 500", out)
	}

	out = runCmd(t, []string{"config", "list", "--root", tmpDir}, newConfigCmd())
	if !strings.Contains(out, "sampler.iterations:     500") {
		t.Errorf("config list missing updated value:\n%s", out)
	}

	rootCmd := newTestRootCmd(newConfigCmd())
	rootCmd.SetArgs([]string{"config", "set", "sampler.chains", "0", "--root", tmpDir})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected validation error for zero chains")
	}

	rootCmd = newTestRootCmd(newConfigCmd())
	rootCmd.SetArgs([]string{"config", "get", "nope.nope", "--root", tmpDir})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestResolveRunRequiresSelector(t *testing.T) {
	tmpDir := t.TempDir()
	rootCmd := newTestRootCmd(newSummaryCmd())
	rootCmd.SetArgs([]string{"summary", "--root", tmpDir})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error without --run or --model")
	}
}
