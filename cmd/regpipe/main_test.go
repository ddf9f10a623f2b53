package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/regpipe/tracking"
)

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("x,g,y\n")
	for i := 0; i < 60; i++ {
		g := []string{"a", "b", "c"}[i%3]
		fmt.Fprintf(&sb, "%d,%s,%g\n", i%17, g, 1+2*float64(i%17)+float64(i%3)+0.01*float64(i%5))
	}
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestTrainAndInspect(t *testing.T) {
	dir := t.TempDir()
	data := writeCSV(t, dir)
	store := filepath.Join(dir, "store")
	metricsFile := filepath.Join(dir, "regpipe.prom")

	out, err := execute(t, "train", "--data", data, "--target", "y",
		"--tracking-dir", store, "--metrics-file", metricsFile, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Mean Squared Error")
	assert.Contains(t, out, "R-Squared")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "regpipe_stage_duration_seconds")

	out, err = execute(t, "runs", "list", "--tracking-dir", store, "--log-level", "error")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "FINISHED")
	runID := strings.Fields(lines[1])[0]

	out, err = execute(t, "runs", "show", runID, "--tracking-dir", store, "--log-level", "error")
	require.NoError(t, err)
	var rec tracking.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, runID, rec.ID)
	assert.Equal(t, "y", rec.Params["target"])

	var view runView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.NotNil(t, view.Model, "finished runs show their model")
	assert.Contains(t, view.Model.Coefficients, "x")
	assert.InDelta(t, 2.0, view.Model.Coefficients["x"], 0.1)

	out, err = execute(t, "models", "list", "--tracking-dir", store, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "LinearRegressionModel")
}

func TestTrain_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "train", "--tracking-dir", dir)
	assert.Error(t, err, "--data is required")

	_, err = execute(t, "train", "--data", writeCSV(t, dir), "--no-tracking", "--log-level", "error")
	assert.Error(t, err, "no target configured")

	_, err = execute(t, "train", "--data", writeCSV(t, dir), "--target", "y", "--no-tracking", "--log-level", "loud")
	assert.Error(t, err)
}

func TestTrain_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("target: y\ntransforms:\n  - strategy: one_hot_encoding\n    features: [g]\n"), 0o600))

	out, err := execute(t, "train", "--data", writeCSV(t, dir), "--config", cfgPath, "--no-tracking", "--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, out, "run")
}

func TestRunsShow_NotFound(t *testing.T) {
	_, err := execute(t, "runs", "show", "missing", "--tracking-dir", t.TempDir(), "--log-level", "error")
	assert.ErrorIs(t, err, tracking.ErrNotFound)
}
